// Package payload provides typed probing helpers for decoded JSON maps.
// Connector payloads arrive as map[string]any; these helpers keep the
// per-source normalisers free of repetitive type assertions.
package payload

import "time"

// String returns the string value at the nested key path, or "".
func String(m map[string]any, path ...string) string {
	v := lookup(m, path...)
	s, _ := v.(string)
	return s
}

// Bool returns the bool value at the nested key path, or false.
func Bool(m map[string]any, path ...string) bool {
	v := lookup(m, path...)
	b, _ := v.(bool)
	return b
}

// Int returns the numeric value at the nested key path as an int, or 0.
// JSON numbers decode as float64.
func Int(m map[string]any, path ...string) int {
	switch v := lookup(m, path...).(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Map returns the object value at the nested key path, or nil.
func Map(m map[string]any, path ...string) map[string]any {
	v := lookup(m, path...)
	obj, _ := v.(map[string]any)
	return obj
}

// Slice returns the array value at the nested key path, or nil.
func Slice(m map[string]any, path ...string) []any {
	v := lookup(m, path...)
	s, _ := v.([]any)
	return s
}

// Strings collects the string value of field from each object in the array
// at the key path. Non-object entries are skipped.
func Strings(m map[string]any, field string, path ...string) []string {
	var out []string
	for _, item := range Slice(m, path...) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := obj[field].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StringList returns the array at the key path as plain strings.
func StringList(m map[string]any, path ...string) []string {
	var out []string
	for _, item := range Slice(m, path...) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Time parses the RFC 3339 timestamp at the nested key path. Returns nil
// for missing or malformed values.
func Time(m map[string]any, path ...string) *time.Time {
	s := String(m, path...)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func lookup(m map[string]any, path ...string) any {
	if len(path) == 0 {
		return nil
	}
	var v any = m
	for _, key := range path {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = obj[key]
	}
	return v
}
