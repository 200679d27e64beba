// Package normalize maps raw source payloads to the canonical evidence
// content structure. The registry dispatches on (source system, artifact
// type); per-source subpackages hold the field mappings. Unknown pairs pass
// the raw payload through unchanged.
package normalize
