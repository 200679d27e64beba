package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentHash computes the SHA-256 integrity hash over an artifact's raw
// content. The content is serialised with map keys in sorted order (the
// behaviour of encoding/json for maps), so the hash depends only on the
// evidentiary facts, never on field ordering.
func ContentHash(content map[string]any) (string, error) {
	b, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("marshal content: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
