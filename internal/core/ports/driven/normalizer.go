package driven

import "github.com/custodia-labs/attest-cli/internal/core/domain"

// Normalizer maps raw artifacts to the canonical content structure. It is
// total and side-effect free: unknown (source system, artifact type) pairs
// pass the raw payload through unchanged rather than failing.
type Normalizer interface {
	// Normalize produces the canonical content for a raw artifact.
	Normalize(raw *domain.RawArtifact) domain.NormalizedContent
}
