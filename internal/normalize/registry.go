package normalize

import (
	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/attest-cli/internal/normalize/github"
	"github.com/custodia-labs/attest-cli/internal/normalize/googledrive"
	"github.com/custodia-labs/attest-cli/internal/normalize/jira"
)

// Ensure Registry implements the interface.
var _ driven.Normalizer = (*Registry)(nil)

// normalizeFunc maps one raw artifact shape to canonical content.
type normalizeFunc func(raw *domain.RawArtifact) domain.NormalizedContent

// contentKey dispatches on source system and artifact type.
type contentKey struct {
	source string
	typ    domain.ArtifactType
}

// Registry is the static normalisation table. The key set is closed at
// construction; there is no runtime registration.
type Registry struct {
	funcs map[contentKey]normalizeFunc
}

// NewRegistry builds the registry covering every known
// (source system, artifact type) pair.
func NewRegistry() *Registry {
	return &Registry{
		funcs: map[contentKey]normalizeFunc{
			{"github", domain.ArtifactPullRequest}:        github.NormalizePullRequest,
			{"github", domain.ArtifactCodeReview}:         github.NormalizeCodeReview,
			{"jira", domain.ArtifactJiraIssue}:            jira.NormalizeIssue,
			{"google_drive", domain.ArtifactDocument}:     googledrive.NormalizeDocument,
			{"google_drive", domain.ArtifactPolicy}:       googledrive.NormalizeDocument,
			{"google_drive", domain.ArtifactMeetingNotes}: googledrive.NormalizeDocument,
			{"google_drive", domain.ArtifactSpreadsheet}:  googledrive.NormalizeDocument,
		},
	}
}

// Normalize produces canonical content for a raw artifact. Unknown pairs
// pass the raw payload through unchanged.
func (r *Registry) Normalize(raw *domain.RawArtifact) domain.NormalizedContent {
	if fn, ok := r.funcs[contentKey{raw.SourceSystem, raw.Type}]; ok {
		return fn(raw)
	}
	return domain.NormalizedContent{
		Kind: domain.ContentRaw,
		Raw:  raw.RawContent,
	}
}
