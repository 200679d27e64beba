package driven

import (
	"context"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// ArtifactFilter narrows artifact listings.
type ArtifactFilter struct {
	SourceSystem   string
	Type           domain.ArtifactType
	ApprovalStatus domain.ApprovalStatus
	Limit          int
	Offset         int
}

// ArtifactStore persists evidence artifacts idempotently.
//
// Implementations must enforce the uniqueness of
// (org_id, source_system, source_object_id) atomically: a storage-level
// uniqueness constraint plus a single upsert transaction, so concurrent
// syncs of the same resource can neither duplicate a row nor silently lose
// a write.
type ArtifactStore interface {
	// Upsert inserts the artifact on first sighting of its source identity
	// and returns created=true. If the identity exists with an equal
	// content hash the call is a no-op. If the hash differs, raw content,
	// normalised content, hash and captured_at are updated in place;
	// identity, approvals and mappings are untouched. On return the
	// artifact's ID reflects the persisted row.
	Upsert(ctx context.Context, artifact *domain.EvidenceArtifact) (created bool, err error)

	// Get retrieves an artifact by ID, scoped to an organization.
	Get(ctx context.Context, orgID, artifactID string) (*domain.EvidenceArtifact, error)

	// GetBySource retrieves an artifact by its source identity.
	GetBySource(ctx context.Context, orgID, sourceSystem, sourceObjectID string) (*domain.EvidenceArtifact, error)

	// List returns artifacts for an organization, newest captured first.
	List(ctx context.Context, orgID string, filter ArtifactFilter) ([]domain.EvidenceArtifact, error)

	// ListByControl returns artifacts mapped to a control whose own period
	// lies within the given range.
	ListByControl(ctx context.Context, orgID, controlID string, rng domain.DateRange) ([]domain.EvidenceArtifact, error)

	// SetApprovalStatus records an operator review decision.
	SetApprovalStatus(ctx context.Context, orgID, artifactID string, status domain.ApprovalStatus) error
}
