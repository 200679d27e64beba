package driven

import (
	"context"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// MappingStore persists artifact-to-control mappings.
// At most one row exists per (artifact_id, control_id).
type MappingStore interface {
	// Upsert stores a mapping. An existing (artifact_id, control_id) row
	// is updated in place (confidence, rationale, source); re-running the
	// engine never duplicates.
	Upsert(ctx context.Context, mapping *domain.ControlMapping) error

	// ListForArtifact returns all mappings for an artifact.
	ListForArtifact(ctx context.Context, artifactID string) ([]domain.ControlMapping, error)

	// ListForControl returns all mappings to a control across an
	// organization's artifacts.
	ListForControl(ctx context.Context, orgID, controlID string) ([]domain.ControlMapping, error)

	// Delete removes a mapping.
	Delete(ctx context.Context, artifactID, controlID string) error
}
