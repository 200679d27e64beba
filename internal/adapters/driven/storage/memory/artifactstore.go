package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

type sourceKey struct {
	orgID          string
	sourceSystem   string
	sourceObjectID string
}

// ArtifactStore is an in-memory implementation of driven.ArtifactStore.
// ListByControl consults the mapping store it was constructed with.
type ArtifactStore struct {
	mu        sync.RWMutex
	artifacts map[string]domain.EvidenceArtifact
	bySource  map[sourceKey]string
	mappings  *MappingStore
}

// NewArtifactStore creates a new in-memory artifact store. The mapping
// store backs ListByControl and may be shared with the mapping engine.
func NewArtifactStore(mappings *MappingStore) *ArtifactStore {
	return &ArtifactStore{
		artifacts: make(map[string]domain.EvidenceArtifact),
		bySource:  make(map[sourceKey]string),
		mappings:  mappings,
	}
}

// Upsert inserts or updates an artifact by its source identity.
func (s *ArtifactStore) Upsert(_ context.Context, artifact *domain.EvidenceArtifact) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sourceKey{artifact.OrgID, artifact.SourceSystem, artifact.SourceObjectID}
	now := time.Now().UTC()

	if id, ok := s.bySource[key]; ok {
		existing := s.artifacts[id]
		artifact.ID = existing.ID
		if existing.ContentHash == artifact.ContentHash {
			*artifact = existing
			return false, nil
		}
		// Identity, approval status and mappings are untouched on content
		// change; everything content-derived is refreshed.
		existing.RawContent = artifact.RawContent
		existing.Normalized = artifact.Normalized
		existing.ContentHash = artifact.ContentHash
		existing.Title = artifact.Title
		existing.SourceURL = artifact.SourceURL
		existing.CapturedAt = artifact.CapturedAt
		existing.PeriodStart = artifact.PeriodStart
		existing.PeriodEnd = artifact.PeriodEnd
		existing.UpdatedAt = now
		s.artifacts[id] = existing
		*artifact = existing
		return false, nil
	}

	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	if artifact.ApprovalStatus == "" {
		artifact.ApprovalStatus = domain.ApprovalPending
	}
	artifact.CreatedAt = now
	artifact.UpdatedAt = now
	s.artifacts[artifact.ID] = *artifact
	s.bySource[key] = artifact.ID
	return true, nil
}

// Get retrieves an artifact by ID, scoped to an organization.
func (s *ArtifactStore) Get(_ context.Context, orgID, artifactID string) (*domain.EvidenceArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.artifacts[artifactID]
	if !ok || artifact.OrgID != orgID {
		return nil, domain.ErrNotFound
	}
	return &artifact, nil
}

// GetBySource retrieves an artifact by its source identity.
func (s *ArtifactStore) GetBySource(_ context.Context, orgID, sourceSystem, sourceObjectID string) (*domain.EvidenceArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySource[sourceKey{orgID, sourceSystem, sourceObjectID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	artifact := s.artifacts[id]
	return &artifact, nil
}

// List returns artifacts for an organization, newest captured first.
func (s *ArtifactStore) List(_ context.Context, orgID string, filter driven.ArtifactFilter) ([]domain.EvidenceArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.EvidenceArtifact
	for _, a := range s.artifacts {
		if a.OrgID != orgID {
			continue
		}
		if filter.SourceSystem != "" && a.SourceSystem != filter.SourceSystem {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.ApprovalStatus != "" && a.ApprovalStatus != filter.ApprovalStatus {
			continue
		}
		result = append(result, a)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CapturedAt.After(result[j].CapturedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// ListByControl returns artifacts mapped to a control whose own period lies
// within the given range.
func (s *ArtifactStore) ListByControl(ctx context.Context, orgID, controlID string, rng domain.DateRange) ([]domain.EvidenceArtifact, error) {
	mappings, err := s.mappings.ListForControl(ctx, orgID, controlID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.EvidenceArtifact
	for _, m := range mappings {
		a, ok := s.artifacts[m.ArtifactID]
		if !ok || a.OrgID != orgID {
			continue
		}
		if !a.CoversPeriod(rng) {
			continue
		}
		result = append(result, a)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CapturedAt.After(result[j].CapturedAt)
	})
	return result, nil
}

// SetApprovalStatus records an operator review decision.
func (s *ArtifactStore) SetApprovalStatus(_ context.Context, orgID, artifactID string, status domain.ApprovalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifact, ok := s.artifacts[artifactID]
	if !ok || artifact.OrgID != orgID {
		return domain.ErrNotFound
	}
	artifact.ApprovalStatus = status
	artifact.UpdatedAt = time.Now().UTC()
	s.artifacts[artifactID] = artifact
	return nil
}
