package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// Ensure MappingStore implements the interface.
var _ driven.MappingStore = (*MappingStore)(nil)

type mappingKey struct {
	artifactID string
	controlID  string
}

// MappingStore is an in-memory implementation of driven.MappingStore.
// Mappings carry no org scope of their own; ListForControl returns every
// mapping for the control and callers filter through the artifacts.
type MappingStore struct {
	mu       sync.RWMutex
	mappings map[mappingKey]domain.ControlMapping
}

// NewMappingStore creates a new in-memory mapping store.
func NewMappingStore() *MappingStore {
	return &MappingStore{
		mappings: make(map[mappingKey]domain.ControlMapping),
	}
}

// Upsert stores a mapping, updating any existing (artifact, control) row.
func (s *MappingStore) Upsert(_ context.Context, mapping *domain.ControlMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mappingKey{mapping.ArtifactID, mapping.ControlID}
	now := time.Now().UTC()

	if existing, ok := s.mappings[key]; ok {
		mapping.ID = existing.ID
		mapping.CreatedAt = existing.CreatedAt
	} else {
		if mapping.ID == "" {
			mapping.ID = uuid.NewString()
		}
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now
	s.mappings[key] = *mapping
	return nil
}

// ListForArtifact returns all mappings for an artifact.
func (s *MappingStore) ListForArtifact(_ context.Context, artifactID string) ([]domain.ControlMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.ControlMapping
	for key, m := range s.mappings {
		if key.artifactID == artifactID {
			result = append(result, m)
		}
	}
	return result, nil
}

// ListForControl returns all mappings to a control.
func (s *MappingStore) ListForControl(_ context.Context, _ string, controlID string) ([]domain.ControlMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.ControlMapping
	for key, m := range s.mappings {
		if key.controlID == controlID {
			result = append(result, m)
		}
	}
	return result, nil
}

// Delete removes a mapping.
func (s *MappingStore) Delete(_ context.Context, artifactID, controlID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mappings, mappingKey{artifactID, controlID})
	return nil
}
