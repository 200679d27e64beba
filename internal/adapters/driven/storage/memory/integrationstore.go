package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// Ensure IntegrationStore implements the interface.
var _ driven.IntegrationStore = (*IntegrationStore)(nil)

// IntegrationStore is an in-memory implementation of driven.IntegrationStore.
type IntegrationStore struct {
	mu           sync.RWMutex
	integrations map[string]domain.Integration
}

// NewIntegrationStore creates a new in-memory integration store.
func NewIntegrationStore() *IntegrationStore {
	return &IntegrationStore{
		integrations: make(map[string]domain.Integration),
	}
}

// Save stores or updates an integration.
func (s *IntegrationStore) Save(_ context.Context, integration *domain.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrations[integration.ID] = *integration
	return nil
}

// Get retrieves an integration by ID.
func (s *IntegrationStore) Get(_ context.Context, integrationID string) (*domain.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	integration, ok := s.integrations[integrationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &integration, nil
}

// List returns all integrations for an organization.
func (s *IntegrationStore) List(_ context.Context, orgID string) ([]domain.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Integration
	for _, integration := range s.integrations {
		if integration.OrgID == orgID {
			result = append(result, integration)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
