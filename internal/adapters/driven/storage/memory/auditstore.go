package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// Ensure AuditStore implements the interface.
var _ driven.AuditStore = (*AuditStore)(nil)

// AuditStore is an in-memory implementation of driven.AuditStore.
// Entries are kept in append order.
type AuditStore struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Append writes an entry.
func (s *AuditStore) Append(_ context.Context, entry *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.entries = append(s.entries, *entry)
	return nil
}

// List returns entries for an organization, newest first.
func (s *AuditStore) List(_ context.Context, orgID string, limit int) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.AuditEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].OrgID != orgID {
			continue
		}
		result = append(result, s.entries[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
