package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// Ensure SyncJobStore implements the interface.
var _ driven.SyncJobStore = (*SyncJobStore)(nil)

// SyncJobStore is an in-memory implementation of driven.SyncJobStore.
type SyncJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.SyncJob
}

// NewSyncJobStore creates a new in-memory sync job store.
func NewSyncJobStore() *SyncJobStore {
	return &SyncJobStore{
		jobs: make(map[string]domain.SyncJob),
	}
}

// Save stores or updates a job.
func (s *SyncJobStore) Save(_ context.Context, job *domain.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

// Get retrieves a job by ID.
func (s *SyncJobStore) Get(_ context.Context, jobID string) (*domain.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

// ListForIntegration returns jobs for an integration, newest first.
func (s *SyncJobStore) ListForIntegration(_ context.Context, integrationID string, limit int) ([]domain.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SyncJob
	for _, job := range s.jobs {
		if job.IntegrationID == integrationID {
			result = append(result, job)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
