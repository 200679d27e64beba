package driven

import (
	"context"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// SyncJobStore persists sync job progress.
type SyncJobStore interface {
	// Save stores or updates a job.
	Save(ctx context.Context, job *domain.SyncJob) error

	// Get retrieves a job by ID.
	Get(ctx context.Context, jobID string) (*domain.SyncJob, error)

	// ListForIntegration returns jobs for an integration, newest first.
	ListForIntegration(ctx context.Context, integrationID string, limit int) ([]domain.SyncJob, error)
}

// IntegrationStore persists integration configuration.
type IntegrationStore interface {
	// Save stores or updates an integration.
	Save(ctx context.Context, integration *domain.Integration) error

	// Get retrieves an integration by ID.
	Get(ctx context.Context, integrationID string) (*domain.Integration, error)

	// List returns all integrations for an organization.
	List(ctx context.Context, orgID string) ([]domain.Integration, error)
}

// AuditStore persists append-only audit entries.
type AuditStore interface {
	// Append writes an entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *domain.AuditEntry) error

	// List returns entries for an organization, newest first.
	List(ctx context.Context, orgID string, limit int) ([]domain.AuditEntry, error)
}
