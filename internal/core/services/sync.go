package services

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/attest-cli/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncRunner = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates evidence ingestion for one integration at a
// time. A resource-level failure aborts the job; artifacts persisted before
// the failure are kept.
type SyncOrchestrator struct {
	integrations driven.IntegrationStore
	jobs         driven.SyncJobStore
	artifacts    driven.ArtifactStore
	audit        driven.AuditStore
	factory      driven.ConnectorFactory
	normalizer   driven.Normalizer
	mapper       driving.MappingService

	mu     stdsync.Mutex
	active map[string]struct{}
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	integrations driven.IntegrationStore,
	jobs driven.SyncJobStore,
	artifacts driven.ArtifactStore,
	audit driven.AuditStore,
	factory driven.ConnectorFactory,
	normalizer driven.Normalizer,
	mapper driving.MappingService,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		integrations: integrations,
		jobs:         jobs,
		artifacts:    artifacts,
		audit:        audit,
		factory:      factory,
		normalizer:   normalizer,
		mapper:       mapper,
		active:       make(map[string]struct{}),
	}
}

// RunSync executes one sync job over the integration's configured resources
// for the given date range. Pipeline failures terminate the job as failed
// and are reported through its error details, not the returned error.
func (o *SyncOrchestrator) RunSync(ctx context.Context, integrationID string, dateRange domain.DateRange) (*domain.SyncJob, error) {
	integration, err := o.integrations.Get(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("get integration: %w", err)
	}

	if err := o.acquire(integrationID); err != nil {
		return nil, err
	}
	defer o.release(integrationID)

	connector, err := o.factory.Create(integration)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}

	now := time.Now().UTC()
	job := &domain.SyncJob{
		ID:            uuid.NewString(),
		IntegrationID: integration.ID,
		Status:        domain.JobPending,
		CreatedAt:     now,
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	if err := job.Start(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	o.appendAudit(ctx, integration, domain.AuditSyncStarted,
		fmt.Sprintf("Started sync for %s", integration.ConnectorType), nil)
	logger.Info("Starting sync for integration %s (%s)", integration.ID, integration.ConnectorType)

	found, created := 0, 0
	for _, resourceID := range integration.ResourceIDs {
		if err := ctx.Err(); err != nil {
			return o.failJob(ctx, integration, job, resourceID, found, created, err)
		}
		if err := o.syncResource(ctx, integration, connector, job, resourceID, dateRange, &found, &created); err != nil {
			return o.failJob(ctx, integration, job, resourceID, found, created, err)
		}
	}

	if err := job.Complete(time.Now().UTC(), found, created); err != nil {
		return nil, err
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	syncedAt := time.Now().UTC()
	integration.LastSyncAt = &syncedAt
	integration.LastError = ""
	if err := o.integrations.Save(ctx, integration); err != nil {
		return nil, fmt.Errorf("save integration: %w", err)
	}

	o.appendAudit(ctx, integration, domain.AuditSyncCompleted,
		fmt.Sprintf("Completed sync: %d new artifacts", created),
		map[string]string{
			"artifacts_found":   fmt.Sprintf("%d", found),
			"artifacts_created": fmt.Sprintf("%d", created),
		})
	logger.Info("Sync complete: %d found, %d created", found, created)
	return job, nil
}

// syncResource drains one resource's artifact stream into the store.
// Malformed artifacts are skipped with a warning; any other error aborts
// the resource and with it the job.
func (o *SyncOrchestrator) syncResource(
	ctx context.Context,
	integration *domain.Integration,
	connector driven.Connector,
	job *domain.SyncJob,
	resourceID string,
	dateRange domain.DateRange,
	found, created *int,
) error {
	logger.Debug("Syncing resource %s", resourceID)

	iter, err := connector.FetchArtifacts(ctx, resourceID, dateRange, nil)
	if err != nil {
		return fmt.Errorf("fetch artifacts: %w", err)
	}
	defer iter.Close()

	for {
		raw, err := iter.Next(ctx)
		if errors.Is(err, domain.ErrEndOfStream) {
			return nil
		}
		if errors.Is(err, domain.ErrValidation) {
			logger.Warn("Skipping malformed artifact from %s: %v", resourceID, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("next artifact: %w", err)
		}

		*found++
		if err := o.ingest(ctx, integration, job, raw, created); err != nil {
			return err
		}
	}
}

// ingest normalises, hashes and upserts one raw artifact, auto-mapping it
// on first sighting.
func (o *SyncOrchestrator) ingest(
	ctx context.Context,
	integration *domain.Integration,
	job *domain.SyncJob,
	raw *domain.RawArtifact,
	created *int,
) error {
	hash, err := domain.ContentHash(raw.RawContent)
	if err != nil {
		return fmt.Errorf("hash content: %w", err)
	}

	artifact := &domain.EvidenceArtifact{
		OrgID:           integration.OrgID,
		SyncJobID:       job.ID,
		SourceSystem:    raw.SourceSystem,
		SourceObjectID:  raw.SourceObjectID,
		SourceURL:       raw.SourceURL,
		SourceCreatedAt: raw.SourceCreatedAt,
		CapturedAt:      raw.CapturedAt,
		ContentHash:     hash,
		Type:            raw.Type,
		Title:           raw.Title,
		RawContent:      raw.RawContent,
		Normalized:      o.normalizer.Normalize(raw),
		PeriodStart:     raw.PeriodStart,
		PeriodEnd:       raw.PeriodEnd,
		ApprovalStatus:  domain.ApprovalPending,
	}

	isNew, err := o.artifacts.Upsert(ctx, artifact)
	if err != nil {
		return fmt.Errorf("upsert artifact %s: %w", raw.SourceObjectID, err)
	}
	if !isNew {
		return nil
	}

	*created++
	if _, err := o.mapper.AutoMap(ctx, integration.OrgID, artifact.ID); err != nil {
		return fmt.Errorf("auto-map artifact %s: %w", raw.SourceObjectID, err)
	}
	return nil
}

// failJob terminates the job as failed with structured error details.
// Artifacts ingested before the failure stay persisted.
func (o *SyncOrchestrator) failJob(
	ctx context.Context,
	integration *domain.Integration,
	job *domain.SyncJob,
	resourceID string,
	found, created int,
	cause error,
) (*domain.SyncJob, error) {
	// The failure must be persisted even when the cause is the caller's
	// own cancellation.
	ctx = context.WithoutCancel(ctx)

	details := &domain.SyncError{
		ResourceID: resourceID,
		Message:    cause.Error(),
		Retryable:  domain.IsRetryable(cause),
	}
	if delay := domain.RetryAfter(cause); delay > 0 {
		details.RetryAfter = int64(delay.Seconds())
	}

	if err := job.Fail(time.Now().UTC(), found, created, details); err != nil {
		return nil, err
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	integration.LastError = cause.Error()
	if err := o.integrations.Save(ctx, integration); err != nil {
		return nil, fmt.Errorf("save integration: %w", err)
	}

	o.appendAudit(ctx, integration, domain.AuditSyncFailed,
		fmt.Sprintf("Sync failed: %v", cause),
		map[string]string{"resource_id": resourceID})
	logger.Error("Sync failed on resource %s: %v", resourceID, cause)
	return job, nil
}

func (o *SyncOrchestrator) appendAudit(
	ctx context.Context,
	integration *domain.Integration,
	event domain.AuditEventType,
	description string,
	detail map[string]string,
) {
	entry := &domain.AuditEntry{
		ID:          uuid.NewString(),
		OrgID:       integration.OrgID,
		EventType:   event,
		EntityType:  "integration",
		EntityID:    integration.ID,
		Description: description,
		Detail:      detail,
		OccurredAt:  time.Now().UTC(),
	}
	if err := o.audit.Append(ctx, entry); err != nil {
		logger.Warn("Failed to append audit entry: %v", err)
	}
}

// acquire claims the per-integration sync slot.
func (o *SyncOrchestrator) acquire(integrationID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, running := o.active[integrationID]; running {
		return fmt.Errorf("%w: integration %s", domain.ErrSyncInProgress, integrationID)
	}
	o.active[integrationID] = struct{}{}
	return nil
}

func (o *SyncOrchestrator) release(integrationID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, integrationID)
}
