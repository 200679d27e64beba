package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// mockSyncRunner implements driving.SyncRunner for testing.
type mockSyncRunner struct {
	job      *domain.SyncJob
	err      error
	gotID    string
	gotRange domain.DateRange
}

func (m *mockSyncRunner) RunSync(_ context.Context, integrationID string, rng domain.DateRange) (*domain.SyncJob, error) {
	m.gotID = integrationID
	m.gotRange = rng
	return m.job, m.err
}

func completedJob() *domain.SyncJob {
	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(3 * time.Second)
	return &domain.SyncJob{
		ID:               "job-1",
		IntegrationID:    "int-1",
		Status:           domain.JobCompleted,
		StartedAt:        &started,
		CompletedAt:      &completed,
		ArtifactsFound:   12,
		ArtifactsCreated: 5,
		CreatedAt:        started,
	}
}

func setupSyncTest(runner *mockSyncRunner) func() {
	oldRunner := syncRunner
	syncRunner = runner
	return func() {
		syncRunner = oldRunner
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [integration-id]", syncCmd.Use)
}

func TestSyncCmd_Short(t *testing.T) {
	assert.Equal(t, "Sync evidence artifacts from a connected system", syncCmd.Short)
}

func TestSyncCmd_ReportsCompletedJob(t *testing.T) {
	runner := &mockSyncRunner{job: completedJob()}
	cleanup := setupSyncTest(runner)
	defer cleanup()

	out, err := execute(t, "sync", "int-1", "--from", "2024-01-01", "--to", "2024-06-30")

	assert.NoError(t, err)
	assert.Equal(t, "int-1", runner.gotID)
	assert.Equal(t, 2024, runner.gotRange.Start.Year())
	assert.Contains(t, out, "Job job-1")
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "12 found, 5 created")
}

func TestSyncCmd_FailedJobReturnsError(t *testing.T) {
	job := completedJob()
	job.Status = domain.JobFailed
	job.ErrorDetails = &domain.SyncError{
		ResourceID: "acme/api",
		Message:    "rate limited by github",
		Retryable:  true,
		RetryAfter: 120,
	}
	cleanup := setupSyncTest(&mockSyncRunner{job: job})
	defer cleanup()

	out, err := execute(t, "sync", "int-1")

	assert.Error(t, err)
	assert.Contains(t, out, "rate limited by github")
	assert.Contains(t, out, "Retry after: 120s")
	assert.Contains(t, out, "Resource: acme/api")
}

func TestSyncCmd_RejectsBadDate(t *testing.T) {
	cleanup := setupSyncTest(&mockSyncRunner{job: completedJob()})
	defer cleanup()

	_, err := execute(t, "sync", "int-1", "--from", "June 1st")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --from date")
}

func TestSyncCmd_RejectsInvertedRange(t *testing.T) {
	cleanup := setupSyncTest(&mockSyncRunner{job: completedJob()})
	defer cleanup()

	_, err := execute(t, "sync", "int-1", "--from", "2024-06-01", "--to", "2024-01-01")

	assert.Error(t, err)
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	oldRunner := syncRunner
	syncRunner = nil
	defer func() {
		syncRunner = oldRunner
	}()

	_, err := execute(t, "sync", "int-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestJobsCmd_ListsNewestFirst(t *testing.T) {
	store := newJobStoreWith(t, "int-1", 3)
	oldStore := syncJobStore
	syncJobStore = store
	defer func() {
		syncJobStore = oldStore
	}()

	out, err := execute(t, "jobs", "int-1", "--limit", "2")

	assert.NoError(t, err)
	assert.Contains(t, out, "Job job-2")
	assert.Contains(t, out, "Job job-1")
	assert.NotContains(t, out, "Job job-0")
}

func TestJobsCmd_EmptyIntegration(t *testing.T) {
	store := newJobStoreWith(t, "int-1", 0)
	oldStore := syncJobStore
	syncJobStore = store
	defer func() {
		syncJobStore = oldStore
	}()

	out, err := execute(t, "jobs", "int-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "No sync jobs")
}
