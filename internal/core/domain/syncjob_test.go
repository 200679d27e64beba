package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncJob_HappyPath(t *testing.T) {
	now := time.Now().UTC()
	job := &SyncJob{ID: "job-1", IntegrationID: "int-1", Status: JobPending}

	require.NoError(t, job.Start(now))
	assert.Equal(t, JobRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	require.NoError(t, job.Complete(now.Add(time.Minute), 10, 3))
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, 10, job.ArtifactsFound)
	assert.Equal(t, 3, job.ArtifactsCreated)
	require.NotNil(t, job.CompletedAt)
}

func TestSyncJob_FailureRecordsDetails(t *testing.T) {
	now := time.Now().UTC()
	job := &SyncJob{ID: "job-2", Status: JobPending}

	require.NoError(t, job.Start(now))

	details := &SyncError{
		ResourceID: "repo-9",
		Message:    "github: rate limit exceeded, retry after 1m0s",
		Retryable:  true,
		RetryAfter: 60,
	}
	require.NoError(t, job.Fail(now, 5, 2, details))

	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, details, job.ErrorDetails)
	assert.Equal(t, 5, job.ArtifactsFound)
}

func TestSyncJob_NoBackwardTransitions(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		prep func(j *SyncJob)
		call func(j *SyncJob) error
	}{
		{
			name: "completed cannot restart",
			prep: func(j *SyncJob) {
				require.NoError(t, j.Start(now))
				require.NoError(t, j.Complete(now, 0, 0))
			},
			call: func(j *SyncJob) error { return j.Start(now) },
		},
		{
			name: "failed cannot complete",
			prep: func(j *SyncJob) {
				require.NoError(t, j.Start(now))
				require.NoError(t, j.Fail(now, 0, 0, nil))
			},
			call: func(j *SyncJob) error { return j.Complete(now, 0, 0) },
		},
		{
			name: "running cannot restart",
			prep: func(j *SyncJob) {
				require.NoError(t, j.Start(now))
			},
			call: func(j *SyncJob) error { return j.Start(now) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &SyncJob{Status: JobPending}
			tt.prep(job)
			assert.ErrorIs(t, tt.call(job), ErrInvalidTransition)
		})
	}
}

func TestSyncJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobPending.IsTerminal())
	assert.False(t, JobRunning.IsTerminal())
	assert.True(t, JobCompleted.IsTerminal())
	assert.True(t, JobFailed.IsTerminal())
}
