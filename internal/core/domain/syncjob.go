package domain

import (
	"fmt"
	"time"
)

// SyncJobStatus is the state of a sync job. Transitions are one-way:
// pending -> running -> {completed, failed}.
type SyncJobStatus string

const (
	// JobPending means the job is created but not started.
	JobPending SyncJobStatus = "pending"
	// JobRunning means the job is processing resources.
	JobRunning SyncJobStatus = "running"
	// JobCompleted is the successful terminal state.
	JobCompleted SyncJobStatus = "completed"
	// JobFailed is the unsuccessful terminal state.
	JobFailed SyncJobStatus = "failed"
)

// rank orders statuses for monotonicity checks.
func (s SyncJobStatus) rank() int {
	switch s {
	case JobPending:
		return 0
	case JobRunning:
		return 1
	case JobCompleted, JobFailed:
		return 2
	}
	return -1
}

// IsTerminal reports whether the status permits no further transitions.
func (s SyncJobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// SyncError carries the structured failure details recorded on a failed job.
type SyncError struct {
	// ResourceID identifies the resource whose processing failed, if any.
	ResourceID string `json:"resource_id,omitempty"`
	// Message is the error text.
	Message string `json:"message"`
	// Retryable indicates whether a re-trigger after a delay may succeed.
	Retryable bool `json:"retryable"`
	// RetryAfter is the mandatory delay for rate-limit failures, in seconds.
	RetryAfter int64 `json:"retry_after_seconds,omitempty"`
}

// SyncJob records one execution of the ingestion pipeline against one
// integration's configured resources. Once terminal it is immutable.
type SyncJob struct {
	// ID is the unique identifier (UUID).
	ID string

	// IntegrationID links to the integration being synced.
	IntegrationID string

	// Status is the job state.
	Status SyncJobStatus

	// Timing.
	StartedAt   *time.Time
	CompletedAt *time.Time

	// Results.
	ArtifactsFound   int
	ArtifactsCreated int
	ErrorDetails     *SyncError

	CreatedAt time.Time
}

// Start transitions the job from pending to running.
func (j *SyncJob) Start(now time.Time) error {
	if err := j.transition(JobRunning); err != nil {
		return err
	}
	j.StartedAt = &now
	return nil
}

// Complete transitions the job to its successful terminal state and records
// the final counters.
func (j *SyncJob) Complete(now time.Time, found, created int) error {
	if err := j.transition(JobCompleted); err != nil {
		return err
	}
	j.CompletedAt = &now
	j.ArtifactsFound = found
	j.ArtifactsCreated = created
	return nil
}

// Fail transitions the job to its failed terminal state, recording the
// structured error and the counters accumulated so far.
func (j *SyncJob) Fail(now time.Time, found, created int, details *SyncError) error {
	if err := j.transition(JobFailed); err != nil {
		return err
	}
	j.CompletedAt = &now
	j.ArtifactsFound = found
	j.ArtifactsCreated = created
	j.ErrorDetails = details
	return nil
}

// transition enforces the monotonic state machine.
func (j *SyncJob) transition(to SyncJobStatus) error {
	if j.Status.IsTerminal() || to.rank() <= j.Status.rank() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}
	j.Status = to
	return nil
}
