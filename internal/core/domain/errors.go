package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown connector or artifact type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEndOfStream signals that an artifact iterator is exhausted.
	// It is a control-flow sentinel, not a failure.
	ErrEndOfStream = errors.New("end of stream")

	// ErrInvalidTransition indicates a sync job state change that would
	// move backwards (e.g. completed -> running).
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrSyncInProgress indicates a sync is already running for an integration.
	ErrSyncInProgress = errors.New("sync in progress")

	// Authentication and authorization errors. Both are non-retryable:
	// they require operator action (re-auth or scope grant), not a retry.

	// ErrAuthFailed indicates invalid or expired credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrPermissionDenied indicates the credentials lack required scopes.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTokenRefreshFailed indicates a token refresh operation failed.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrValidation indicates a malformed artifact payload. The sync loop
	// skips the offending artifact with a warning instead of failing the job.
	ErrValidation = errors.New("artifact validation failed")
)

// RateLimitError indicates the source API rejected a request due to rate
// limiting. RetryAfter is the mandatory delay before the next attempt.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded, retry after %s", e.Source, e.RetryAfter)
}

// NetworkError indicates a generic transient failure talking to a source
// system. Retryable with backoff.
type NetworkError struct {
	Source string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Source, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRateLimited checks whether err carries a rate-limit signal.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// RetryAfter extracts the rate-limit delay from err, or zero if err is not
// a rate-limit signal.
func RetryAfter(err error) time.Duration {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter
	}
	return 0
}

// IsRetryable reports whether a failed operation may be retried by the
// caller. Rate limits (after their delay) and transient network failures
// are retryable; auth and permission failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	return false
}
