package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"rate limit", &RateLimitError{Source: "github", RetryAfter: time.Minute}, true},
		{"network", &NetworkError{Source: "jira", Err: errors.New("timeout")}, true},
		{"wrapped rate limit", fmt.Errorf("fetch: %w", &RateLimitError{Source: "github"}), true},
		{"auth", ErrAuthFailed, false},
		{"permission", ErrPermissionDenied, false},
		{"validation", ErrValidation, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	err := fmt.Errorf("page 1: %w", &RateLimitError{Source: "github", RetryAfter: 90 * time.Second})
	assert.Equal(t, 90*time.Second, RetryAfter(err))
	assert.Equal(t, time.Duration(0), RetryAfter(errors.New("other")))
}

func TestNetworkError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &NetworkError{Source: "google_drive", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "google_drive")
}
