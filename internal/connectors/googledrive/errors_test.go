package googledrive

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, wrapError(nil, "noop"))
}

func TestWrapErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrAuthFailed},
		{"forbidden", http.StatusForbidden, domain.ErrPermissionDenied},
		{"not found", http.StatusNotFound, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapError(&googleapi.Error{Code: tt.code, Message: "nope"}, "list files")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWrapErrorQuotaForbidden(t *testing.T) {
	apiErr := &googleapi.Error{
		Code: http.StatusForbidden,
		Errors: []googleapi.ErrorItem{
			{Reason: "userRateLimitExceeded"},
		},
	}

	err := wrapError(apiErr, "list files")

	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "google_drive", rle.Source)
	assert.Equal(t, time.Minute, rle.RetryAfter)
}

func TestWrapErrorTooManyRequests(t *testing.T) {
	apiErr := &googleapi.Error{
		Code:   http.StatusTooManyRequests,
		Header: http.Header{"Retry-After": {"45"}},
	}

	err := wrapError(apiErr, "list files")

	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 45*time.Second, rle.RetryAfter)
	assert.True(t, domain.IsRetryable(err))
}

func TestWrapErrorNetwork(t *testing.T) {
	err := wrapError(errors.New("connection refused"), "list files")

	var ne *domain.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "google_drive", ne.Source)
	assert.True(t, domain.IsRetryable(err))
}
