package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// wrapError classifies go-github errors into domain errors so the sync
// loop can decide between abort, skip and retry.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rleErr *gh.RateLimitError
	if errors.As(err, &rleErr) {
		return &domain.RateLimitError{
			Source:     "github",
			RetryAfter: time.Until(rleErr.Rate.Reset.Time),
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		retryAfter := time.Minute
		if abuseErr.RetryAfter != nil {
			retryAfter = *abuseErr.RetryAfter
		}
		return &domain.RateLimitError{
			Source:     "github",
			RetryAfter: retryAfter,
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: github: %s", domain.ErrAuthFailed, ghErr.Message)
		case http.StatusForbidden:
			return fmt.Errorf("%w: github: %s", domain.ErrPermissionDenied, ghErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: github: %s", domain.ErrNotFound, ghErr.Message)
		}
	}

	return &domain.NetworkError{
		Source: "github",
		Err:    fmt.Errorf("%s: %w", operation, err),
	}
}
