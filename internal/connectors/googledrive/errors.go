package googledrive

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// wrapError classifies Drive API errors into domain errors. Google signals
// quota exhaustion as 403 with a rate-limit reason, not only as 429.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: google_drive: %s", domain.ErrAuthFailed, apiErr.Message)
		case http.StatusForbidden:
			if isRateLimitReason(apiErr) {
				return &domain.RateLimitError{Source: "google_drive", RetryAfter: retryAfter(apiErr)}
			}
			return fmt.Errorf("%w: google_drive: %s", domain.ErrPermissionDenied, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: google_drive: %s", domain.ErrNotFound, apiErr.Message)
		case http.StatusTooManyRequests:
			return &domain.RateLimitError{Source: "google_drive", RetryAfter: retryAfter(apiErr)}
		}
	}

	return &domain.NetworkError{
		Source: "google_drive",
		Err:    fmt.Errorf("%s: %w", operation, err),
	}
}

func isRateLimitReason(apiErr *googleapi.Error) bool {
	for _, e := range apiErr.Errors {
		switch e.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}

func retryAfter(apiErr *googleapi.Error) time.Duration {
	if apiErr.Header != nil {
		if v := apiErr.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return time.Minute
}
