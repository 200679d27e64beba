package driving

import (
	"context"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// SyncRunner drives the ingestion pipeline for one integration.
type SyncRunner interface {
	// RunSync executes one sync job over the integration's configured
	// resources for the given date range and returns the terminal job.
	// The returned error is non-nil only for failures to even start the
	// job (unknown integration, connector construction); pipeline
	// failures are reported through the job's status and error details.
	RunSync(ctx context.Context, integrationID string, dateRange domain.DateRange) (*domain.SyncJob, error)
}

// MappingService exposes artifact-to-control mapping operations.
type MappingService interface {
	// AutoMap scores a persisted artifact against every configured
	// control rule and persists the qualifying mappings.
	AutoMap(ctx context.Context, orgID, artifactID string) ([]domain.ControlMapping, error)

	// ManualMap records an operator-assigned mapping with confidence 1.0.
	ManualMap(ctx context.Context, orgID, artifactID, controlID, rationale string) (*domain.ControlMapping, error)
}

// CoverageReporter computes coverage and gap reports on demand.
type CoverageReporter interface {
	// PeriodCoverage computes month-granular coverage for one control.
	PeriodCoverage(ctx context.Context, orgID, controlID string, rng domain.DateRange) (*domain.PeriodCoverage, error)

	// AllControlsCoverage computes coverage for every configured control.
	AllControlsCoverage(ctx context.Context, orgID string, rng domain.DateRange) ([]domain.PeriodCoverage, error)

	// DetectGaps reports evidence deficiencies for one control.
	DetectGaps(ctx context.Context, orgID, controlID string, rng domain.DateRange) ([]domain.CoverageGap, error)
}
