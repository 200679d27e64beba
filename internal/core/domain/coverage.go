package domain

import "time"

// PeriodCoverage reports month-granular evidence coverage for one control
// over an audit period. It is derived on demand and never persisted.
type PeriodCoverage struct {
	ControlID   string
	ControlName string

	PeriodStart time.Time
	PeriodEnd   time.Time

	// MonthsCovered and MonthsMissing use "2006-01" keys, sorted ascending.
	MonthsCovered []string
	MonthsMissing []string

	// CoveragePercentage is |covered| / |all months| * 100, rounded to one
	// decimal place. Zero when the period spans no months.
	CoveragePercentage float64

	ArtifactCount int
	ApprovedCount int
}

// GapType classifies a detected evidence deficiency.
type GapType string

const (
	// GapMissingEvidence means a required artifact type has no mapped artifact.
	GapMissingEvidence GapType = "missing_evidence"
	// GapMissingApproval means mapped artifacts await operator approval.
	GapMissingApproval GapType = "missing_approval"
	// GapIncompletePeriod means a contiguous month range has no evidence.
	GapIncompletePeriod GapType = "incomplete_period"
)

// GapSeverity ranks how serious a gap is for the audit.
type GapSeverity string

const (
	// SeverityHigh gaps endanger the audit outcome.
	SeverityHigh GapSeverity = "high"
	// SeverityMedium gaps need attention before the audit.
	SeverityMedium GapSeverity = "medium"
	// SeverityLow gaps are informational.
	SeverityLow GapSeverity = "low"
)

// CoverageGap is one detected deficiency for a control. Derived, never
// persisted.
type CoverageGap struct {
	ControlID   string
	ControlName string

	Type     GapType
	Severity GapSeverity

	Description       string
	RecommendedAction string

	// AffectedStart and AffectedEnd bound the uncovered range for
	// incomplete_period gaps; nil otherwise.
	AffectedStart *time.Time
	AffectedEnd   *time.Time
}
