package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driving"
)

// monthKey is the format for coverage month identifiers.
const monthKey = "2006-01"

// Ensure CoverageAnalyzer implements the interface.
var _ driving.CoverageReporter = (*CoverageAnalyzer)(nil)

// CoverageAnalyzer computes month-granular coverage and detects evidence
// gaps. Reports are derived on demand and never persisted.
type CoverageAnalyzer struct {
	artifacts driven.ArtifactStore
	rules     []domain.ControlRule
}

// NewCoverageAnalyzer creates a coverage analyzer over the given rule set.
func NewCoverageAnalyzer(artifacts driven.ArtifactStore, rules []domain.ControlRule) *CoverageAnalyzer {
	return &CoverageAnalyzer{
		artifacts: artifacts,
		rules:     rules,
	}
}

// PeriodCoverage computes coverage for one control over the period.
func (c *CoverageAnalyzer) PeriodCoverage(ctx context.Context, orgID, controlID string, rng domain.DateRange) (*domain.PeriodCoverage, error) {
	rule := c.ruleFor(controlID)
	if rule == nil {
		return nil, fmt.Errorf("%w: unknown control %q", domain.ErrNotFound, controlID)
	}
	return c.coverControl(ctx, orgID, rule, rng)
}

// AllControlsCoverage computes coverage for every configured control.
func (c *CoverageAnalyzer) AllControlsCoverage(ctx context.Context, orgID string, rng domain.DateRange) ([]domain.PeriodCoverage, error) {
	result := make([]domain.PeriodCoverage, 0, len(c.rules))
	for i := range c.rules {
		coverage, err := c.coverControl(ctx, orgID, &c.rules[i], rng)
		if err != nil {
			return nil, err
		}
		result = append(result, *coverage)
	}
	return result, nil
}

// DetectGaps reports evidence deficiencies for one control in a period:
// missing artifact types, artifacts awaiting approval, and contiguous
// month ranges with no evidence at all.
func (c *CoverageAnalyzer) DetectGaps(ctx context.Context, orgID, controlID string, rng domain.DateRange) ([]domain.CoverageGap, error) {
	rule := c.ruleFor(controlID)
	if rule == nil {
		return nil, fmt.Errorf("%w: unknown control %q", domain.ErrNotFound, controlID)
	}

	artifacts, err := c.artifacts.ListByControl(ctx, orgID, controlID, rng)
	if err != nil {
		return nil, fmt.Errorf("list artifacts for %s: %w", controlID, err)
	}

	var gaps []domain.CoverageGap

	// Required artifact types with no mapped evidence.
	foundTypes := make(map[domain.ArtifactType]bool)
	for i := range artifacts {
		foundTypes[artifacts[i].Type] = true
	}
	var missingTypes []string
	for _, t := range rule.ArtifactTypes {
		if !foundTypes[t] {
			missingTypes = append(missingTypes, string(t))
		}
	}
	if len(missingTypes) > 0 {
		severity := domain.SeverityMedium
		if len(missingTypes) > 1 {
			severity = domain.SeverityHigh
		}
		gaps = append(gaps, domain.CoverageGap{
			ControlID:         rule.ControlID,
			ControlName:       rule.Name,
			Type:              domain.GapMissingEvidence,
			Severity:          severity,
			Description:       "Missing evidence types: " + strings.Join(missingTypes, ", "),
			RecommendedAction: "Collect " + strings.Join(missingTypes, ", ") + " artifacts from source systems",
		})
	}

	// Mapped artifacts still awaiting operator approval.
	unapproved := 0
	for i := range artifacts {
		if artifacts[i].ApprovalStatus != domain.ApprovalApproved {
			unapproved++
		}
	}
	if unapproved > 0 {
		gaps = append(gaps, domain.CoverageGap{
			ControlID:         rule.ControlID,
			ControlName:       rule.Name,
			Type:              domain.GapMissingApproval,
			Severity:          domain.SeverityMedium,
			Description:       fmt.Sprintf("%d artifacts pending approval", unapproved),
			RecommendedAction: "Review and approve pending artifacts before audit",
		})
	}

	// Contiguous month ranges with no evidence. Serious for a Type 2 audit.
	for _, monthGap := range c.findPeriodGaps(artifacts, rng) {
		start, end := monthGap.start, monthGap.end
		gaps = append(gaps, domain.CoverageGap{
			ControlID:   rule.ControlID,
			ControlName: rule.Name,
			Type:        domain.GapIncompletePeriod,
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("No evidence from %s to %s",
				start.Format("2006-01-02"), end.Format("2006-01-02")),
			RecommendedAction: fmt.Sprintf("Collect evidence covering %s to %s",
				start.Format("2006-01-02"), end.Format("2006-01-02")),
			AffectedStart: &start,
			AffectedEnd:   &end,
		})
	}

	return gaps, nil
}

func (c *CoverageAnalyzer) coverControl(ctx context.Context, orgID string, rule *domain.ControlRule, rng domain.DateRange) (*domain.PeriodCoverage, error) {
	artifacts, err := c.artifacts.ListByControl(ctx, orgID, rule.ControlID, rng)
	if err != nil {
		return nil, fmt.Errorf("list artifacts for %s: %w", rule.ControlID, err)
	}

	allMonths := monthsInRange(rng.Start, rng.End)
	covered := coveredMonths(artifacts)

	var monthsCovered, monthsMissing []string
	for _, m := range allMonths {
		if covered[m] {
			monthsCovered = append(monthsCovered, m)
		} else {
			monthsMissing = append(monthsMissing, m)
		}
	}

	var pct float64
	if len(allMonths) > 0 {
		pct = math.Round(float64(len(monthsCovered))/float64(len(allMonths))*1000) / 10
	}

	approved := 0
	for i := range artifacts {
		if artifacts[i].ApprovalStatus == domain.ApprovalApproved {
			approved++
		}
	}

	return &domain.PeriodCoverage{
		ControlID:          rule.ControlID,
		ControlName:        rule.Name,
		PeriodStart:        rng.Start,
		PeriodEnd:          rng.End,
		MonthsCovered:      monthsCovered,
		MonthsMissing:      monthsMissing,
		CoveragePercentage: pct,
		ArtifactCount:      len(artifacts),
		ApprovedCount:      approved,
	}, nil
}

type monthRange struct {
	start time.Time
	end   time.Time
}

// findPeriodGaps groups the uncovered months into contiguous ranges.
// Each range runs from the first day of its first month to the last
// calendar day of its last month.
func (c *CoverageAnalyzer) findPeriodGaps(artifacts []domain.EvidenceArtifact, rng domain.DateRange) []monthRange {
	allMonths := monthsInRange(rng.Start, rng.End)
	covered := coveredMonths(artifacts)

	var missing []string
	for _, m := range allMonths {
		if !covered[m] {
			missing = append(missing, m)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var gaps []monthRange
	gapStart := missing[0]
	prev := missing[0]

	for _, month := range missing[1:] {
		if !consecutiveMonths(prev, month) {
			gaps = append(gaps, makeMonthRange(gapStart, prev))
			gapStart = month
		}
		prev = month
	}
	gaps = append(gaps, makeMonthRange(gapStart, prev))
	return gaps
}

func (c *CoverageAnalyzer) ruleFor(controlID string) *domain.ControlRule {
	for i := range c.rules {
		if c.rules[i].ControlID == controlID {
			return &c.rules[i]
		}
	}
	return nil
}

// coveredMonths unions the month keys spanned by each artifact's period.
// Artifacts without a period cover nothing.
func coveredMonths(artifacts []domain.EvidenceArtifact) map[string]bool {
	covered := make(map[string]bool)
	for i := range artifacts {
		a := &artifacts[i]
		if a.PeriodStart == nil || a.PeriodEnd == nil {
			continue
		}
		for _, m := range monthsInRange(*a.PeriodStart, *a.PeriodEnd) {
			covered[m] = true
		}
	}
	return covered
}

// monthsInRange lists the month keys between two dates, inclusive, sorted
// ascending.
func monthsInRange(start, end time.Time) []string {
	var months []string
	current := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)

	for !current.After(last) {
		months = append(months, current.Format(monthKey))
		current = current.AddDate(0, 1, 0)
	}
	sort.Strings(months)
	return months
}

// consecutiveMonths reports whether b is the month right after a.
func consecutiveMonths(a, b string) bool {
	ta, err := time.Parse(monthKey, a)
	if err != nil {
		return false
	}
	tb, err := time.Parse(monthKey, b)
	if err != nil {
		return false
	}
	return ta.AddDate(0, 1, 0).Equal(tb)
}

// makeMonthRange bounds a gap from the first day of the start month to the
// true last calendar day of the end month.
func makeMonthRange(startMonth, endMonth string) monthRange {
	start, _ := time.Parse(monthKey, startMonth)
	end, _ := time.Parse(monthKey, endMonth)
	return monthRange{
		start: start,
		end:   end.AddDate(0, 1, -1),
	}
}
