package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/attest-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

type coverageFixture struct {
	analyzer  *CoverageAnalyzer
	artifacts *memory.ArtifactStore
	mappings  *memory.MappingStore
	nextID    int
}

func newCoverageFixture() *coverageFixture {
	mappings := memory.NewMappingStore()
	artifacts := memory.NewArtifactStore(mappings)
	return &coverageFixture{
		analyzer:  NewCoverageAnalyzer(artifacts, domain.DefaultControlRules()),
		artifacts: artifacts,
		mappings:  mappings,
	}
}

// addEvidence persists one artifact covering a single day and maps it to
// the control.
func (f *coverageFixture) addEvidence(t *testing.T, controlID string, typ domain.ArtifactType, day time.Time, approved bool) {
	t.Helper()
	ctx := context.Background()

	f.nextID++
	artifact := &domain.EvidenceArtifact{
		OrgID:          "org-1",
		SourceSystem:   "github",
		SourceObjectID: fmt.Sprintf("evidence-%d", f.nextID),
		ContentHash:    fmt.Sprintf("hash-%d", f.nextID),
		Type:           typ,
		Title:          "Evidence " + day.Format("2006-01-02"),
		CapturedAt:     time.Now().UTC(),
		PeriodStart:    &day,
		PeriodEnd:      &day,
	}
	if approved {
		artifact.ApprovalStatus = domain.ApprovalApproved
	}
	_, err := f.artifacts.Upsert(ctx, artifact)
	require.NoError(t, err)

	require.NoError(t, f.mappings.Upsert(ctx, &domain.ControlMapping{
		ArtifactID: artifact.ID,
		ControlID:  controlID,
		Source:     domain.MappingAuto,
		Confidence: 0.8,
	}))
}

func halfYear2024() domain.DateRange {
	return domain.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodCoverage(t *testing.T) {
	f := newCoverageFixture()
	f.addEvidence(t, "CC7.1", domain.ArtifactPullRequest, day(2024, time.January, 15), true)
	f.addEvidence(t, "CC7.1", domain.ArtifactJiraIssue, day(2024, time.March, 3), false)

	coverage, err := f.analyzer.PeriodCoverage(context.Background(), "org-1", "CC7.1", halfYear2024())
	require.NoError(t, err)

	assert.Equal(t, "CC7.1", coverage.ControlID)
	assert.Equal(t, "Change Management", coverage.ControlName)
	assert.Equal(t, []string{"2024-01", "2024-03"}, coverage.MonthsCovered)
	assert.Equal(t, []string{"2024-02", "2024-04", "2024-05", "2024-06"}, coverage.MonthsMissing)
	assert.InDelta(t, 33.3, coverage.CoveragePercentage, 0.001)
	assert.Equal(t, 2, coverage.ArtifactCount)
	assert.Equal(t, 1, coverage.ApprovedCount)
}

func TestPeriodCoverageFull(t *testing.T) {
	f := newCoverageFixture()
	for m := time.January; m <= time.June; m++ {
		f.addEvidence(t, "CC7.1", domain.ArtifactPullRequest, day(2024, m, 10), true)
	}

	coverage, err := f.analyzer.PeriodCoverage(context.Background(), "org-1", "CC7.1", halfYear2024())
	require.NoError(t, err)

	assert.Empty(t, coverage.MonthsMissing)
	assert.Len(t, coverage.MonthsCovered, 6)
	assert.Equal(t, 100.0, coverage.CoveragePercentage)
}

func TestPeriodCoverageUnknownControl(t *testing.T) {
	f := newCoverageFixture()

	_, err := f.analyzer.PeriodCoverage(context.Background(), "org-1", "XX9.9", halfYear2024())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAllControlsCoverage(t *testing.T) {
	f := newCoverageFixture()
	f.addEvidence(t, "CC7.2", domain.ArtifactCodeReview, day(2024, time.February, 20), true)

	coverage, err := f.analyzer.AllControlsCoverage(context.Background(), "org-1", halfYear2024())
	require.NoError(t, err)
	require.Len(t, coverage, 3)

	byControl := make(map[string]domain.PeriodCoverage)
	for _, c := range coverage {
		byControl[c.ControlID] = c
	}
	assert.Equal(t, 1, byControl["CC7.2"].ArtifactCount)
	assert.Zero(t, byControl["CC7.1"].ArtifactCount)
	assert.Zero(t, byControl["CC7.3"].ArtifactCount)
}

func TestDetectGapsMergesAdjacentMonths(t *testing.T) {
	f := newCoverageFixture()
	// Evidence in March, May and June leaves January+February contiguous
	// and April isolated.
	f.addEvidence(t, "CC7.1", domain.ArtifactPullRequest, day(2024, time.March, 5), true)
	f.addEvidence(t, "CC7.1", domain.ArtifactJiraIssue, day(2024, time.May, 12), true)
	f.addEvidence(t, "CC7.1", domain.ArtifactPullRequest, day(2024, time.June, 1), true)

	gaps, err := f.analyzer.DetectGaps(context.Background(), "org-1", "CC7.1", halfYear2024())
	require.NoError(t, err)

	var periodGaps []domain.CoverageGap
	for _, g := range gaps {
		if g.Type == domain.GapIncompletePeriod {
			periodGaps = append(periodGaps, g)
		}
	}
	require.Len(t, periodGaps, 2)

	// January and February merge into one range ending on the true last
	// day of February (2024 is a leap year).
	first := periodGaps[0]
	require.NotNil(t, first.AffectedStart)
	require.NotNil(t, first.AffectedEnd)
	assert.Equal(t, day(2024, time.January, 1), *first.AffectedStart)
	assert.Equal(t, day(2024, time.February, 29), *first.AffectedEnd)
	assert.Equal(t, domain.SeverityHigh, first.Severity)

	second := periodGaps[1]
	assert.Equal(t, day(2024, time.April, 1), *second.AffectedStart)
	assert.Equal(t, day(2024, time.April, 30), *second.AffectedEnd)
}

func TestDetectGapsMissingEvidenceTypes(t *testing.T) {
	f := newCoverageFixture()
	// CC7.1 requires pull requests and Jira issues; only PRs exist.
	for m := time.January; m <= time.June; m++ {
		f.addEvidence(t, "CC7.1", domain.ArtifactPullRequest, day(2024, m, 10), true)
	}

	gaps, err := f.analyzer.DetectGaps(context.Background(), "org-1", "CC7.1", halfYear2024())
	require.NoError(t, err)
	require.Len(t, gaps, 1)

	gap := gaps[0]
	assert.Equal(t, domain.GapMissingEvidence, gap.Type)
	assert.Equal(t, domain.SeverityMedium, gap.Severity)
	assert.Contains(t, gap.Description, "jira_issue")
	assert.Nil(t, gap.AffectedStart)
}

func TestDetectGapsBothTypesMissingIsHighSeverity(t *testing.T) {
	f := newCoverageFixture()

	gaps, err := f.analyzer.DetectGaps(context.Background(), "org-1", "CC7.1", halfYear2024())
	require.NoError(t, err)

	var evidence *domain.CoverageGap
	for i := range gaps {
		if gaps[i].Type == domain.GapMissingEvidence {
			evidence = &gaps[i]
		}
	}
	require.NotNil(t, evidence)
	assert.Equal(t, domain.SeverityHigh, evidence.Severity)

	// With no artifacts the whole period is one gap.
	var periodGaps []domain.CoverageGap
	for _, g := range gaps {
		if g.Type == domain.GapIncompletePeriod {
			periodGaps = append(periodGaps, g)
		}
	}
	require.Len(t, periodGaps, 1)
	assert.Equal(t, day(2024, time.January, 1), *periodGaps[0].AffectedStart)
	assert.Equal(t, day(2024, time.June, 30), *periodGaps[0].AffectedEnd)
}

func TestDetectGapsPendingApproval(t *testing.T) {
	f := newCoverageFixture()
	for m := time.January; m <= time.June; m++ {
		f.addEvidence(t, "CC7.1", domain.ArtifactPullRequest, day(2024, m, 10), true)
		f.addEvidence(t, "CC7.1", domain.ArtifactJiraIssue, day(2024, m, 20), false)
	}

	gaps, err := f.analyzer.DetectGaps(context.Background(), "org-1", "CC7.1", halfYear2024())
	require.NoError(t, err)
	require.Len(t, gaps, 1)

	gap := gaps[0]
	assert.Equal(t, domain.GapMissingApproval, gap.Type)
	assert.Equal(t, domain.SeverityMedium, gap.Severity)
	assert.Contains(t, gap.Description, "6 artifacts pending approval")
}
