package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

func testArtifact(hash string) *domain.EvidenceArtifact {
	return &domain.EvidenceArtifact{
		OrgID:          "org-1",
		SourceSystem:   "github",
		SourceObjectID: "acme/api#42",
		ContentHash:    hash,
		Type:           domain.ArtifactPullRequest,
		Title:          "Fix deploy script",
		RawContent:     map[string]any{"title": "Fix deploy script"},
		CapturedAt:     time.Now().UTC(),
	}
}

func TestArtifactStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewArtifactStore(NewMappingStore())

	// First sighting inserts.
	first := testArtifact("hash-a")
	created, err := store.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, domain.ApprovalPending, first.ApprovalStatus)

	// Same identity, same hash: no-op.
	again := testArtifact("hash-a")
	created, err = store.Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	// Same identity, new hash: content updated in place, ID stable.
	changed := testArtifact("hash-b")
	changed.RawContent = map[string]any{"title": "Fix deploy script", "state": "closed"}
	created, err = store.Upsert(ctx, changed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, changed.ID)

	got, err := store.Get(ctx, "org-1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-b", got.ContentHash)
	assert.Contains(t, got.RawContent, "state")
}

func TestArtifactStoreUpdateRefreshesContentFields(t *testing.T) {
	ctx := context.Background()
	store := NewArtifactStore(NewMappingStore())

	first := testArtifact("hash-a")
	_, err := store.Upsert(ctx, first)
	require.NoError(t, err)

	newStart := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	newEnd := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	changed := testArtifact("hash-b")
	changed.Title = "Fix deploy script (closed)"
	changed.SourceURL = "https://github.com/acme/api/pull/42/files"
	changed.PeriodStart = &newStart
	changed.PeriodEnd = &newEnd
	_, err = store.Upsert(ctx, changed)
	require.NoError(t, err)

	got, err := store.Get(ctx, "org-1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fix deploy script (closed)", got.Title)
	assert.Equal(t, "https://github.com/acme/api/pull/42/files", got.SourceURL)
	require.NotNil(t, got.PeriodStart)
	assert.Equal(t, newStart, *got.PeriodStart)
	require.NotNil(t, got.PeriodEnd)
	assert.Equal(t, newEnd, *got.PeriodEnd)
}

func TestArtifactStoreApprovalSurvivesUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewArtifactStore(NewMappingStore())

	artifact := testArtifact("hash-a")
	_, err := store.Upsert(ctx, artifact)
	require.NoError(t, err)

	require.NoError(t, store.SetApprovalStatus(ctx, "org-1", artifact.ID, domain.ApprovalApproved))

	changed := testArtifact("hash-b")
	_, err = store.Upsert(ctx, changed)
	require.NoError(t, err)

	got, err := store.Get(ctx, "org-1", artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, got.ApprovalStatus)
}

func TestArtifactStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewArtifactStore(NewMappingStore())

	pr := testArtifact("hash-a")
	_, err := store.Upsert(ctx, pr)
	require.NoError(t, err)

	issue := testArtifact("hash-c")
	issue.SourceSystem = "jira"
	issue.SourceObjectID = "OPS-101"
	issue.Type = domain.ArtifactJiraIssue
	_, err = store.Upsert(ctx, issue)
	require.NoError(t, err)

	all, err := store.List(ctx, "org-1", driven.ArtifactFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	issues, err := store.List(ctx, "org-1", driven.ArtifactFilter{Type: domain.ArtifactJiraIssue})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "OPS-101", issues[0].SourceObjectID)

	none, err := store.List(ctx, "other-org", driven.ArtifactFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestArtifactStoreListByControl(t *testing.T) {
	ctx := context.Background()
	mappings := NewMappingStore()
	store := NewArtifactStore(mappings)

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	artifact := testArtifact("hash-a")
	artifact.PeriodStart = &start
	artifact.PeriodEnd = &end
	_, err := store.Upsert(ctx, artifact)
	require.NoError(t, err)

	require.NoError(t, mappings.Upsert(ctx, &domain.ControlMapping{
		ArtifactID: artifact.ID,
		ControlID:  "CC7.1",
		Source:     domain.MappingAuto,
		Confidence: 0.7,
	}))

	rng := domain.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	mapped, err := store.ListByControl(ctx, "org-1", "CC7.1", rng)
	require.NoError(t, err)
	require.Len(t, mapped, 1)

	// Outside the queried range: excluded.
	narrow := domain.DateRange{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	mapped, err = store.ListByControl(ctx, "org-1", "CC7.1", narrow)
	require.NoError(t, err)
	assert.Empty(t, mapped)
}
