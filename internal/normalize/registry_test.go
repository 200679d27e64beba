package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry()

	raw := &domain.RawArtifact{
		SourceSystem: "github",
		Type:         domain.ArtifactPullRequest,
		RawContent:   map[string]any{"title": "Add audit logging", "number": float64(7)},
	}

	content := reg.Normalize(raw)

	require.Equal(t, domain.ContentPullRequest, content.Kind)
	require.NotNil(t, content.PullRequest)
	assert.Equal(t, "Add audit logging", content.PullRequest.Title)
}

func TestRegistryDriveVariants(t *testing.T) {
	reg := NewRegistry()

	for _, typ := range []domain.ArtifactType{
		domain.ArtifactDocument,
		domain.ArtifactSpreadsheet,
		domain.ArtifactMeetingNotes,
		domain.ArtifactPolicy,
	} {
		content := reg.Normalize(&domain.RawArtifact{
			SourceSystem: "google_drive",
			Type:         typ,
			RawContent:   map[string]any{"name": "Access Policy"},
		})
		require.Equal(t, domain.ContentDocument, content.Kind, "type %s", typ)
		assert.Equal(t, "Access Policy", content.Document.Name)
	}
}

func TestRegistryUnknownPairFallsBackToRaw(t *testing.T) {
	reg := NewRegistry()

	payload := map[string]any{"anything": "goes"}
	content := reg.Normalize(&domain.RawArtifact{
		SourceSystem: "github",
		Type:         domain.ArtifactCommit,
		RawContent:   payload,
	})

	assert.Equal(t, domain.ContentRaw, content.Kind)
	assert.Equal(t, payload, content.Raw)
}
