package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// mockMappingService implements driving.MappingService for testing.
type mockMappingService struct {
	autoMappings []domain.ControlMapping
	manual       *domain.ControlMapping
	err          error
	gotRationale string
}

func (m *mockMappingService) AutoMap(_ context.Context, _, _ string) ([]domain.ControlMapping, error) {
	return m.autoMappings, m.err
}

func (m *mockMappingService) ManualMap(_ context.Context, _, artifactID, controlID, rationale string) (*domain.ControlMapping, error) {
	m.gotRationale = rationale
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ControlMapping{
		ArtifactID: artifactID,
		ControlID:  controlID,
		Source:     domain.MappingManual,
		Confidence: 1.0,
		Rationale:  rationale,
	}, nil
}

func setupMapTest(svc *mockMappingService) func() {
	oldSvc := mappingService
	mappingService = svc
	return func() {
		mappingService = oldSvc
	}
}

func TestMapCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(mapCmd.Commands()))
	for _, cmd := range mapCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "auto")
	assert.Contains(t, names, "manual")
}

func TestMapAuto_PrintsMappings(t *testing.T) {
	cleanup := setupMapTest(&mockMappingService{
		autoMappings: []domain.ControlMapping{
			{ControlID: "CC7.1", Confidence: 0.65, Rationale: "merged pull request"},
		},
	})
	defer cleanup()

	out, err := execute(t, "map", "auto", "art-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "CC7.1 (confidence 0.65)")
	assert.Contains(t, out, "merged pull request")
}

func TestMapAuto_NoMatches(t *testing.T) {
	cleanup := setupMapTest(&mockMappingService{})
	defer cleanup()

	out, err := execute(t, "map", "auto", "art-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "No control rules matched")
}

func TestMapManual_CreatesMapping(t *testing.T) {
	svc := &mockMappingService{}
	cleanup := setupMapTest(svc)
	defer cleanup()

	out, err := execute(t, "map", "manual", "art-1", "CC7.3", "--rationale", "approval record")

	assert.NoError(t, err)
	assert.Contains(t, out, "Mapped artifact art-1 to control CC7.3")
	assert.Equal(t, "approval record", svc.gotRationale)
}

func TestMapManual_UnknownArtifact(t *testing.T) {
	cleanup := setupMapTest(&mockMappingService{err: domain.ErrNotFound})
	defer cleanup()

	_, err := execute(t, "map", "manual", "missing", "CC7.1")

	assert.Error(t, err)
}

func TestMapCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupMapTest(nil)
	mappingService = nil
	defer cleanup()

	_, err := execute(t, "map", "auto", "art-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
