package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/attest-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// mockConnector implements driven.Connector for testing.
type mockConnector struct {
	authURL    string
	creds      *domain.OAuthCredentials
	testResult *domain.ConnectionTestResult
	resources  []domain.ResourceRef
	err        error
}

func (m *mockConnector) Type() domain.ConnectorType { return domain.ConnectorGitHub }

func (m *mockConnector) AuthURL(state string) string { return m.authURL + "&state=" + state }

func (m *mockConnector) ExchangeCode(_ context.Context, _ string) (*domain.OAuthCredentials, error) {
	return m.creds, m.err
}

func (m *mockConnector) RefreshToken(_ context.Context) (*domain.OAuthCredentials, error) {
	return m.creds, m.err
}

func (m *mockConnector) TestConnection(_ context.Context) (*domain.ConnectionTestResult, error) {
	return m.testResult, m.err
}

func (m *mockConnector) ListResources(_ context.Context, _ domain.ResourceFilter) ([]domain.ResourceRef, error) {
	return m.resources, m.err
}

func (m *mockConnector) FetchArtifacts(_ context.Context, _ string, _ domain.DateRange, _ []domain.ArtifactType) (driven.ArtifactIterator, error) {
	return nil, m.err
}

func (m *mockConnector) ArtifactURL(artifact *domain.RawArtifact) string {
	return artifact.SourceURL
}

// mockFactory implements driven.ConnectorFactory for testing.
type mockFactory struct {
	connector driven.Connector
	err       error
}

func (m *mockFactory) Create(_ *domain.Integration) (driven.Connector, error) {
	return m.connector, m.err
}

func (m *mockFactory) SupportedTypes() []domain.ConnectorType {
	return domain.ConnectorTypes()
}

func setupIntegrationsTest(t *testing.T, connector driven.Connector) *memory.IntegrationStore {
	t.Helper()

	store := memory.NewIntegrationStore()
	oldStore := integrationStore
	oldFactory := connectorFactory
	oldOrg := orgID
	integrationStore = store
	connectorFactory = &mockFactory{connector: connector}
	orgID = "org-1"
	t.Cleanup(func() {
		integrationStore = oldStore
		connectorFactory = oldFactory
		orgID = oldOrg
	})
	return store
}

func seedIntegration(t *testing.T, store *memory.IntegrationStore) *domain.Integration {
	t.Helper()

	integration := &domain.Integration{
		ID:            "int-1",
		OrgID:         "org-1",
		ConnectorType: domain.ConnectorGitHub,
		Status:        domain.IntegrationDisconnected,
		ResourceIDs:   []string{"acme/api"},
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Save(context.Background(), integration))
	return integration
}

func TestIntegrationsCmd_Use(t *testing.T) {
	assert.Equal(t, "integrations", integrationsCmd.Use)
}

func TestIntegrationsCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(integrationsCmd.Commands()))
	for _, cmd := range integrationsCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "list")
	assert.Contains(t, names, "add")
	assert.Contains(t, names, "auth")
	assert.Contains(t, names, "test")
	assert.Contains(t, names, "resources")
	assert.Contains(t, names, "set-resources")
}

func TestIntegrationsList_Empty(t *testing.T) {
	setupIntegrationsTest(t, &mockConnector{})

	out, err := execute(t, "integrations", "list")

	assert.NoError(t, err)
	assert.Contains(t, out, "No integrations configured")
}

func TestIntegrationsList_ShowsIntegrations(t *testing.T) {
	store := setupIntegrationsTest(t, &mockConnector{})
	seedIntegration(t, store)

	out, err := execute(t, "integrations", "list")

	assert.NoError(t, err)
	assert.Contains(t, out, "int-1")
	assert.Contains(t, out, "github")
	assert.Contains(t, out, "disconnected")
}

func TestIntegrationsAdd_CreatesIntegration(t *testing.T) {
	store := setupIntegrationsTest(t, &mockConnector{})

	out, err := execute(t, "integrations", "add", "jira", "--resource", "SEC")

	assert.NoError(t, err)
	assert.Contains(t, out, "Created jira integration")

	integrations, err := store.List(context.Background(), "org-1")
	assert.NoError(t, err)
	require.Len(t, integrations, 1)
	assert.Equal(t, domain.ConnectorJira, integrations[0].ConnectorType)
	assert.Equal(t, []string{"SEC"}, integrations[0].ResourceIDs)
	assert.Equal(t, domain.IntegrationDisconnected, integrations[0].Status)
}

func TestIntegrationsAdd_RejectsUnknownType(t *testing.T) {
	setupIntegrationsTest(t, &mockConnector{})

	_, err := execute(t, "integrations", "add", "gitlab")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown connector type")
}

func TestIntegrationsAuth_PrintsURL(t *testing.T) {
	store := setupIntegrationsTest(t, &mockConnector{authURL: "https://example.com/authorize?client_id=abc"})
	seedIntegration(t, store)

	out, err := execute(t, "integrations", "auth", "int-1", "--no-browser")

	assert.NoError(t, err)
	assert.Contains(t, out, "https://example.com/authorize?client_id=abc&state=")
	assert.Contains(t, out, "--code")
}

func TestIntegrationsAuth_ExchangesCode(t *testing.T) {
	store := setupIntegrationsTest(t, &mockConnector{
		creds: &domain.OAuthCredentials{AccessToken: "tok"},
	})
	seedIntegration(t, store)

	out, err := execute(t, "integrations", "auth", "int-1", "--code", "authcode")

	assert.NoError(t, err)
	assert.Contains(t, out, "authorized")

	saved, err := store.Get(context.Background(), "int-1")
	assert.NoError(t, err)
	require.NotNil(t, saved.Credentials)
	assert.Equal(t, "tok", saved.Credentials.AccessToken)
	assert.Equal(t, domain.IntegrationConnected, saved.Status)
}

func TestIntegrationsTest_RecordsOutcome(t *testing.T) {
	store := setupIntegrationsTest(t, &mockConnector{
		testResult: &domain.ConnectionTestResult{
			Status:  domain.ConnectionOK,
			Message: "Connected as octocat",
		},
	})
	seedIntegration(t, store)

	out, err := execute(t, "integrations", "test", "int-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Connected as octocat")

	saved, err := store.Get(context.Background(), "int-1")
	assert.NoError(t, err)
	assert.Equal(t, domain.IntegrationConnected, saved.Status)
}

func TestIntegrationsTest_FailureSetsErrorStatus(t *testing.T) {
	store := setupIntegrationsTest(t, &mockConnector{
		testResult: &domain.ConnectionTestResult{
			Status:  domain.ConnectionAuthError,
			Message: "token expired",
		},
	})
	seedIntegration(t, store)

	_, err := execute(t, "integrations", "test", "int-1")

	assert.Error(t, err)

	saved, getErr := store.Get(context.Background(), "int-1")
	assert.NoError(t, getErr)
	assert.Equal(t, domain.IntegrationError, saved.Status)
	assert.Equal(t, "token expired", saved.LastError)
}

func TestIntegrationsResources_ListsResources(t *testing.T) {
	store := setupIntegrationsTest(t, &mockConnector{
		resources: []domain.ResourceRef{
			{ID: "acme/api", Name: "acme/api", Type: "repository", URL: "https://github.com/acme/api"},
		},
	})
	seedIntegration(t, store)

	out, err := execute(t, "integrations", "resources", "int-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "acme/api (repository)")
	assert.Contains(t, out, "Total: 1 resources")
}

func TestIntegrationsSetResources_UpdatesIntegration(t *testing.T) {
	store := setupIntegrationsTest(t, &mockConnector{})
	seedIntegration(t, store)

	_, err := execute(t, "integrations", "set-resources", "int-1", "--resource", "acme/api", "--resource", "acme/web")

	assert.NoError(t, err)

	saved, getErr := store.Get(context.Background(), "int-1")
	assert.NoError(t, getErr)
	assert.Equal(t, []string{"acme/api", "acme/web"}, saved.ResourceIDs)
}

func TestIntegrationsAuth_UnknownIntegration(t *testing.T) {
	setupIntegrationsTest(t, &mockConnector{})

	_, err := execute(t, "integrations", "auth", "missing")

	assert.Error(t, err)
}
