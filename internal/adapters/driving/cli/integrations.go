package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/attest-cli/internal/adapters/driving/oauth"
	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Manage source system integrations",
	Long:  `Add, authorize, test and inspect connections to GitHub, Jira and Google Drive.`,
	RunE:  runIntegrationsList,
}

var integrationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured integrations",
	RunE:  runIntegrationsList,
}

var integrationsAddCmd = &cobra.Command{
	Use:   "add [connector-type]",
	Short: "Add a new integration",
	Long: `Creates an integration for a connector type (github, jira or
google_drive). Run "integrations auth" afterwards to authorize it.`,
	Args: cobra.ExactArgs(1),
	RunE: runIntegrationsAdd,
}

var integrationsAuthCmd = &cobra.Command{
	Use:   "auth [integration-id]",
	Short: "Authorize an integration via OAuth",
	Long: `Opens the provider authorization page in a browser and waits for the
redirect on a local callback server. The OAuth app's redirect URI must
point at http://localhost:<port>/callback.

With --no-browser, only prints the authorization URL; finish with
--code. With --code, exchanges the authorization code for tokens and
stores them.`,
	Args: cobra.ExactArgs(1),
	RunE: runIntegrationsAuth,
}

var integrationsTestCmd = &cobra.Command{
	Use:   "test [integration-id]",
	Short: "Test an integration's connection",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntegrationsTest,
}

var integrationsResourcesCmd = &cobra.Command{
	Use:   "resources [integration-id]",
	Short: "List syncable resources for an integration",
	Long:  `Lists the repositories, projects or folders the stored credentials can see.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIntegrationsResources,
}

var (
	addResources     []string
	authCode         string
	authNoBrowser    bool
	authCallbackPort int
	resourceSearch   string
	resourceLimit    int
	setResourcesIDs  []string
)

var integrationsSetResourcesCmd = &cobra.Command{
	Use:   "set-resources [integration-id]",
	Short: "Set which resources an integration syncs",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntegrationsSetResources,
}

func init() {
	integrationsAddCmd.Flags().StringSliceVar(&addResources, "resource", nil, "Resource to sync (repeatable)")
	integrationsAuthCmd.Flags().StringVar(&authCode, "code", "", "OAuth authorization code")
	integrationsAuthCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	integrationsAuthCmd.Flags().IntVar(&authCallbackPort, "callback-port", 8749, "Local port for the OAuth callback")
	integrationsResourcesCmd.Flags().StringVar(&resourceSearch, "search", "", "Filter resources by name")
	integrationsResourcesCmd.Flags().IntVar(&resourceLimit, "limit", 0, "Maximum resources to list")
	integrationsSetResourcesCmd.Flags().StringSliceVar(&setResourcesIDs, "resource", nil, "Resource to sync (repeatable)")

	integrationsCmd.AddCommand(integrationsListCmd)
	integrationsCmd.AddCommand(integrationsAddCmd)
	integrationsCmd.AddCommand(integrationsAuthCmd)
	integrationsCmd.AddCommand(integrationsTestCmd)
	integrationsCmd.AddCommand(integrationsResourcesCmd)
	integrationsCmd.AddCommand(integrationsSetResourcesCmd)
	rootCmd.AddCommand(integrationsCmd)
}

func runIntegrationsList(cmd *cobra.Command, _ []string) error {
	if integrationStore == nil {
		return errors.New("integration store not configured")
	}

	integrations, err := integrationStore.List(context.Background(), orgID)
	if err != nil {
		return fmt.Errorf("failed to list integrations: %w", err)
	}

	if len(integrations) == 0 {
		cmd.Println("No integrations configured. Run \"attest integrations add\" to create one.")
		return nil
	}

	for i := range integrations {
		in := &integrations[i]
		cmd.Printf("%s  %s (%s)\n", in.ID, in.ConnectorType, in.Status)
		if len(in.ResourceIDs) > 0 {
			cmd.Printf("  Resources: %d configured\n", len(in.ResourceIDs))
		}
		if in.LastSyncAt != nil {
			cmd.Printf("  Last sync: %s\n", in.LastSyncAt.Format(time.RFC3339))
		}
		if in.LastError != "" {
			cmd.Printf("  Last error: %s\n", in.LastError)
		}
		cmd.Println()
	}
	return nil
}

func runIntegrationsAdd(cmd *cobra.Command, args []string) error {
	if integrationStore == nil {
		return errors.New("integration store not configured")
	}

	connectorType := domain.ConnectorType(args[0])
	if !supportedConnectorType(connectorType) {
		return fmt.Errorf("unknown connector type %q (want github, jira or google_drive)", args[0])
	}

	now := time.Now().UTC()
	integration := &domain.Integration{
		ID:            uuid.NewString(),
		OrgID:         orgID,
		ConnectorType: connectorType,
		Status:        domain.IntegrationDisconnected,
		ResourceIDs:   addResources,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := integrationStore.Save(context.Background(), integration); err != nil {
		return fmt.Errorf("failed to save integration: %w", err)
	}

	cmd.Printf("Created %s integration: %s\n", connectorType, integration.ID)
	cmd.Printf("Authorize it with: attest integrations auth %s\n", integration.ID)
	return nil
}

func runIntegrationsAuth(cmd *cobra.Command, args []string) error {
	if integrationStore == nil || connectorFactory == nil {
		return errors.New("integration service not configured")
	}

	ctx := context.Background()
	integration, err := integrationStore.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load integration: %w", err)
	}

	connector, err := connectorFactory.Create(integration)
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}

	code := authCode
	if code == "" {
		state, err := randomState()
		if err != nil {
			return fmt.Errorf("failed to generate state: %w", err)
		}
		authURL := connector.AuthURL(state)

		if authNoBrowser {
			cmd.Println("Open this URL in a browser to authorize:")
			cmd.Println()
			cmd.Printf("  %s\n", authURL)
			cmd.Println()
			cmd.Printf("Then run: attest integrations auth %s --code <code>\n", integration.ID)
			return nil
		}

		code, err = authorizeViaBrowser(cmd, authURL, state)
		if err != nil {
			return err
		}
	}

	creds, err := connector.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	integration.Credentials = creds
	integration.Status = domain.IntegrationConnected
	integration.LastError = ""
	integration.UpdatedAt = time.Now().UTC()
	if err := integrationStore.Save(ctx, integration); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	cmd.Printf("Integration %s authorized.\n", integration.ID)
	return nil
}

func runIntegrationsTest(cmd *cobra.Command, args []string) error {
	if integrationStore == nil || connectorFactory == nil {
		return errors.New("integration service not configured")
	}

	ctx := context.Background()
	integration, err := integrationStore.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load integration: %w", err)
	}

	connector, err := connectorFactory.Create(integration)
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}

	result, err := connector.TestConnection(ctx)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	cmd.Printf("Status: %s\n", result.Status)
	cmd.Printf("%s\n", result.Message)
	for k, v := range result.Details {
		cmd.Printf("  %s: %s\n", k, v)
	}

	// Record the outcome on the integration.
	integration.UpdatedAt = time.Now().UTC()
	if result.Connected() {
		integration.Status = domain.IntegrationConnected
		integration.LastError = ""
	} else {
		integration.Status = domain.IntegrationError
		integration.LastError = result.Message
	}
	if err := integrationStore.Save(ctx, integration); err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}

	if !result.Connected() {
		return fmt.Errorf("connection test: %s", result.Status)
	}
	return nil
}

func runIntegrationsResources(cmd *cobra.Command, args []string) error {
	if integrationStore == nil || connectorFactory == nil {
		return errors.New("integration service not configured")
	}

	ctx := context.Background()
	integration, err := integrationStore.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load integration: %w", err)
	}

	connector, err := connectorFactory.Create(integration)
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}

	resources, err := connector.ListResources(ctx, domain.ResourceFilter{
		Search: resourceSearch,
		Limit:  resourceLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}

	if len(resources) == 0 {
		cmd.Println("No resources found.")
		return nil
	}

	for i := range resources {
		r := &resources[i]
		cmd.Printf("%s  %s (%s)\n", r.ID, r.Name, r.Type)
		if r.URL != "" {
			cmd.Printf("  %s\n", r.URL)
		}
	}
	cmd.Printf("\nTotal: %d resources\n", len(resources))
	return nil
}

func runIntegrationsSetResources(cmd *cobra.Command, args []string) error {
	if integrationStore == nil {
		return errors.New("integration store not configured")
	}
	if len(setResourcesIDs) == 0 {
		return errors.New("at least one --resource is required")
	}

	ctx := context.Background()
	integration, err := integrationStore.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load integration: %w", err)
	}

	integration.ResourceIDs = setResourcesIDs
	integration.UpdatedAt = time.Now().UTC()
	if err := integrationStore.Save(ctx, integration); err != nil {
		return fmt.Errorf("failed to save integration: %w", err)
	}

	cmd.Printf("Integration %s now syncs %d resource(s).\n", integration.ID, len(setResourcesIDs))
	return nil
}

func supportedConnectorType(t domain.ConnectorType) bool {
	for _, known := range domain.ConnectorTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// authorizeViaBrowser runs the local callback flow: opens the provider
// page and waits for the redirect carrying the authorization code.
func authorizeViaBrowser(cmd *cobra.Command, authURL, state string) (string, error) {
	server := oauth.NewCallbackServer(authCallbackPort, state)
	if err := server.Start(); err != nil {
		return "", fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() {
		_ = server.Stop()
	}()

	cmd.Println("Opening browser for authorization...")
	if err := oauth.OpenBrowser(authURL); err != nil {
		cmd.Println("Could not open a browser. Open this URL manually:")
		cmd.Println()
		cmd.Printf("  %s\n", authURL)
		cmd.Println()
	}
	cmd.Printf("Waiting for callback on %s...\n", server.RedirectURI())

	code, err := server.WaitForCode(5 * time.Minute)
	if err != nil {
		return "", fmt.Errorf("authorization failed: %w", err)
	}
	return code, nil
}

// randomState generates the OAuth CSRF state parameter.
func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
