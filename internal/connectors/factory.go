package connectors

import (
	"fmt"

	"github.com/custodia-labs/attest-cli/internal/connectors/github"
	"github.com/custodia-labs/attest-cli/internal/connectors/googledrive"
	"github.com/custodia-labs/attest-cli/internal/connectors/jira"
	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// Config carries the OAuth app settings for every connector type.
type Config struct {
	GitHub      github.Config
	Jira        jira.Config
	GoogleDrive googledrive.Config
}

var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory resolves connectors from a static table. The set of connector
// types is closed at compile time.
type Factory struct {
	cfg Config
}

// NewFactory creates a connector factory.
func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg}
}

// Create returns a connector bound to the integration's credentials.
func (f *Factory) Create(integration *domain.Integration) (driven.Connector, error) {
	switch integration.ConnectorType {
	case domain.ConnectorGitHub:
		return github.New(f.cfg.GitHub, integration.Credentials), nil
	case domain.ConnectorJira:
		return jira.New(f.cfg.Jira, integration.Credentials), nil
	case domain.ConnectorGoogleDrive:
		return googledrive.New(f.cfg.GoogleDrive, integration.Credentials), nil
	default:
		return nil, fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, integration.ConnectorType)
	}
}

// SupportedTypes returns the closed set of connector types.
func (f *Factory) SupportedTypes() []domain.ConnectorType {
	return domain.ConnectorTypes()
}
