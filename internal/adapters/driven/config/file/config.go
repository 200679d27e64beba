// Package file provides TOML-backed configuration for the attest CLI.
//
// Configuration is explicit: the loaded Config is passed to constructors
// at composition time. Nothing reads it through globals or the
// environment after startup.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/attest-cli/internal/connectors"
	"github.com/custodia-labs/attest-cli/internal/connectors/github"
	"github.com/custodia-labs/attest-cli/internal/connectors/googledrive"
	"github.com/custodia-labs/attest-cli/internal/connectors/jira"
	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// DefaultOrgID is used when the config names no organization. The CLI is
// single-tenant in practice; the org column keeps the data model honest.
const DefaultOrgID = "default"

// OAuthApp holds one connector's OAuth application settings.
type OAuthApp struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes,omitempty"`
}

// ControlRuleConfig is the TOML form of a control auto-mapping rule.
type ControlRuleConfig struct {
	ControlID     string   `toml:"control_id"`
	Name          string   `toml:"name"`
	Description   string   `toml:"description,omitempty"`
	ArtifactTypes []string `toml:"artifact_types"`
	Keywords      []string `toml:"keywords"`
}

// Config is the full CLI configuration.
type Config struct {
	// OrgID scopes all stored data. Empty means DefaultOrgID.
	OrgID string `toml:"org_id,omitempty"`

	// DataDir overrides the SQLite data directory.
	DataDir string `toml:"data_dir,omitempty"`

	// Per-connector OAuth application settings.
	GitHub      OAuthApp `toml:"github"`
	Jira        OAuthApp `toml:"jira"`
	GoogleDrive OAuthApp `toml:"google_drive"`

	// Controls replace the built-in control rule pack when non-empty.
	Controls []ControlRuleConfig `toml:"controls,omitempty"`
}

// Organization returns the configured org ID or the default.
func (c *Config) Organization() string {
	if c.OrgID != "" {
		return c.OrgID
	}
	return DefaultOrgID
}

// ConnectorConfig maps the OAuth app settings into the connector factory
// configuration.
func (c *Config) ConnectorConfig() connectors.Config {
	return connectors.Config{
		GitHub: github.Config{
			ClientID:     c.GitHub.ClientID,
			ClientSecret: c.GitHub.ClientSecret,
			RedirectURI:  c.GitHub.RedirectURI,
			Scopes:       c.GitHub.Scopes,
		},
		Jira: jira.Config{
			ClientID:     c.Jira.ClientID,
			ClientSecret: c.Jira.ClientSecret,
			RedirectURI:  c.Jira.RedirectURI,
			Scopes:       c.Jira.Scopes,
		},
		GoogleDrive: googledrive.Config{
			ClientID:     c.GoogleDrive.ClientID,
			ClientSecret: c.GoogleDrive.ClientSecret,
			RedirectURI:  c.GoogleDrive.RedirectURI,
			Scopes:       c.GoogleDrive.Scopes,
		},
	}
}

// ControlRules returns the configured rules, or the built-in pack when
// none are configured.
func (c *Config) ControlRules() []domain.ControlRule {
	if len(c.Controls) == 0 {
		return domain.DefaultControlRules()
	}

	rules := make([]domain.ControlRule, 0, len(c.Controls))
	for _, rc := range c.Controls {
		types := make([]domain.ArtifactType, 0, len(rc.ArtifactTypes))
		for _, t := range rc.ArtifactTypes {
			types = append(types, domain.ArtifactType(t))
		}
		rules = append(rules, domain.ControlRule{
			ControlID:     rc.ControlID,
			Name:          rc.Name,
			Description:   rc.Description,
			ArtifactTypes: types,
			Keywords:      rc.Keywords,
		})
	}
	return rules
}

// Load reads the configuration from configDir/config.toml. A missing file
// yields the zero config; defaults apply through the accessor methods.
// If configDir is empty, defaults to ~/.attest.
func Load(configDir string) (*Config, error) {
	path, err := configPath(configDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to configDir/config.toml with restricted
// permissions, since it carries OAuth client secrets.
func Save(configDir string, cfg *Config) error {
	path, err := configPath(configDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func configPath(configDir string) (string, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".attest")
	}
	return filepath.Join(configDir, "config.toml"), nil
}
