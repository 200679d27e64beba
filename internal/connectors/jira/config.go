package jira

// Atlassian OAuth endpoints. Overridable for tests.
const (
	defaultAuthURL = "https://auth.atlassian.com/authorize"
	//nolint:gosec // G101: Not credentials, OAuth endpoint URL
	defaultTokenURL   = "https://auth.atlassian.com/oauth/token"
	defaultAPIBaseURL = "https://api.atlassian.com"
)

// defaultScopes are the OAuth scopes the connector requests. The
// offline_access scope is what makes Atlassian issue a refresh token.
var defaultScopes = []string{"read:jira-work", "read:jira-user", "offline_access"}

// Config holds the OAuth app settings for the Jira connector.
type Config struct {
	// ClientID and ClientSecret identify the OAuth app.
	ClientID     string
	ClientSecret string

	// RedirectURI is where Atlassian sends the user after authorization.
	RedirectURI string

	// Scopes override the default OAuth scopes when non-empty.
	Scopes []string

	// AuthURL and TokenURL override the Atlassian OAuth endpoints when
	// non-empty. Used in tests.
	AuthURL  string
	TokenURL string

	// APIBaseURL overrides the api.atlassian.com gateway when non-empty.
	// Used in tests.
	APIBaseURL string
}

func (c Config) authURL() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return defaultAuthURL
}

func (c Config) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return defaultTokenURL
}

func (c Config) apiBaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return defaultAPIBaseURL
}

func (c Config) scopes() []string {
	if len(c.Scopes) > 0 {
		return c.Scopes
	}
	return defaultScopes
}
