package github

// OAuth endpoints. Overridable for tests.
const (
	defaultAuthURL = "https://github.com/login/oauth/authorize"
	//nolint:gosec // G101: Not credentials, OAuth endpoint URL
	defaultTokenURL = "https://github.com/login/oauth/access_token"
)

// defaultScopes are the OAuth scopes the connector requests.
var defaultScopes = []string{"repo", "read:org"}

// Config holds the OAuth app settings for the GitHub connector.
type Config struct {
	// ClientID and ClientSecret identify the OAuth app.
	ClientID     string
	ClientSecret string

	// RedirectURI is where GitHub sends the user after authorization.
	RedirectURI string

	// Scopes override the default OAuth scopes when non-empty.
	Scopes []string

	// AuthURL and TokenURL override the GitHub OAuth endpoints when
	// non-empty. Used in tests.
	AuthURL  string
	TokenURL string

	// APIBaseURL overrides the REST API base URL when non-empty.
	// Used in tests and for GitHub Enterprise.
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

func (c Config) scopes() []string {
	if len(c.Scopes) > 0 {
		return c.Scopes
	}
	return defaultScopes
}
