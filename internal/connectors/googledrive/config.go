package googledrive

// Google OAuth endpoints. Overridable for tests.
const (
	defaultAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	//nolint:gosec // G101: Not credentials, OAuth endpoint URL
	defaultTokenURL = "https://oauth2.googleapis.com/token"
)

// defaultScopes are the OAuth scopes the connector requests. Read-only
// is all the sync pipeline needs.
var defaultScopes = []string{"https://www.googleapis.com/auth/drive.readonly"}

// Config holds the OAuth app settings for the Google Drive connector.
type Config struct {
	// ClientID and ClientSecret identify the OAuth app.
	ClientID     string
	ClientSecret string

	// RedirectURI is where Google sends the user after authorization.
	RedirectURI string

	// Scopes override the default OAuth scopes when non-empty.
	Scopes []string

	// AuthURL and TokenURL override the Google OAuth endpoints when
	// non-empty. Used in tests.
	AuthURL  string
	TokenURL string

	// APIEndpoint overrides the Drive API endpoint when non-empty.
	// Used in tests.
	APIEndpoint string
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
