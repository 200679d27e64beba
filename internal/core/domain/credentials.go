package domain

import "time"

// OAuthCredentials stores OAuth tokens for one integration's account.
type OAuthCredentials struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires. Zero means no expiry
	// (GitHub OAuth app tokens do not expire).
	Expiry time.Time `json:"expiry,omitempty"`
	// Scope is the granted scope string, as reported by the provider.
	Scope string `json:"scope,omitempty"`
}

// IsExpired returns true if the access token has expired.
func (c *OAuthCredentials) IsExpired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry)
}

// CanRefresh reports whether a refresh token is available.
func (c *OAuthCredentials) CanRefresh() bool {
	return c.RefreshToken != ""
}
