package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// DefaultTimeout is the HTTP request timeout for API calls.
const DefaultTimeout = 30 * time.Second

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector syncs pull requests and code reviews from GitHub.
type Connector struct {
	cfg     Config
	creds   *domain.OAuthCredentials
	client  *gh.Client
	limiter *RateLimiter
}

// New creates a GitHub connector. Credentials may be nil until the OAuth
// flow completes; API calls fail with domain.ErrAuthFailed until then.
func New(cfg Config, creds *domain.OAuthCredentials) *Connector {
	return &Connector{
		cfg:     cfg,
		creds:   creds,
		limiter: NewRateLimiter(),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() domain.ConnectorType {
	return domain.ConnectorGitHub
}

// AuthURL constructs the GitHub OAuth authorization URL.
func (c *Connector) AuthURL(state string) string {
	params := url.Values{
		"client_id":    {c.cfg.ClientID},
		"redirect_uri": {c.cfg.RedirectURI},
		"scope":        {strings.Join(c.cfg.scopes(), " ")},
		"state":        {state},
	}
	return c.cfg.authURL() + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for OAuth credentials.
func (c *Connector) ExchangeCode(ctx context.Context, code string) (*domain.OAuthCredentials, error) {
	data := url.Values{}
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", c.cfg.RedirectURI)

	creds, err := c.postTokenForm(ctx, data)
	if err != nil {
		return nil, err
	}
	c.creds = creds
	return creds, nil
}

// RefreshToken obtains fresh credentials using the stored refresh token.
// Classic GitHub OAuth tokens are long-lived and carry no refresh token;
// only apps with token expiration enabled can refresh.
func (c *Connector) RefreshToken(ctx context.Context) (*domain.OAuthCredentials, error) {
	if c.creds == nil || !c.creds.CanRefresh() {
		return nil, fmt.Errorf("%w: github: no refresh token available", domain.ErrAuthFailed)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("refresh_token", c.creds.RefreshToken)

	creds, err := c.postTokenForm(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = c.creds.RefreshToken
	}
	c.creds = creds
	c.client = nil
	return creds, nil
}

// TestConnection verifies the stored credentials by fetching the
// authenticated user.
func (c *Connector) TestConnection(ctx context.Context) (*domain.ConnectionTestResult, error) {
	client, err := c.apiClient(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, resp, err := client.Users.Get(ctx, "")
	c.updateRateLimit(resp)
	if err != nil {
		return classifyTestError(wrapError(err, "get user")), nil
	}

	return &domain.ConnectionTestResult{
		Status:  domain.ConnectionOK,
		Message: fmt.Sprintf("Connected as %s", user.GetLogin()),
		Details: map[string]string{
			"login": user.GetLogin(),
			"name":  user.GetName(),
		},
	}, nil
}

// ListResources lists the repositories the credentials can access,
// newest activity first.
func (c *Connector) ListResources(ctx context.Context, filter domain.ResourceFilter) ([]domain.ResourceRef, error) {
	client, err := c.apiClient(ctx)
	if err != nil {
		return nil, err
	}

	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Visibility:  "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var refs []domain.ResourceRef
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		repos, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, opts)
		c.updateRateLimit(resp)
		if err != nil {
			return nil, wrapError(err, "list repos")
		}

		for _, repo := range repos {
			name := repo.GetFullName()
			if filter.Search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(filter.Search)) {
				continue
			}
			refs = append(refs, domain.ResourceRef{
				ID:   name,
				Name: name,
				Type: "repository",
				URL:  repo.GetHTMLURL(),
			})
			if filter.Limit > 0 && len(refs) >= filter.Limit {
				return refs, nil
			}
		}

		if resp.NextPage == 0 {
			return refs, nil
		}
		opts.Page = resp.NextPage
	}
}

// FetchArtifacts opens a pull stream of pull requests and code reviews
// from one repository. The resource ID is the "owner/repo" full name.
func (c *Connector) FetchArtifacts(ctx context.Context, resourceID string, dateRange domain.DateRange, types []domain.ArtifactType) (driven.ArtifactIterator, error) {
	client, err := c.apiClient(ctx)
	if err != nil {
		return nil, err
	}

	owner, repo, ok := strings.Cut(resourceID, "/")
	if !ok {
		return nil, fmt.Errorf("%w: github resource %q is not owner/repo", domain.ErrInvalidInput, resourceID)
	}

	if types == nil {
		types = []domain.ArtifactType{domain.ArtifactPullRequest, domain.ArtifactCodeReview}
	}
	wantPRs, wantReviews := false, false
	for _, t := range types {
		switch t {
		case domain.ArtifactPullRequest:
			wantPRs = true
		case domain.ArtifactCodeReview:
			wantReviews = true
		}
	}

	return &artifactIterator{
		conn:        c,
		client:      client,
		owner:       owner,
		repo:        repo,
		dateRange:   dateRange,
		wantPRs:     wantPRs,
		wantReviews: wantReviews,
		page:        1,
	}, nil
}

// ArtifactURL returns the deep link to an artifact in GitHub.
func (c *Connector) ArtifactURL(artifact *domain.RawArtifact) string {
	return artifact.SourceURL
}

// apiClient lazily builds the go-github client from the credentials.
func (c *Connector) apiClient(ctx context.Context) (*gh.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	if c.creds == nil || c.creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: github: not authorized", domain.ErrAuthFailed)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.creds.AccessToken})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	client := gh.NewClient(tc)
	if c.cfg.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(c.cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse api base url: %w", err)
		}
		client.BaseURL = base
	}
	c.client = client
	return client, nil
}

func (c *Connector) updateRateLimit(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.limiter.UpdateFromResponse(resp.Response)
}

// postTokenForm posts a form to the OAuth token endpoint and decodes the
// token response.
func (c *Connector) postTokenForm(ctx context.Context, data url.Values) (*domain.OAuthCredentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.tokenURL(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: DefaultTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Source: "github", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: github: token request failed with status %d", domain.ErrAuthFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken      string `json:"access_token"`
		RefreshToken     string `json:"refresh_token"`
		TokenType        string `json:"token_type"`
		ExpiresIn        int64  `json:"expires_in"`
		Scope            string `json:"scope"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if body.Error != "" {
		msg := body.ErrorDescription
		if msg == "" {
			msg = body.Error
		}
		return nil, fmt.Errorf("%w: github: %s", domain.ErrAuthFailed, msg)
	}

	creds := &domain.OAuthCredentials{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		TokenType:    body.TokenType,
		Scope:        body.Scope,
	}
	if body.ExpiresIn > 0 {
		creds.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return creds, nil
}

// classifyTestError maps a wrapped API error onto a connection test result.
func classifyTestError(err error) *domain.ConnectionTestResult {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		return &domain.ConnectionTestResult{
			Status:  domain.ConnectionAuthError,
			Message: "Invalid or expired GitHub token",
		}
	case errors.Is(err, domain.ErrPermissionDenied):
		return &domain.ConnectionTestResult{
			Status:  domain.ConnectionPermissionError,
			Message: "Insufficient permissions",
		}
	default:
		return &domain.ConnectionTestResult{
			Status:  domain.ConnectionNetworkError,
			Message: fmt.Sprintf("Network error: %v", err),
		}
	}
}
