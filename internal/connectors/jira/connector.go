package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/attest-cli/internal/normalize/payload"
)

const (
	// DefaultTimeout is the HTTP request timeout for API calls.
	DefaultTimeout = 30 * time.Second

	// requestsPerSecond throttles calls to the Atlassian gateway. Jira
	// Cloud publishes no fixed quota, only 429s with Retry-After.
	requestsPerSecond = 4
)

var _ driven.Connector = (*Connector)(nil)

// Connector syncs issues from a Jira Cloud site.
type Connector struct {
	cfg        Config
	creds      *domain.OAuthCredentials
	httpClient *http.Client
	limiter    *rate.Limiter

	// Resolved lazily from the accessible-resources endpoint.
	cloudID string
	siteURL string
}

// New creates a Jira connector. Credentials may be nil until the OAuth
// flow completes; API calls fail with domain.ErrAuthFailed until then.
func New(cfg Config, creds *domain.OAuthCredentials) *Connector {
	return &Connector{
		cfg:        cfg,
		creds:      creds,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() domain.ConnectorType {
	return domain.ConnectorJira
}

// AuthURL constructs the Atlassian OAuth authorization URL.
func (c *Connector) AuthURL(state string) string {
	params := url.Values{
		"audience":      {"api.atlassian.com"},
		"client_id":     {c.cfg.ClientID},
		"scope":         {strings.Join(c.cfg.scopes(), " ")},
		"redirect_uri":  {c.cfg.RedirectURI},
		"state":         {state},
		"response_type": {"code"},
		"prompt":        {"consent"},
	}
	return c.cfg.authURL() + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for OAuth credentials.
// Atlassian's token endpoint speaks JSON rather than form encoding.
func (c *Connector) ExchangeCode(ctx context.Context, code string) (*domain.OAuthCredentials, error) {
	creds, err := c.postToken(ctx, map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"code":          code,
		"redirect_uri":  c.cfg.RedirectURI,
	})
	if err != nil {
		return nil, err
	}
	c.creds = creds
	c.cloudID = ""
	return creds, nil
}

// RefreshToken obtains fresh credentials using the stored refresh token.
// Atlassian rotates refresh tokens on every use.
func (c *Connector) RefreshToken(ctx context.Context) (*domain.OAuthCredentials, error) {
	if c.creds == nil || !c.creds.CanRefresh() {
		return nil, fmt.Errorf("%w: jira: no refresh token available", domain.ErrAuthFailed)
	}

	creds, err := c.postToken(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"refresh_token": c.creds.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = c.creds.RefreshToken
	}
	c.creds = creds
	return creds, nil
}

// TestConnection verifies the stored credentials by resolving the cloud
// ID and fetching the current user.
func (c *Connector) TestConnection(ctx context.Context) (*domain.ConnectionTestResult, error) {
	if c.creds == nil || c.creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: jira: not authorized", domain.ErrAuthFailed)
	}

	if err := c.resolveCloudID(ctx); err != nil {
		return classifyTestError(err), nil
	}

	me, err := c.getJSON(ctx, c.apiURL("/myself"))
	if err != nil {
		return classifyTestError(err), nil
	}

	name := payload.String(me, "displayName")
	return &domain.ConnectionTestResult{
		Status:  domain.ConnectionOK,
		Message: fmt.Sprintf("Connected as %s", name),
		Details: map[string]string{
			"displayName": name,
			"email":       payload.String(me, "emailAddress"),
			"site":        c.siteURL,
		},
	}, nil
}

// ListResources lists the Jira projects the credentials can browse.
func (c *Connector) ListResources(ctx context.Context, filter domain.ResourceFilter) ([]domain.ResourceRef, error) {
	if err := c.resolveCloudID(ctx); err != nil {
		return nil, err
	}

	var refs []domain.ResourceRef
	startAt := 0
	for {
		endpoint := fmt.Sprintf("%s?startAt=%d&maxResults=50", c.apiURL("/project/search"), startAt)
		page, err := c.getJSON(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		values := payload.Slice(page, "values")
		for _, v := range values {
			project, ok := v.(map[string]any)
			if !ok {
				continue
			}
			key := payload.String(project, "key")
			name := payload.String(project, "name")
			if filter.Search != "" {
				needle := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(key), needle) && !strings.Contains(strings.ToLower(name), needle) {
					continue
				}
			}
			refs = append(refs, domain.ResourceRef{
				ID:   key,
				Name: name,
				Type: "project",
				URL:  c.siteURL + "/browse/" + key,
			})
			if filter.Limit > 0 && len(refs) >= filter.Limit {
				return refs, nil
			}
		}

		if payload.Bool(page, "isLast") || len(values) == 0 {
			return refs, nil
		}
		startAt += len(values)
	}
}

// FetchArtifacts opens a pull stream of issues created in the date range
// within one project. The resource ID is the project key.
func (c *Connector) FetchArtifacts(ctx context.Context, resourceID string, dateRange domain.DateRange, types []domain.ArtifactType) (driven.ArtifactIterator, error) {
	if err := c.resolveCloudID(ctx); err != nil {
		return nil, err
	}
	for _, t := range types {
		if t != domain.ArtifactJiraIssue {
			return nil, fmt.Errorf("%w: jira cannot fetch %q artifacts", domain.ErrUnsupportedType, t)
		}
	}
	return &artifactIterator{
		conn:       c,
		projectKey: resourceID,
		dateRange:  dateRange,
	}, nil
}

// ArtifactURL returns the deep link to an artifact in Jira.
func (c *Connector) ArtifactURL(artifact *domain.RawArtifact) string {
	return artifact.SourceURL
}

// resolveCloudID resolves and caches the site's cloud ID, which the
// api.atlassian.com gateway needs in every REST path.
func (c *Connector) resolveCloudID(ctx context.Context) error {
	if c.cloudID != "" {
		return nil
	}
	if c.creds == nil || c.creds.AccessToken == "" {
		return fmt.Errorf("%w: jira: not authorized", domain.ErrAuthFailed)
	}

	sites, err := c.getJSONList(ctx, c.cfg.apiBaseURL()+"/oauth/token/accessible-resources")
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		return fmt.Errorf("%w: jira: token has no accessible sites", domain.ErrAuthFailed)
	}

	site, ok := sites[0].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: jira: malformed accessible-resources response", domain.ErrValidation)
	}
	c.cloudID = payload.String(site, "id")
	c.siteURL = payload.String(site, "url")
	return nil
}

// apiURL builds a Jira REST API v3 URL under the resolved cloud ID.
func (c *Connector) apiURL(path string) string {
	return fmt.Sprintf("%s/ex/jira/%s/rest/api/3%s", c.cfg.apiBaseURL(), c.cloudID, path)
}

func (c *Connector) getJSON(ctx context.Context, endpoint string) (map[string]any, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: jira: decode response: %v", domain.ErrValidation, err)
	}
	return out, nil
}

func (c *Connector) getJSONList(ctx context.Context, endpoint string) ([]any, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var out []any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: jira: decode response: %v", domain.ErrValidation, err)
	}
	return out, nil
}

// get performs a rate-limited authenticated GET and classifies HTTP
// failures into domain errors.
func (c *Connector) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Source: "jira", Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Source: "jira", Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}

// classifyStatus maps non-2xx responses onto domain errors.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: jira: request rejected with 401", domain.ErrAuthFailed)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: jira: request rejected with 403", domain.ErrPermissionDenied)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: jira: %s", domain.ErrNotFound, resp.Request.URL.Path)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := time.Minute
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &domain.RateLimitError{Source: "jira", RetryAfter: retryAfter}
	default:
		return &domain.NetworkError{
			Source: "jira",
			Err:    fmt.Errorf("unexpected status %d from %s", resp.StatusCode, resp.Request.URL.Path),
		}
	}
}

// postToken posts a JSON grant request to the Atlassian token endpoint.
func (c *Connector) postToken(ctx context.Context, grant map[string]string) (*domain.OAuthCredentials, error) {
	data, err := json.Marshal(grant)
	if err != nil {
		return nil, fmt.Errorf("encode grant: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.tokenURL(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Source: "jira", Err: err}
	}
	defer resp.Body.Close()

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
	if resp.StatusCode != http.StatusOK || body.Error != "" {
		msg := body.ErrorDescription
		if msg == "" {
			msg = body.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: jira: %s", domain.ErrAuthFailed, msg)
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

func classifyTestError(err error) *domain.ConnectionTestResult {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		return &domain.ConnectionTestResult{
			Status:  domain.ConnectionAuthError,
			Message: "Invalid or expired Jira token",
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
