package googledrive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

const (
	// folderMimeType is the Drive MIME type for folders.
	folderMimeType = "application/vnd.google-apps.folder"

	// spreadsheetMimeType is the Drive MIME type for Google Sheets.
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

	// requestsPerSecond throttles Drive API calls well under the
	// per-user quota (about 12000 per minute).
	requestsPerSecond = 8
)

var _ driven.Connector = (*Connector)(nil)

// Connector syncs documents from Google Drive folders.
type Connector struct {
	cfg     Config
	creds   *domain.OAuthCredentials
	svc     *drive.Service
	limiter *rate.Limiter
}

// New creates a Google Drive connector. Credentials may be nil until the
// OAuth flow completes; API calls fail with domain.ErrAuthFailed until then.
func New(cfg Config, creds *domain.OAuthCredentials) *Connector {
	return &Connector{
		cfg:     cfg,
		creds:   creds,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() domain.ConnectorType {
	return domain.ConnectorGoogleDrive
}

// AuthURL constructs the Google OAuth authorization URL. The offline
// access type is what makes Google issue a refresh token.
func (c *Connector) AuthURL(state string) string {
	return c.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeCode exchanges an authorization code for OAuth credentials.
func (c *Connector) ExchangeCode(ctx context.Context, code string) (*domain.OAuthCredentials, error) {
	token, err := c.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: google_drive: %v", domain.ErrAuthFailed, err)
	}
	creds := credsFromToken(token)
	c.creds = creds
	c.svc = nil
	return creds, nil
}

// RefreshToken obtains fresh credentials using the stored refresh token.
// Google omits the refresh token from refresh responses, so the stored
// one is carried forward.
func (c *Connector) RefreshToken(ctx context.Context) (*domain.OAuthCredentials, error) {
	if c.creds == nil || !c.creds.CanRefresh() {
		return nil, fmt.Errorf("%w: google_drive: no refresh token available", domain.ErrAuthFailed)
	}

	source := c.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: c.creds.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}

	creds := credsFromToken(token)
	if creds.RefreshToken == "" {
		creds.RefreshToken = c.creds.RefreshToken
	}
	c.creds = creds
	c.svc = nil
	return creds, nil
}

// TestConnection verifies the stored credentials by fetching the Drive
// account profile.
func (c *Connector) TestConnection(ctx context.Context) (*domain.ConnectionTestResult, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	about, err := svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return classifyTestError(wrapError(err, "get about")), nil
	}

	result := &domain.ConnectionTestResult{
		Status:  domain.ConnectionOK,
		Message: "Connected to Google Drive",
		Details: map[string]string{},
	}
	if about.User != nil {
		result.Message = fmt.Sprintf("Connected as %s", about.User.EmailAddress)
		result.Details["email"] = about.User.EmailAddress
		result.Details["displayName"] = about.User.DisplayName
	}
	return result, nil
}

// ListResources lists the folders the credentials can see. Folders are
// the syncable unit for Drive.
func (c *Connector) ListResources(ctx context.Context, filter domain.ResourceFilter) ([]domain.ResourceRef, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("mimeType = '%s' and trashed = false", folderMimeType)
	var refs []domain.ResourceRef
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, webViewLink)").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, wrapError(err, "list folders")
		}

		for _, folder := range page.Files {
			if filter.Search != "" && !strings.Contains(strings.ToLower(folder.Name), strings.ToLower(filter.Search)) {
				continue
			}
			refs = append(refs, domain.ResourceRef{
				ID:   folder.Id,
				Name: folder.Name,
				Type: "folder",
				URL:  folder.WebViewLink,
			})
			if filter.Limit > 0 && len(refs) >= filter.Limit {
				return refs, nil
			}
		}

		if page.NextPageToken == "" {
			return refs, nil
		}
		pageToken = page.NextPageToken
	}
}

// FetchArtifacts opens a pull stream of documents modified in the date
// range within one folder. The resource ID is the folder ID.
func (c *Connector) FetchArtifacts(ctx context.Context, resourceID string, dateRange domain.DateRange, types []domain.ArtifactType) (driven.ArtifactIterator, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	wanted := map[domain.ArtifactType]bool{}
	for _, t := range types {
		wanted[t] = true
	}

	return &artifactIterator{
		conn:      c,
		svc:       svc,
		folderID:  resourceID,
		dateRange: dateRange,
		wanted:    wanted,
	}, nil
}

// ArtifactURL returns the deep link to an artifact in Drive.
func (c *Connector) ArtifactURL(artifact *domain.RawArtifact) string {
	return artifact.SourceURL
}

func (c *Connector) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.RedirectURI,
		Scopes:       c.cfg.scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.cfg.authURL(),
			TokenURL: c.cfg.tokenURL(),
		},
	}
}

// service lazily builds the Drive API client from the credentials.
func (c *Connector) service(ctx context.Context) (*drive.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	if c.creds == nil || c.creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: google_drive: not authorized", domain.ErrAuthFailed)
	}

	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.creds.AccessToken})),
	}
	if c.cfg.APIEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.APIEndpoint))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

func credsFromToken(token *oauth2.Token) *domain.OAuthCredentials {
	return &domain.OAuthCredentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
}

func classifyTestError(err error) *domain.ConnectionTestResult {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		return &domain.ConnectionTestResult{
			Status:  domain.ConnectionAuthError,
			Message: "Invalid or expired Google token",
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
