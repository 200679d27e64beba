package driven

import (
	"context"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

// Connector talks to one source system. Each connector type (github, jira,
// google_drive) implements this interface; the set is closed and resolved
// through ConnectorFactory at composition time.
type Connector interface {
	// Type returns the connector type identifier.
	Type() domain.ConnectorType

	// AuthURL constructs the OAuth authorization URL. The state parameter
	// is carried through the provider for CSRF protection.
	AuthURL(state string) string

	// ExchangeCode exchanges an authorization code for OAuth credentials.
	ExchangeCode(ctx context.Context, code string) (*domain.OAuthCredentials, error)

	// RefreshToken obtains fresh credentials using the stored refresh
	// token. Returns domain.ErrTokenRefreshFailed (wrapped) when the
	// provider rejects the refresh token, and domain.ErrAuthFailed when no
	// refresh token is available.
	RefreshToken(ctx context.Context) (*domain.OAuthCredentials, error)

	// TestConnection verifies the stored credentials with a lightweight
	// API call, distinguishing auth, permission and network failures.
	TestConnection(ctx context.Context) (*domain.ConnectionTestResult, error)

	// ListResources lists the syncable resources the credentials can see:
	// repositories for GitHub, projects for Jira, folders for Drive.
	ListResources(ctx context.Context, filter domain.ResourceFilter) ([]domain.ResourceRef, error)

	// FetchArtifacts opens a pull-based stream of raw artifacts from one
	// resource. The date range is a best-effort server-side prefilter:
	// because some source APIs sort by last-modified rather than creation
	// time, the stream may include artifacts outside the range or miss
	// ones near its boundary. Pagination is private to the iterator.
	// Passing nil artifact types fetches the connector's defaults.
	FetchArtifacts(ctx context.Context, resourceID string, dateRange domain.DateRange, types []domain.ArtifactType) (ArtifactIterator, error)

	// ArtifactURL returns the deep link to an artifact in the source
	// system.
	ArtifactURL(artifact *domain.RawArtifact) string
}

// ArtifactIterator is a finite, cancellable pull stream of raw artifacts.
// Errors surface at the failing pull: a rate-limited page fetch is reported
// by the Next call that needed that page.
type ArtifactIterator interface {
	// Next returns the next artifact. It returns domain.ErrEndOfStream
	// when the sequence is exhausted. The stream is restartable only by
	// re-invoking FetchArtifacts with the same parameters.
	Next(ctx context.Context) (*domain.RawArtifact, error)

	// Close releases resources held by the iterator. Safe to call more
	// than once.
	Close() error
}

// ConnectorFactory resolves connectors for integrations from a closed,
// static table built at startup. There is no runtime registration.
type ConnectorFactory interface {
	// Create returns a connector bound to the integration's credentials.
	// Returns domain.ErrUnsupportedType for unknown connector types.
	Create(integration *domain.Integration) (Connector, error)

	// SupportedTypes returns the closed set of connector types.
	SupportedTypes() []domain.ConnectorType
}
