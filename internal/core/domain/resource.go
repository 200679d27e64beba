package domain

import "time"

// DateRange bounds a sync or coverage query. Both ends are inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ResourceRef points at a syncable resource in a source system: a GitHub
// repository, a Jira project, a Drive folder.
type ResourceRef struct {
	// ID is the resource identifier within the source system.
	ID string
	// Name is the display name (e.g. "org/repo").
	Name string
	// Type is the source-specific resource kind ("repository", "project",
	// "folder").
	Type string
	// URL is the web link to the resource, if any.
	URL string
}

// ResourceFilter constrains a resource listing.
type ResourceFilter struct {
	// Search filters by name substring. Empty matches all.
	Search string
	// Limit caps the number of results. Zero means the connector default.
	Limit int
}

// ConnectionStatus classifies a connection test result.
type ConnectionStatus string

const (
	// ConnectionOK means credentials work.
	ConnectionOK ConnectionStatus = "connected"
	// ConnectionAuthError means the credentials are invalid or expired.
	ConnectionAuthError ConnectionStatus = "auth_error"
	// ConnectionPermissionError means the credentials lack required scopes.
	ConnectionPermissionError ConnectionStatus = "permission_error"
	// ConnectionNetworkError means the source system was unreachable.
	ConnectionNetworkError ConnectionStatus = "network_error"
)

// ConnectionTestResult reports the outcome of a connection test.
type ConnectionTestResult struct {
	Status  ConnectionStatus
	Message string
	// Details carries provider-specific facts (account login, email).
	Details map[string]string
}

// Connected reports whether the test succeeded.
func (r *ConnectionTestResult) Connected() bool {
	return r.Status == ConnectionOK
}
