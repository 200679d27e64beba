package domain

import "time"

// ConnectorType identifies a supported source system. The set is closed:
// connectors are resolved through a static lookup table at startup, never
// registered at runtime.
type ConnectorType string

const (
	// ConnectorGitHub syncs pull requests and code reviews.
	ConnectorGitHub ConnectorType = "github"
	// ConnectorJira syncs issues and their change histories.
	ConnectorJira ConnectorType = "jira"
	// ConnectorGoogleDrive syncs documents and policies.
	ConnectorGoogleDrive ConnectorType = "google_drive"
)

// ConnectorTypes lists every supported connector type.
func ConnectorTypes() []ConnectorType {
	return []ConnectorType{ConnectorGitHub, ConnectorJira, ConnectorGoogleDrive}
}

// IntegrationStatus is the connection state of an integration.
type IntegrationStatus string

const (
	// IntegrationConnected means credentials are present and working.
	IntegrationConnected IntegrationStatus = "connected"
	// IntegrationDisconnected means no working credentials.
	IntegrationDisconnected IntegrationStatus = "disconnected"
	// IntegrationError means the last operation failed.
	IntegrationError IntegrationStatus = "error"
)

// Integration is a configured connection to one source system for one
// organization.
type Integration struct {
	// ID is the unique identifier (UUID).
	ID string

	// OrgID scopes the integration to an organization.
	OrgID string

	// ConnectorType identifies the source system.
	ConnectorType ConnectorType

	// Status is the connection state.
	Status IntegrationStatus

	// ResourceIDs are the resources to sync (repositories, projects,
	// folders), in processing order.
	ResourceIDs []string

	// Credentials authenticate connector calls. Nil until authorized.
	Credentials *OAuthCredentials

	// Tracking.
	LastSyncAt *time.Time
	LastError  string

	CreatedAt time.Time
	UpdatedAt time.Time
}
