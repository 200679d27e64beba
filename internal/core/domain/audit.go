package domain

import "time"

// AuditEventType classifies audit log entries.
type AuditEventType string

const (
	// AuditSyncStarted records the start of a sync job.
	AuditSyncStarted AuditEventType = "integration.sync_started"
	// AuditSyncCompleted records a successful sync job.
	AuditSyncCompleted AuditEventType = "integration.sync_completed"
	// AuditSyncFailed records a failed sync job.
	AuditSyncFailed AuditEventType = "integration.sync_failed"
	// AuditArtifactApproved records an operator approving an artifact.
	AuditArtifactApproved AuditEventType = "artifact.approved"
	// AuditArtifactRejected records an operator rejecting an artifact.
	AuditArtifactRejected AuditEventType = "artifact.rejected"
	// AuditMappingCreated records a manual control mapping.
	AuditMappingCreated AuditEventType = "mapping.created"
)

// AuditEntry is one append-only audit log record.
type AuditEntry struct {
	// ID is the unique identifier (UUID).
	ID string

	// OrgID scopes the entry to an organization.
	OrgID string

	// EventType classifies the event.
	EventType AuditEventType

	// EntityType and EntityID identify the affected entity
	// (e.g. "integration", "artifact").
	EntityType string
	EntityID   string

	// Description is the human-readable summary.
	Description string

	// Detail carries event-specific key-value facts.
	Detail map[string]string

	// OccurredAt is when the event happened.
	OccurredAt time.Time
}
