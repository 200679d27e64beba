package domain

import "time"

// ArtifactType classifies a piece of evidence by what it is in the source
// system.
type ArtifactType string

const (
	// ArtifactPullRequest is a GitHub pull request.
	ArtifactPullRequest ArtifactType = "pull_request"
	// ArtifactCodeReview is a review submitted on a pull request.
	ArtifactCodeReview ArtifactType = "code_review"
	// ArtifactCommit is a single commit.
	ArtifactCommit ArtifactType = "commit"
	// ArtifactJiraIssue is a Jira issue with its change history.
	ArtifactJiraIssue ArtifactType = "jira_issue"
	// ArtifactDocument is a generic document from a file store.
	ArtifactDocument ArtifactType = "document"
	// ArtifactSpreadsheet is a spreadsheet from a file store.
	ArtifactSpreadsheet ArtifactType = "spreadsheet"
	// ArtifactMeetingNotes is a meeting-notes document.
	ArtifactMeetingNotes ArtifactType = "meeting_notes"
	// ArtifactPolicy is a policy or procedure document.
	ArtifactPolicy ArtifactType = "policy"
)

// ApprovalStatus tracks operator review of an artifact.
type ApprovalStatus string

const (
	// ApprovalPending means the artifact has not been reviewed.
	ApprovalPending ApprovalStatus = "pending"
	// ApprovalApproved means an operator accepted the artifact as evidence.
	ApprovalApproved ApprovalStatus = "approved"
	// ApprovalRejected means an operator rejected the artifact.
	ApprovalRejected ApprovalStatus = "rejected"
)

// RawArtifact is a connector's output before normalisation. It is transient
// and never persisted as-is.
type RawArtifact struct {
	// SourceSystem identifies the connector that produced this artifact
	// (e.g. "github", "jira", "google_drive").
	SourceSystem string

	// SourceObjectID is the artifact's identity within the source system
	// (e.g. "PR#42", "Review#1001", a Drive file ID). Together with
	// SourceSystem and the organization it forms the durable identity.
	SourceObjectID string

	// SourceURL is the deep link to the artifact in the source system.
	SourceURL string

	// SourceCreatedAt is when the artifact was created upstream, if known.
	SourceCreatedAt *time.Time

	// Type classifies the artifact.
	Type ArtifactType

	// Title is the human-readable title.
	Title string

	// RawContent is the source system's payload, as decoded JSON.
	RawContent map[string]any

	// CapturedAt is when the connector fetched this artifact.
	CapturedAt time.Time

	// PeriodStart and PeriodEnd bound the calendar interval this artifact
	// evidences, when one applies. Used for monthly coverage.
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// EvidenceArtifact is the persisted, canonical form of a piece of evidence.
//
// Exactly one row exists per (OrgID, SourceSystem, SourceObjectID); content
// may change across syncs without changing that identity.
type EvidenceArtifact struct {
	// ID is the unique identifier (UUID).
	ID string

	// OrgID scopes the artifact to an organization.
	OrgID string

	// SyncJobID links to the job that first captured this artifact, if any.
	SyncJobID string

	// Source provenance.
	SourceSystem    string
	SourceObjectID  string
	SourceURL       string
	SourceCreatedAt *time.Time
	CapturedAt      time.Time

	// ContentHash is the SHA-256 of the canonical raw content. Equal hashes
	// mean the evidentiary facts are unchanged.
	ContentHash string

	// Artifact data.
	Type       ArtifactType
	Title      string
	RawContent map[string]any
	Normalized NormalizedContent

	// Period coverage.
	PeriodStart *time.Time
	PeriodEnd   *time.Time

	// ApprovalStatus tracks operator review.
	ApprovalStatus ApprovalStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoversPeriod reports whether the artifact's own period lies within the
// given query range. Artifacts without a period never cover anything.
func (a *EvidenceArtifact) CoversPeriod(rng DateRange) bool {
	if a.PeriodStart == nil || a.PeriodEnd == nil {
		return false
	}
	return !a.PeriodStart.Before(rng.Start) && !a.PeriodEnd.After(rng.End)
}
