package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ContentKind tags a NormalizedContent variant.
type ContentKind string

const (
	// ContentPullRequest is a normalised pull request.
	ContentPullRequest ContentKind = "pull_request"
	// ContentCodeReview is a normalised code review.
	ContentCodeReview ContentKind = "code_review"
	// ContentIssue is a normalised issue-tracker issue.
	ContentIssue ContentKind = "issue"
	// ContentDocument is a normalised document from a file store.
	ContentDocument ContentKind = "document"
	// ContentRaw is the passthrough variant for unknown
	// (source system, artifact type) pairs.
	ContentRaw ContentKind = "raw"
)

// NormalizedContent is the canonical content structure produced by the
// normaliser. Exactly one of the typed fields matching Kind is set; for
// ContentRaw the original payload is carried through unchanged in Raw.
//
// The scorer reads typed fields instead of probing a generic map.
type NormalizedContent struct {
	Kind        ContentKind         `json:"kind"`
	PullRequest *PullRequestContent `json:"pull_request,omitempty"`
	CodeReview  *CodeReviewContent  `json:"code_review,omitempty"`
	Issue       *IssueContent       `json:"issue,omitempty"`
	Document    *DocumentContent    `json:"document,omitempty"`
	Raw         map[string]any      `json:"raw,omitempty"`
}

// PullRequestContent holds the evidence-relevant fields of a pull request.
type PullRequestContent struct {
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	State        string     `json:"state"`
	Merged       bool       `json:"merged"`
	Author       string     `json:"author"`
	Reviewers    []string   `json:"reviewers,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
	BaseBranch   string     `json:"base_branch"`
	HeadBranch   string     `json:"head_branch"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
}

// CodeReviewContent holds the evidence-relevant fields of a review.
type CodeReviewContent struct {
	State       string     `json:"state"`
	Reviewer    string     `json:"reviewer"`
	Body        string     `json:"body"`
	PRNumber    int        `json:"pr_number"`
	PRTitle     string     `json:"pr_title"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// IssueContent holds the evidence-relevant fields of an issue-tracker issue.
type IssueContent struct {
	Key            string           `json:"key"`
	Summary        string           `json:"summary"`
	Description    string           `json:"description"`
	IssueType      string           `json:"issue_type"`
	Status         string           `json:"status"`
	StatusCategory string           `json:"status_category,omitempty"`
	Priority       string           `json:"priority,omitempty"`
	Assignee       string           `json:"assignee,omitempty"`
	Reporter       string           `json:"reporter,omitempty"`
	Labels         []string         `json:"labels,omitempty"`
	Components     []string         `json:"components,omitempty"`
	Created        *time.Time       `json:"created,omitempty"`
	Updated        *time.Time       `json:"updated,omitempty"`
	Resolved       *time.Time       `json:"resolved,omitempty"`
	Changelog      []ChangelogEntry `json:"changelog,omitempty"`
}

// ChangelogEntry records one field transition in an issue's history.
// Only status, assignee and resolution changes are tracked.
type ChangelogEntry struct {
	Field     string     `json:"field"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	ChangedBy string     `json:"changed_by"`
	ChangedAt *time.Time `json:"changed_at,omitempty"`
}

// DocumentContent holds the evidence-relevant fields of a stored document.
type DocumentContent struct {
	Name         string     `json:"name"`
	MIMEType     string     `json:"mime_type"`
	Owner        string     `json:"owner,omitempty"`
	LastModifier string     `json:"last_modifier,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	ModifiedAt   *time.Time `json:"modified_at,omitempty"`
	WebLink      string     `json:"web_link,omitempty"`
}

// SearchText flattens the content into a lower-cased string for keyword
// matching in the mapping engine.
func (c NormalizedContent) SearchText() string {
	var sb strings.Builder

	switch c.Kind {
	case ContentPullRequest:
		if pr := c.PullRequest; pr != nil {
			sb.WriteString(pr.Title)
			sb.WriteByte(' ')
			sb.WriteString(pr.Description)
			sb.WriteByte(' ')
			sb.WriteString(pr.State)
			sb.WriteByte(' ')
			sb.WriteString(strings.Join(pr.Labels, " "))
			sb.WriteByte(' ')
			sb.WriteString(pr.BaseBranch)
			sb.WriteByte(' ')
			sb.WriteString(pr.HeadBranch)
		}
	case ContentCodeReview:
		if r := c.CodeReview; r != nil {
			sb.WriteString(r.State)
			sb.WriteByte(' ')
			sb.WriteString(r.Body)
			sb.WriteByte(' ')
			sb.WriteString(r.PRTitle)
		}
	case ContentIssue:
		if i := c.Issue; i != nil {
			sb.WriteString(i.Summary)
			sb.WriteByte(' ')
			sb.WriteString(i.Description)
			sb.WriteByte(' ')
			sb.WriteString(i.Status)
			sb.WriteByte(' ')
			sb.WriteString(strings.Join(i.Labels, " "))
			sb.WriteByte(' ')
			sb.WriteString(strings.Join(i.Components, " "))
		}
	case ContentDocument:
		if d := c.Document; d != nil {
			sb.WriteString(d.Name)
			sb.WriteByte(' ')
			sb.WriteString(d.MIMEType)
		}
	case ContentRaw:
		// Fall back to the JSON form of the passthrough payload.
		if b, err := json.Marshal(c.Raw); err == nil {
			sb.Write(b)
		}
	}

	return strings.ToLower(sb.String())
}
