package jira

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/attest-cli/internal/normalize/payload"
)

// pageSize is the maxResults value for issue search pagination.
const pageSize = 100

// createdTimeLayout is Jira's issue timestamp format.
const createdTimeLayout = "2006-01-02T15:04:05.000-0700"

var _ driven.ArtifactIterator = (*artifactIterator)(nil)

// artifactIterator pages through a project's issues newest-created first.
// The changelog is fetched inline via the expand parameter so each issue
// arrives with its full transition history.
type artifactIterator struct {
	conn       *Connector
	projectKey string
	dateRange  domain.DateRange

	startAt int
	queue   []map[string]any
	done    bool
	closed  bool
}

func (it *artifactIterator) Next(ctx context.Context) (*domain.RawArtifact, error) {
	for {
		if it.closed {
			return nil, domain.ErrEndOfStream
		}
		if len(it.queue) > 0 {
			issue := it.queue[0]
			it.queue = it.queue[1:]
			return issueArtifact(it.conn.siteURL, issue)
		}
		if it.done {
			return nil, domain.ErrEndOfStream
		}
		if err := it.fetchPage(ctx); err != nil {
			return nil, err
		}
	}
}

func (it *artifactIterator) Close() error {
	it.closed = true
	it.queue = nil
	return nil
}

func (it *artifactIterator) fetchPage(ctx context.Context) error {
	jql := fmt.Sprintf(`project = %s AND created >= "%s" AND created <= "%s" ORDER BY created DESC`,
		it.projectKey,
		it.dateRange.Start.Format("2006-01-02"),
		it.dateRange.End.Format("2006-01-02"))

	params := url.Values{
		"jql":        {jql},
		"startAt":    {fmt.Sprintf("%d", it.startAt)},
		"maxResults": {fmt.Sprintf("%d", pageSize)},
		"expand":     {"changelog,transitions"},
		"fields":     {"*all"},
	}
	page, err := it.conn.getJSON(ctx, it.conn.apiURL("/search")+"?"+params.Encode())
	if err != nil {
		return err
	}

	issues := payload.Slice(page, "issues")
	for _, v := range issues {
		if issue, ok := v.(map[string]any); ok {
			it.queue = append(it.queue, issue)
		}
	}

	it.startAt += len(issues)
	total := payload.Int(page, "total")
	if len(issues) == 0 || it.startAt >= total {
		it.done = true
	}
	return nil
}

// issueArtifact converts one raw issue payload into an artifact. Issues
// without a key are malformed and reported as validation errors; the
// stream continues past them.
func issueArtifact(siteURL string, issue map[string]any) (*domain.RawArtifact, error) {
	key := payload.String(issue, "key")
	if key == "" {
		return nil, fmt.Errorf("%w: jira issue without key", domain.ErrValidation)
	}

	artifact := &domain.RawArtifact{
		SourceSystem:   string(domain.ConnectorJira),
		SourceObjectID: key,
		SourceURL:      siteURL + "/browse/" + key,
		Type:           domain.ArtifactJiraIssue,
		Title:          key,
		RawContent:     issue,
		CapturedAt:     time.Now().UTC(),
	}
	if summary := payload.String(issue, "fields", "summary"); summary != "" {
		artifact.Title = fmt.Sprintf("%s: %s", key, summary)
	}
	if created := parseIssueTime(payload.String(issue, "fields", "created")); created != nil {
		artifact.SourceCreatedAt = created
		artifact.PeriodStart = created
		artifact.PeriodEnd = created
	}
	return artifact, nil
}

func parseIssueTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(createdTimeLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil
		}
	}
	return &t
}
