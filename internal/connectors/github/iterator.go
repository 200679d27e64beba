package github

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

var _ driven.ArtifactIterator = (*artifactIterator)(nil)

// artifactIterator pages through a repository's pull requests newest-update
// first, emitting each PR followed by its dispositive reviews. Pull requests
// created outside the requested date range are skipped without ending the
// stream, because update order does not follow creation order.
type artifactIterator struct {
	conn        *Connector
	client      *gh.Client
	owner       string
	repo        string
	dateRange   domain.DateRange
	wantPRs     bool
	wantReviews bool

	page   int
	queue  []queueItem
	done   bool
	closed bool
}

// queueItem is one fetched API object awaiting conversion. A nil review
// means the item is the pull request itself.
type queueItem struct {
	pr     *gh.PullRequest
	review *gh.PullRequestReview
}

// Next pops a fetched item and converts it. Conversion happens after the
// pop so a malformed item is consumed even when it fails validation and
// the stream can continue past it.
func (it *artifactIterator) Next(ctx context.Context) (*domain.RawArtifact, error) {
	for {
		if it.closed {
			return nil, domain.ErrEndOfStream
		}
		if len(it.queue) > 0 {
			item := it.queue[0]
			it.queue = it.queue[1:]
			return it.convert(item)
		}
		if it.done {
			return nil, domain.ErrEndOfStream
		}
		if err := it.fetchPage(ctx); err != nil {
			return nil, err
		}
	}
}

func (it *artifactIterator) convert(item queueItem) (*domain.RawArtifact, error) {
	if item.review != nil {
		payload, err := toPayload(item.review)
		if err != nil {
			return nil, fmt.Errorf("%w: review %d: %v", domain.ErrValidation, item.review.GetID(), err)
		}
		return reviewArtifact(item.pr, item.review, payload), nil
	}
	payload, err := toPayload(item.pr)
	if err != nil {
		return nil, fmt.Errorf("%w: pull request #%d: %v", domain.ErrValidation, item.pr.GetNumber(), err)
	}
	return pullRequestArtifact(item.pr, payload), nil
}

func (it *artifactIterator) Close() error {
	it.closed = true
	it.queue = nil
	return nil
}

// fetchPage loads the next page of pull requests and queues the raw
// objects it yields. Sets done when the last page has been consumed.
func (it *artifactIterator) fetchPage(ctx context.Context) error {
	if err := it.conn.limiter.Wait(ctx); err != nil {
		return err
	}

	opts := &gh.PullRequestListOptions{
		State:     "all",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			Page:    it.page,
			PerPage: 100,
		},
	}
	prs, resp, err := it.client.PullRequests.List(ctx, it.owner, it.repo, opts)
	it.conn.updateRateLimit(resp)
	if err != nil {
		return wrapError(err, fmt.Sprintf("list pull requests for %s/%s", it.owner, it.repo))
	}

	for _, pr := range prs {
		created := pr.GetCreatedAt().Time
		if created.Before(it.dateRange.Start) || created.After(it.dateRange.End) {
			continue
		}

		if it.wantPRs {
			it.queue = append(it.queue, queueItem{pr: pr})
		}
		if it.wantReviews {
			if err := it.queueReviews(ctx, pr); err != nil {
				return err
			}
		}
	}

	if resp.NextPage == 0 {
		it.done = true
		return nil
	}
	it.page = resp.NextPage
	return nil
}

// queueReviews fetches the reviews of one pull request and queues the
// approved and changes-requested ones.
func (it *artifactIterator) queueReviews(ctx context.Context, pr *gh.PullRequest) error {
	opts := &gh.ListOptions{PerPage: 100}
	for {
		if err := it.conn.limiter.Wait(ctx); err != nil {
			return err
		}

		reviews, resp, err := it.client.PullRequests.ListReviews(ctx, it.owner, it.repo, pr.GetNumber(), opts)
		it.conn.updateRateLimit(resp)
		if err != nil {
			return wrapError(err, fmt.Sprintf("list reviews for %s/%s#%d", it.owner, it.repo, pr.GetNumber()))
		}

		for _, review := range reviews {
			state := review.GetState()
			if state != "APPROVED" && state != "CHANGES_REQUESTED" {
				continue
			}
			it.queue = append(it.queue, queueItem{pr: pr, review: review})
		}

		if resp.NextPage == 0 {
			return nil
		}
		opts.Page = resp.NextPage
	}
}

func pullRequestArtifact(pr *gh.PullRequest, payload map[string]any) *domain.RawArtifact {
	created := pr.GetCreatedAt().Time
	periodEnd := created
	if pr.MergedAt != nil {
		periodEnd = pr.GetMergedAt().Time
	}
	return &domain.RawArtifact{
		SourceSystem:    string(domain.ConnectorGitHub),
		SourceObjectID:  fmt.Sprintf("PR#%d", pr.GetNumber()),
		SourceURL:       pr.GetHTMLURL(),
		SourceCreatedAt: &created,
		Type:            domain.ArtifactPullRequest,
		Title:           pr.GetTitle(),
		RawContent:      payload,
		CapturedAt:      time.Now().UTC(),
		PeriodStart:     &created,
		PeriodEnd:       &periodEnd,
	}
}

func reviewArtifact(pr *gh.PullRequest, review *gh.PullRequestReview, payload map[string]any) *domain.RawArtifact {
	artifact := &domain.RawArtifact{
		SourceSystem:   string(domain.ConnectorGitHub),
		SourceObjectID: fmt.Sprintf("Review#%d", review.GetID()),
		SourceURL:      review.GetHTMLURL(),
		Type:           domain.ArtifactCodeReview,
		Title:          fmt.Sprintf("Review on PR#%d: %s", pr.GetNumber(), review.GetState()),
		RawContent: map[string]any{
			"review":    payload,
			"pr_number": float64(pr.GetNumber()),
			"pr_title":  pr.GetTitle(),
		},
		CapturedAt: time.Now().UTC(),
	}
	if review.SubmittedAt != nil {
		submitted := review.GetSubmittedAt().Time
		artifact.SourceCreatedAt = &submitted
		artifact.PeriodStart = &submitted
		artifact.PeriodEnd = &submitted
	}
	return artifact
}

// toPayload round-trips an API struct through JSON into the generic map
// form the rest of the pipeline works with.
func toPayload(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
