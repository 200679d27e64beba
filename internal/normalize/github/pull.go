// Package github normalises raw GitHub API payloads into canonical
// evidence content.
package github

import (
	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/normalize/payload"
)

// NormalizePullRequest maps a raw pull request payload to the canonical
// pull request variant. Requested reviewers are recorded by login.
func NormalizePullRequest(raw *domain.RawArtifact) domain.NormalizedContent {
	pr := raw.RawContent

	return domain.NormalizedContent{
		Kind: domain.ContentPullRequest,
		PullRequest: &domain.PullRequestContent{
			Number:       payload.Int(pr, "number"),
			Title:        payload.String(pr, "title"),
			Description:  payload.String(pr, "body"),
			State:        payload.String(pr, "state"),
			Merged:       payload.Bool(pr, "merged"),
			Author:       payload.String(pr, "user", "login"),
			Reviewers:    payload.Strings(pr, "login", "requested_reviewers"),
			Labels:       payload.Strings(pr, "name", "labels"),
			BaseBranch:   payload.String(pr, "base", "ref"),
			HeadBranch:   payload.String(pr, "head", "ref"),
			CreatedAt:    payload.Time(pr, "created_at"),
			MergedAt:     payload.Time(pr, "merged_at"),
			ClosedAt:     payload.Time(pr, "closed_at"),
			Additions:    payload.Int(pr, "additions"),
			Deletions:    payload.Int(pr, "deletions"),
			ChangedFiles: payload.Int(pr, "changed_files"),
		},
	}
}
