package github

import (
	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/normalize/payload"
)

// NormalizeCodeReview maps a raw review payload to the canonical code
// review variant. The connector wraps each review together with the pull
// request it belongs to under "review", "pr_number" and "pr_title".
func NormalizeCodeReview(raw *domain.RawArtifact) domain.NormalizedContent {
	content := raw.RawContent

	return domain.NormalizedContent{
		Kind: domain.ContentCodeReview,
		CodeReview: &domain.CodeReviewContent{
			State:       payload.String(content, "review", "state"),
			Reviewer:    payload.String(content, "review", "user", "login"),
			Body:        payload.String(content, "review", "body"),
			PRNumber:    payload.Int(content, "pr_number"),
			PRTitle:     payload.String(content, "pr_title"),
			SubmittedAt: payload.Time(content, "review", "submitted_at"),
		},
	}
}
