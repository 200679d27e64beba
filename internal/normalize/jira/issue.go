// Package jira normalises raw Jira Cloud API payloads into canonical
// evidence content.
package jira

import (
	"time"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/normalize/payload"
)

// Jira timestamps carry milliseconds and a zone offset without a colon,
// e.g. "2024-03-05T09:41:12.000+0000".
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// NormalizeIssue maps a raw Jira issue payload to the canonical issue
// variant. Changelog histories are reduced to status, assignee and
// resolution transitions.
func NormalizeIssue(raw *domain.RawArtifact) domain.NormalizedContent {
	content := raw.RawContent
	fields := payload.Map(content, "fields")

	return domain.NormalizedContent{
		Kind: domain.ContentIssue,
		Issue: &domain.IssueContent{
			Key:            payload.String(content, "key"),
			Summary:        payload.String(fields, "summary"),
			Description:    payload.String(fields, "description"),
			IssueType:      payload.String(fields, "issuetype", "name"),
			Status:         payload.String(fields, "status", "name"),
			StatusCategory: payload.String(fields, "status", "statusCategory", "name"),
			Priority:       payload.String(fields, "priority", "name"),
			Assignee:       payload.String(fields, "assignee", "displayName"),
			Reporter:       payload.String(fields, "reporter", "displayName"),
			Labels:         payload.StringList(fields, "labels"),
			Components:     payload.Strings(fields, "name", "components"),
			Created:        parseTime(payload.String(fields, "created")),
			Updated:        parseTime(payload.String(fields, "updated")),
			Resolved:       parseTime(payload.String(fields, "resolutiondate")),
			Changelog:      extractChangelog(payload.Map(content, "changelog")),
		},
	}
}

// extractChangelog keeps the transitions that matter for an audit trail.
func extractChangelog(changelog map[string]any) []domain.ChangelogEntry {
	var entries []domain.ChangelogEntry
	for _, h := range payload.Slice(changelog, "histories") {
		history, ok := h.(map[string]any)
		if !ok {
			continue
		}
		author := payload.String(history, "author", "displayName")
		changedAt := parseTime(payload.String(history, "created"))
		for _, i := range payload.Slice(history, "items") {
			item, ok := i.(map[string]any)
			if !ok {
				continue
			}
			field := payload.String(item, "field")
			switch field {
			case "status", "assignee", "resolution":
				entries = append(entries, domain.ChangelogEntry{
					Field:     field,
					From:      payload.String(item, "fromString"),
					To:        payload.String(item, "toString"),
					ChangedBy: author,
					ChangedAt: changedAt,
				})
			}
		}
	}
	return entries
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{jiraTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
