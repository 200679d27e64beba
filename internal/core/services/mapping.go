package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/attest-cli/internal/logger"
)

// autoMapThreshold is the minimum confidence for persisting an automatic
// mapping. Scores at or below it are discarded.
const autoMapThreshold = 0.5

// Ensure MappingEngine implements the interface.
var _ driving.MappingService = (*MappingEngine)(nil)

// MappingEngine scores artifacts against control rules and persists the
// qualifying mappings.
type MappingEngine struct {
	artifacts driven.ArtifactStore
	mappings  driven.MappingStore
	audit     driven.AuditStore
	rules     []domain.ControlRule
}

// NewMappingEngine creates a mapping engine over the given rule set.
func NewMappingEngine(
	artifacts driven.ArtifactStore,
	mappings driven.MappingStore,
	audit driven.AuditStore,
	rules []domain.ControlRule,
) *MappingEngine {
	return &MappingEngine{
		artifacts: artifacts,
		mappings:  mappings,
		audit:     audit,
		rules:     rules,
	}
}

// AutoMap scores a persisted artifact against every control rule and
// persists the mappings whose confidence exceeds the threshold.
// Re-running updates existing rows in place and never duplicates.
func (e *MappingEngine) AutoMap(ctx context.Context, orgID, artifactID string) ([]domain.ControlMapping, error) {
	artifact, err := e.artifacts.Get(ctx, orgID, artifactID)
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}

	var created []domain.ControlMapping
	for _, rule := range e.rules {
		score, rationale := e.evaluate(artifact, &rule)
		if score <= autoMapThreshold {
			continue
		}

		mapping := domain.ControlMapping{
			ID:         uuid.NewString(),
			ArtifactID: artifact.ID,
			ControlID:  rule.ControlID,
			Source:     domain.MappingAuto,
			Confidence: score,
			Rationale:  rationale,
		}
		if err := e.mappings.Upsert(ctx, &mapping); err != nil {
			return nil, fmt.Errorf("save mapping %s: %w", rule.ControlID, err)
		}
		logger.Debug("Mapped %s to %s (%.2f)", artifact.SourceObjectID, rule.ControlID, score)
		created = append(created, mapping)
	}
	return created, nil
}

// ManualMap records an operator-assigned mapping with confidence 1.0.
func (e *MappingEngine) ManualMap(ctx context.Context, orgID, artifactID, controlID, rationale string) (*domain.ControlMapping, error) {
	artifact, err := e.artifacts.Get(ctx, orgID, artifactID)
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	if e.ruleFor(controlID) == nil {
		return nil, fmt.Errorf("%w: unknown control %q", domain.ErrInvalidInput, controlID)
	}

	mapping := domain.ControlMapping{
		ID:         uuid.NewString(),
		ArtifactID: artifact.ID,
		ControlID:  controlID,
		Source:     domain.MappingManual,
		Confidence: 1.0,
		Rationale:  rationale,
	}
	if err := e.mappings.Upsert(ctx, &mapping); err != nil {
		return nil, fmt.Errorf("save mapping: %w", err)
	}

	if err := e.audit.Append(ctx, &domain.AuditEntry{
		ID:          uuid.NewString(),
		OrgID:       orgID,
		EventType:   domain.AuditMappingCreated,
		EntityType:  "artifact",
		EntityID:    artifact.ID,
		Description: fmt.Sprintf("Manually mapped %q to %s", artifact.Title, controlID),
		OccurredAt:  time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	return &mapping, nil
}

// Rules returns the configured control rules.
func (e *MappingEngine) Rules() []domain.ControlRule {
	return e.rules
}

func (e *MappingEngine) ruleFor(controlID string) *domain.ControlRule {
	for i := range e.rules {
		if e.rules[i].ControlID == controlID {
			return &e.rules[i]
		}
	}
	return nil
}

// evaluate scores one artifact against one rule. The score is additive:
// type match 0.4, distinct keyword hits 0.15 each capped at 0.45, merged
// pull request 0.1, assigned reviewers 0.05, issue change history 0.1,
// clamped to 1.0.
func (e *MappingEngine) evaluate(artifact *domain.EvidenceArtifact, rule *domain.ControlRule) (float64, string) {
	var score float64
	var reasons []string

	if rule.RequiresType(artifact.Type) {
		score += 0.4
		reasons = append(reasons, fmt.Sprintf("Artifact type '%s' matches control requirements", artifact.Type))
	}

	haystack := strings.ToLower(artifact.Title) + " " + artifact.Normalized.SearchText()
	var hits []string
	for _, keyword := range rule.Keywords {
		if strings.Contains(haystack, strings.ToLower(keyword)) {
			hits = append(hits, keyword)
		}
	}
	if len(hits) > 0 {
		score += min(float64(len(hits))*0.15, 0.45)
		reasons = append(reasons, "Contains relevant keywords: "+strings.Join(hits, ", "))
	}

	if artifact.Type == domain.ArtifactPullRequest {
		if pr := artifact.Normalized.PullRequest; pr != nil {
			if pr.Merged {
				score += 0.1
				reasons = append(reasons, "PR was merged (completed change)")
			}
			if len(pr.Reviewers) > 0 {
				score += 0.05
				reasons = append(reasons, "PR has reviewers assigned")
			}
		}
	}

	if artifact.Type == domain.ArtifactJiraIssue {
		if issue := artifact.Normalized.Issue; issue != nil && len(issue.Changelog) > 0 {
			score += 0.1
			reasons = append(reasons, "Issue has status change history")
		}
	}

	rationale := "No strong mapping indicators"
	if len(reasons) > 0 {
		rationale = strings.Join(reasons, "; ")
	}
	return min(score, 1.0), rationale
}
