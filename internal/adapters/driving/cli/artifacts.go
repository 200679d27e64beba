package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Inspect and review evidence artifacts",
	Long:  `List synced evidence artifacts and record approval decisions.`,
}

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List evidence artifacts",
	RunE:  runArtifactsList,
}

var artifactsGetCmd = &cobra.Command{
	Use:   "get [artifact-id]",
	Short: "Show one artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactsGet,
}

var artifactsApproveCmd = &cobra.Command{
	Use:   "approve [artifact-id]",
	Short: "Approve an artifact as audit evidence",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactsApprove,
}

var artifactsRejectCmd = &cobra.Command{
	Use:   "reject [artifact-id]",
	Short: "Reject an artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactsReject,
}

var (
	artifactsSource string
	artifactsType   string
	artifactsStatus string
	artifactsLimit  int
	artifactsOffset int
	reviewReason    string
)

func init() {
	artifactsListCmd.Flags().StringVar(&artifactsSource, "source", "", "Filter by source system (github, jira, google_drive)")
	artifactsListCmd.Flags().StringVar(&artifactsType, "type", "", "Filter by artifact type")
	artifactsListCmd.Flags().StringVar(&artifactsStatus, "status", "", "Filter by approval status (pending, approved, rejected)")
	artifactsListCmd.Flags().IntVar(&artifactsLimit, "limit", 20, "Maximum artifacts to list")
	artifactsListCmd.Flags().IntVar(&artifactsOffset, "offset", 0, "Number of artifacts to skip")
	artifactsApproveCmd.Flags().StringVarP(&reviewReason, "reason", "r", "", "Reason for the decision")
	artifactsRejectCmd.Flags().StringVarP(&reviewReason, "reason", "r", "", "Reason for the decision")

	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsCmd.AddCommand(artifactsGetCmd)
	artifactsCmd.AddCommand(artifactsApproveCmd)
	artifactsCmd.AddCommand(artifactsRejectCmd)
	rootCmd.AddCommand(artifactsCmd)
}

func runArtifactsList(cmd *cobra.Command, _ []string) error {
	if artifactStore == nil {
		return errors.New("artifact store not configured")
	}

	filter := driven.ArtifactFilter{
		SourceSystem:   artifactsSource,
		Type:           domain.ArtifactType(artifactsType),
		ApprovalStatus: domain.ApprovalStatus(artifactsStatus),
		Limit:          artifactsLimit,
		Offset:         artifactsOffset,
	}

	artifacts, err := artifactStore.List(context.Background(), orgID, filter)
	if err != nil {
		return fmt.Errorf("failed to list artifacts: %w", err)
	}

	if len(artifacts) == 0 {
		cmd.Println("No artifacts found.")
		return nil
	}

	for i := range artifacts {
		a := &artifacts[i]
		cmd.Printf("%s  [%s/%s] %s\n", a.ID, a.SourceSystem, a.Type, a.Title)
		cmd.Printf("  Approval: %s  Captured: %s\n",
			a.ApprovalStatus, a.CapturedAt.Format(dateLayout))
	}
	cmd.Printf("\nTotal: %d artifacts\n", len(artifacts))
	return nil
}

func runArtifactsGet(cmd *cobra.Command, args []string) error {
	if artifactStore == nil {
		return errors.New("artifact store not configured")
	}

	a, err := artifactStore.Get(context.Background(), orgID, args[0])
	if err != nil {
		return fmt.Errorf("failed to get artifact: %w", err)
	}

	cmd.Printf("ID: %s\n", a.ID)
	cmd.Printf("Title: %s\n", a.Title)
	cmd.Printf("Source: %s %s\n", a.SourceSystem, a.SourceObjectID)
	cmd.Printf("Type: %s\n", a.Type)
	cmd.Printf("Approval: %s\n", a.ApprovalStatus)
	cmd.Printf("Content hash: %s\n", a.ContentHash)
	if a.SourceURL != "" {
		cmd.Printf("URL: %s\n", a.SourceURL)
	}
	if a.PeriodStart != nil && a.PeriodEnd != nil {
		cmd.Printf("Period: %s to %s\n",
			a.PeriodStart.Format(dateLayout), a.PeriodEnd.Format(dateLayout))
	}
	cmd.Printf("Captured: %s\n", a.CapturedAt.Format(time.RFC3339))

	if mappingStore != nil {
		mappings, err := mappingStore.ListForArtifact(context.Background(), a.ID)
		if err == nil && len(mappings) > 0 {
			cmd.Println("Mappings:")
			for i := range mappings {
				m := &mappings[i]
				cmd.Printf("  %s (%s, confidence %.2f)\n", m.ControlID, m.Source, m.Confidence)
			}
		}
	}
	return nil
}

func runArtifactsApprove(cmd *cobra.Command, args []string) error {
	return reviewArtifact(cmd, args[0], domain.ApprovalApproved)
}

func runArtifactsReject(cmd *cobra.Command, args []string) error {
	return reviewArtifact(cmd, args[0], domain.ApprovalRejected)
}

// reviewArtifact records an approval decision and its audit trail entry.
func reviewArtifact(cmd *cobra.Command, artifactID string, status domain.ApprovalStatus) error {
	if artifactStore == nil {
		return errors.New("artifact store not configured")
	}

	ctx := context.Background()
	if err := artifactStore.SetApprovalStatus(ctx, orgID, artifactID, status); err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}

	if auditStore != nil {
		eventType := domain.AuditArtifactApproved
		if status == domain.ApprovalRejected {
			eventType = domain.AuditArtifactRejected
		}
		entry := &domain.AuditEntry{
			ID:          uuid.NewString(),
			OrgID:       orgID,
			EventType:   eventType,
			EntityType:  "artifact",
			EntityID:    artifactID,
			Description: fmt.Sprintf("artifact %s %s by operator", artifactID, status),
			OccurredAt:  time.Now().UTC(),
		}
		if reviewReason != "" {
			entry.Detail = map[string]string{"reason": reviewReason}
		}
		if err := auditStore.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to record audit entry: %w", err)
		}
	}

	cmd.Printf("Artifact %s %s.\n", artifactID, status)
	return nil
}
