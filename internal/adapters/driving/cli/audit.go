package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit log",
	Long:  `Lists recorded sync, review and mapping events, newest first.`,
	RunE:  runAudit,
}

var auditLimit int

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum entries to show")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	if auditStore == nil {
		return errors.New("audit store not configured")
	}

	entries, err := auditStore.List(context.Background(), orgID, auditLimit)
	if err != nil {
		return fmt.Errorf("failed to list audit entries: %w", err)
	}

	if len(entries) == 0 {
		cmd.Println("Audit log is empty.")
		return nil
	}

	for i := range entries {
		e := &entries[i]
		cmd.Printf("%s  %s\n", e.OccurredAt.Format(time.RFC3339), e.EventType)
		cmd.Printf("  %s\n", e.Description)
		for k, v := range e.Detail {
			cmd.Printf("  %s: %s\n", k, v)
		}
	}
	return nil
}
