package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [integration-id]",
	Short: "Sync evidence artifacts from a connected system",
	Long: `Runs one sync job against the integration's configured resources.
Artifacts are fetched for the given date range, normalised, stored
idempotently and auto-mapped to controls.

The range defaults to the trailing twelve months.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs [integration-id]",
	Short: "List sync jobs for an integration",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobs,
}

var (
	syncFromFlag string
	syncToFlag   string
	jobsLimit    int
)

func init() {
	syncCmd.Flags().StringVar(&syncFromFlag, "from", "", "Start date (YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&syncToFlag, "to", "", "End date (YYYY-MM-DD)")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 10, "Maximum number of jobs to show")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncRunner == nil {
		return errors.New("sync service not configured")
	}

	rng, err := parseDateRange(syncFromFlag, syncToFlag)
	if err != nil {
		return err
	}

	integrationID := args[0]
	cmd.Printf("Syncing integration %s (%s to %s)...\n",
		integrationID, rng.Start.Format(dateLayout), rng.End.Format(dateLayout))

	job, err := syncRunner.RunSync(context.Background(), integrationID, rng)
	if err != nil {
		return fmt.Errorf("sync failed to start: %w", err)
	}

	printJob(cmd, job)
	if job.Status == domain.JobFailed {
		return fmt.Errorf("sync job %s failed", job.ID)
	}
	return nil
}

func runJobs(cmd *cobra.Command, args []string) error {
	if syncJobStore == nil {
		return errors.New("sync job store not configured")
	}

	jobs, err := syncJobStore.ListForIntegration(context.Background(), args[0], jobsLimit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		cmd.Printf("No sync jobs for integration: %s\n", args[0])
		return nil
	}

	for i := range jobs {
		printJob(cmd, &jobs[i])
	}
	return nil
}

// printJob renders one sync job to the command output.
func printJob(cmd *cobra.Command, job *domain.SyncJob) {
	cmd.Printf("Job %s\n", job.ID)
	cmd.Printf("  Status: %s\n", job.Status)
	cmd.Printf("  Artifacts: %d found, %d created\n", job.ArtifactsFound, job.ArtifactsCreated)
	if job.StartedAt != nil && job.CompletedAt != nil {
		cmd.Printf("  Duration: %s\n", job.CompletedAt.Sub(*job.StartedAt).Round(time.Millisecond))
	}
	if job.ErrorDetails != nil {
		cmd.Printf("  Error: %s\n", job.ErrorDetails.Message)
		if job.ErrorDetails.ResourceID != "" {
			cmd.Printf("  Resource: %s\n", job.ErrorDetails.ResourceID)
		}
		if job.ErrorDetails.Retryable {
			if job.ErrorDetails.RetryAfter > 0 {
				cmd.Printf("  Retry after: %ds\n", job.ErrorDetails.RetryAfter)
			} else {
				cmd.Println("  Retryable: yes")
			}
		}
	}
	cmd.Println()
}
