package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage [control-id]",
	Short: "Report month-by-month evidence coverage",
	Long: `Computes evidence coverage per control over an audit period.
With a control ID, reports that control alone; otherwise every
configured control is reported.

The period defaults to the trailing twelve months.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCoverage,
}

var gapsCmd = &cobra.Command{
	Use:   "gaps [control-id]",
	Short: "Detect evidence gaps for a control",
	Long: `Scans a control's evidence over an audit period and reports
deficiencies: missing artifact types, unapproved artifacts and
uncovered month ranges.`,
	Args: cobra.ExactArgs(1),
	RunE: runGaps,
}

var (
	coverageFromFlag string
	coverageToFlag   string
	gapsFromFlag     string
	gapsToFlag       string
)

func init() {
	coverageCmd.Flags().StringVar(&coverageFromFlag, "from", "", "Period start (YYYY-MM-DD)")
	coverageCmd.Flags().StringVar(&coverageToFlag, "to", "", "Period end (YYYY-MM-DD)")
	gapsCmd.Flags().StringVar(&gapsFromFlag, "from", "", "Period start (YYYY-MM-DD)")
	gapsCmd.Flags().StringVar(&gapsToFlag, "to", "", "Period end (YYYY-MM-DD)")

	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(gapsCmd)
}

func runCoverage(cmd *cobra.Command, args []string) error {
	if coverageReporter == nil {
		return errors.New("coverage service not configured")
	}

	rng, err := parseDateRange(coverageFromFlag, coverageToFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(args) == 1 {
		cov, err := coverageReporter.PeriodCoverage(ctx, orgID, args[0], rng)
		if err != nil {
			return fmt.Errorf("failed to compute coverage: %w", err)
		}
		printCoverage(cmd, cov)
		return nil
	}

	covs, err := coverageReporter.AllControlsCoverage(ctx, orgID, rng)
	if err != nil {
		return fmt.Errorf("failed to compute coverage: %w", err)
	}
	for i := range covs {
		printCoverage(cmd, &covs[i])
	}
	return nil
}

func runGaps(cmd *cobra.Command, args []string) error {
	if coverageReporter == nil {
		return errors.New("coverage service not configured")
	}

	rng, err := parseDateRange(gapsFromFlag, gapsToFlag)
	if err != nil {
		return err
	}

	gaps, err := coverageReporter.DetectGaps(context.Background(), orgID, args[0], rng)
	if err != nil {
		return fmt.Errorf("failed to detect gaps: %w", err)
	}

	if len(gaps) == 0 {
		cmd.Printf("No gaps detected for control %s.\n", args[0])
		return nil
	}

	cmd.Printf("%d gap(s) for control %s:\n\n", len(gaps), args[0])
	for i := range gaps {
		printGap(cmd, &gaps[i])
	}
	return nil
}

func printCoverage(cmd *cobra.Command, cov *domain.PeriodCoverage) {
	cmd.Printf("%s  %s\n", cov.ControlID, cov.ControlName)
	cmd.Printf("  Coverage: %.1f%% (%d of %d months)\n",
		cov.CoveragePercentage,
		len(cov.MonthsCovered),
		len(cov.MonthsCovered)+len(cov.MonthsMissing))
	cmd.Printf("  Artifacts: %d (%d approved)\n", cov.ArtifactCount, cov.ApprovedCount)
	if len(cov.MonthsMissing) > 0 {
		cmd.Printf("  Missing: %s\n", strings.Join(cov.MonthsMissing, ", "))
	}
	cmd.Println()
}

func printGap(cmd *cobra.Command, gap *domain.CoverageGap) {
	cmd.Printf("  [%s] %s\n", strings.ToUpper(string(gap.Severity)), gap.Type)
	cmd.Printf("    %s\n", gap.Description)
	if gap.AffectedStart != nil && gap.AffectedEnd != nil {
		cmd.Printf("    Affected: %s to %s\n",
			gap.AffectedStart.Format(dateLayout), gap.AffectedEnd.Format(dateLayout))
	}
	if gap.RecommendedAction != "" {
		cmd.Printf("    Action: %s\n", gap.RecommendedAction)
	}
	cmd.Println()
}
