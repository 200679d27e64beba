package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map artifacts to compliance controls",
}

var mapAutoCmd = &cobra.Command{
	Use:   "auto [artifact-id]",
	Short: "Auto-map an artifact against the control rules",
	Long: `Scores the artifact against every configured control rule and
persists the mappings whose confidence clears the threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: runMapAuto,
}

var mapManualCmd = &cobra.Command{
	Use:   "manual [artifact-id] [control-id]",
	Short: "Manually map an artifact to a control",
	Args:  cobra.ExactArgs(2),
	RunE:  runMapManual,
}

var mapRationale string

func init() {
	mapManualCmd.Flags().StringVarP(&mapRationale, "rationale", "r", "", "Why this artifact evidences the control")

	mapCmd.AddCommand(mapAutoCmd)
	mapCmd.AddCommand(mapManualCmd)
	rootCmd.AddCommand(mapCmd)
}

func runMapAuto(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	mappings, err := mappingService.AutoMap(context.Background(), orgID, args[0])
	if err != nil {
		return fmt.Errorf("auto-mapping failed: %w", err)
	}

	if len(mappings) == 0 {
		cmd.Println("No control rules matched.")
		return nil
	}

	cmd.Printf("Mapped artifact %s to %d control(s):\n", args[0], len(mappings))
	for i := range mappings {
		m := &mappings[i]
		cmd.Printf("  %s (confidence %.2f): %s\n", m.ControlID, m.Confidence, m.Rationale)
	}
	return nil
}

func runMapManual(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	mapping, err := mappingService.ManualMap(context.Background(), orgID, args[0], args[1], mapRationale)
	if err != nil {
		return fmt.Errorf("mapping failed: %w", err)
	}

	cmd.Printf("Mapped artifact %s to control %s.\n", mapping.ArtifactID, mapping.ControlID)
	return nil
}
