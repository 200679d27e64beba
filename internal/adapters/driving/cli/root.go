// Package cli implements the attest command-line interface using cobra.
// Commands talk to the core services through the driving ports; the
// composition root in cmd/attest injects the concrete implementations
// via SetServices before Execute runs.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/attest-cli/internal/logger"
)

// version is set by the composition root at startup.
var version = "dev"

// Services injected by the composition root. Nil services make their
// commands fail with a clear error instead of panicking.
var (
	orgID string

	syncRunner       driving.SyncRunner
	mappingService   driving.MappingService
	coverageReporter driving.CoverageReporter

	artifactStore    driven.ArtifactStore
	mappingStore     driven.MappingStore
	integrationStore driven.IntegrationStore
	syncJobStore     driven.SyncJobStore
	auditStore       driven.AuditStore
	connectorFactory driven.ConnectorFactory
)

// Services bundles everything the CLI needs from the composition root.
type Services struct {
	OrgID string

	SyncRunner       driving.SyncRunner
	MappingService   driving.MappingService
	CoverageReporter driving.CoverageReporter

	ArtifactStore    driven.ArtifactStore
	MappingStore     driven.MappingStore
	IntegrationStore driven.IntegrationStore
	SyncJobStore     driven.SyncJobStore
	AuditStore       driven.AuditStore
	ConnectorFactory driven.ConnectorFactory
}

// SetServices wires the service implementations into the command tree.
func SetServices(s Services) {
	orgID = s.OrgID
	syncRunner = s.SyncRunner
	mappingService = s.MappingService
	coverageReporter = s.CoverageReporter
	artifactStore = s.ArtifactStore
	mappingStore = s.MappingStore
	integrationStore = s.IntegrationStore
	syncJobStore = s.SyncJobStore
	auditStore = s.AuditStore
	connectorFactory = s.ConnectorFactory
}

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	version = v
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "attest",
	Short: "Collect and map audit evidence from connected systems",
	Long: `Attest syncs evidence artifacts from GitHub, Jira and Google Drive,
maps them to compliance controls, and reports coverage gaps over an
audit period.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// parseDateRange turns --from/--to flag values into a date range.
// Empty values default to the trailing twelve months ending today.
func parseDateRange(from, to string) (domain.DateRange, error) {
	now := time.Now().UTC()
	rng := domain.DateRange{
		Start: now.AddDate(-1, 0, 0),
		End:   now,
	}

	var err error
	if from != "" {
		rng.Start, err = time.Parse(dateLayout, from)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid --from date %q (want YYYY-MM-DD)", from)
		}
	}
	if to != "" {
		rng.End, err = time.Parse(dateLayout, to)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid --to date %q (want YYYY-MM-DD)", to)
		}
		// Include the whole final day.
		rng.End = rng.End.Add(24*time.Hour - time.Second)
	}
	if rng.End.Before(rng.Start) {
		return domain.DateRange{}, fmt.Errorf("--to %s is before --from %s", rng.End.Format(dateLayout), rng.Start.Format(dateLayout))
	}
	return rng, nil
}

const dateLayout = "2006-01-02"
