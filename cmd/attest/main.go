// Command attest is the evidence collection CLI. It wires the storage,
// connector and service layers together and hands control to the cobra
// command tree.
package main

import (
	"fmt"
	"os"

	configfile "github.com/custodia-labs/attest-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/attest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/attest-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/attest-cli/internal/connectors"
	"github.com/custodia-labs/attest-cli/internal/core/services"
	"github.com/custodia-labs/attest-cli/internal/normalize"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := configfile.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	artifacts := store.ArtifactStore()
	mappings := store.MappingStore()
	jobs := store.SyncJobStore()
	integrations := store.IntegrationStore()
	audit := store.AuditStore()

	factory := connectors.NewFactory(cfg.ConnectorConfig())
	normalizer := normalize.NewRegistry()
	rules := cfg.ControlRules()

	mapper := services.NewMappingEngine(artifacts, mappings, audit, rules)
	orchestrator := services.NewSyncOrchestrator(integrations, jobs, artifacts, audit, factory, normalizer, mapper)
	coverage := services.NewCoverageAnalyzer(artifacts, rules)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		OrgID:            cfg.Organization(),
		SyncRunner:       orchestrator,
		MappingService:   mapper,
		CoverageReporter: coverage,
		ArtifactStore:    artifacts,
		MappingStore:     mappings,
		IntegrationStore: integrations,
		SyncJobStore:     jobs,
		AuditStore:       audit,
		ConnectorFactory: factory,
	})

	return cli.Execute()
}
