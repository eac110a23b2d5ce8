package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-switchboard/infrastructure/export"
	"github.com/ahrav/go-switchboard/infrastructure/middleware"
	"github.com/ahrav/go-switchboard/infrastructure/runner"
	"github.com/ahrav/go-switchboard/internal/application"
	"github.com/ahrav/go-switchboard/internal/topology"
)

var flagTopology string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one topology once with per-query detail",
	Long: `run drives the query set through a single topology once, printing each
query's routing outcome and a misroute analysis for everything that landed
in the wrong domain.`,
	RunE: runSingle,
}

func init() {
	runCmd.Flags().StringVar(&flagTopology, "topology", "", "Topology kind: flat_domain, two_level, or flat_leaf")
	runCmd.MarkFlagRequired("topology")
}

func runSingle(cmd *cobra.Command, args []string) error {
	kind, err := topology.ParseKind(flagTopology)
	if err != nil {
		return err
	}

	config, err := resolveExperimentConfig(cmd)
	if err != nil {
		return err
	}
	config.Topologies = []string{string(kind)}
	config.Runs = 1

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	logPath, err := attachExperimentLog(config.OutputDir)
	if err != nil {
		return err
	}
	logger.Info("starting single-topology run",
		zap.String("topology", string(kind)),
		zap.String("provider", config.Provider),
		zap.String("log_file", logPath))

	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	queries, err := loadQueries()
	if err != nil {
		return err
	}

	collector := middleware.NewPrometheusMetrics()
	client, err := buildCompletionClient(config, collector)
	if err != nil {
		return err
	}
	dispatchRunner, err := runner.NewCompletionRunner(client, runner.Config{
		Logger: logger.Named("runner"),
	})
	if err != nil {
		return err
	}

	experiment, err := application.NewExperiment(config, application.ExperimentDeps{
		Registry: registry,
		Queries:  queries,
		Runner:   dispatchRunner,
		Metrics:  collector,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	outcome, err := experiment.RunComparison(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	for _, topo := range outcome.Outcomes {
		if err := export.WriteRunDetail(os.Stdout, topo); err != nil {
			return err
		}
	}
	return export.WriteMisroutes(os.Stdout, outcome.Misroutes())
}
