package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-switchboard/infrastructure/export"
	"github.com/ahrav/go-switchboard/infrastructure/middleware"
	"github.com/ahrav/go-switchboard/infrastructure/runner"
	"github.com/ahrav/go-switchboard/internal/application"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run every configured topology over the query set and compare them",
	Long: `compare builds each configured topology from the domain registry, drives
the query set through it the configured number of runs, prints the
comparison table, and writes a CSV artifact to the output directory.`,
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	config, err := resolveExperimentConfig(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logPath, err := attachExperimentLog(config.OutputDir)
	if err != nil {
		return err
	}
	logger.Info("starting comparison",
		zap.Strings("topologies", config.Topologies),
		zap.Int("runs", config.Runs),
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
		return fmt.Errorf("comparison failed: %w", err)
	}

	if err := export.WriteTable(os.Stdout, outcome.Report); err != nil {
		return err
	}
	if misroutes := outcome.Misroutes(); len(misroutes) > 0 {
		fmt.Println()
		if err := export.WriteMisroutes(os.Stdout, misroutes); err != nil {
			return err
		}
	}

	csvPath := filepath.Join(config.OutputDir, export.DefaultCSVName(time.Now()))
	if err := export.SaveCSV(csvPath, outcome); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	logger.Info("results saved", zap.String("path", csvPath))
	fmt.Printf("\nResults saved to %s\n", csvPath)

	return nil
}
