// Command switchboard compares delegation-routing topologies against a live
// completion service. It builds flat_domain, two_level, and flat_leaf trees
// from a domain registry, drives labelled queries through them, and reports
// routing accuracy, latency, and hop statistics per topology.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ahrav/go-switchboard/infrastructure/llm"
	"github.com/ahrav/go-switchboard/internal/application"
	"github.com/ahrav/go-switchboard/internal/domain"
	"github.com/ahrav/go-switchboard/internal/ports"
)

// Completion middleware chain defaults.
const (
	requestsPerSecond = 2
	requestBurst      = 4
	maxRetries        = 3
	retryBaseDelay    = time.Second
	retryMaxDelay     = 30 * time.Second
	breakerFailures   = 5
	breakerCooldown   = 30 * time.Second
)

var (
	// Persistent flags, shared by every subcommand.
	flagConfig      string
	flagRegistry    string
	flagProvider    string
	flagModel       string
	flagAPIKeyEnv   string
	flagQueries     int
	flagQueryFile   string
	flagRuns        int
	flagOutput      string
	flagTimeout     int
	flagConcurrency int
	flagSeedSession string
	flagVerbose     bool
	flagLogFile     string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Compare delegation-routing topologies on a completion service",
	Long: `switchboard builds delegation trees (flat_domain, two_level, flat_leaf)
from a domain registry, drives labelled queries through them via an external
completion service, and scores how accurately each topology routes queries
to their expected domains.

API keys are read from the environment only: GOOGLE_API_KEY or
GEMINI_API_KEY for google, OPENAI_API_KEY for openai, ANTHROPIC_API_KEY for
anthropic, or the variable named by --api-key-env.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = buildLogger(flagVerbose, flagLogFile)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Experiment configuration YAML file")
	rootCmd.PersistentFlags().StringVar(&flagRegistry, "registry", "", "Domain registry YAML file (default: embedded registry)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "Completion provider: google, openai, or anthropic")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Model name (default: provider default)")
	rootCmd.PersistentFlags().StringVar(&flagAPIKeyEnv, "api-key-env", "", "Environment variable holding the API key (default: provider conventions)")
	rootCmd.PersistentFlags().IntVar(&flagQueries, "queries", 0, "Number of queries to run per pass (0 runs the full set)")
	rootCmd.PersistentFlags().StringVar(&flagQueryFile, "query-file", "", "Query fixture YAML file (default: built-in fixtures)")
	rootCmd.PersistentFlags().IntVar(&flagRuns, "runs", 0, "Evaluation passes per topology")
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "", "Directory for CSV exports and experiment logs")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "Per-query timeout in seconds")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 0, "In-flight queries per run (values below 2 stay sequential)")
	rootCmd.PersistentFlags().StringVar(&flagSeedSession, "seed-session", "", "Prefix for dispatch session identifiers")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Log file path (default: timestamped file under the output directory)")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildLogger constructs the CLI logger: production JSON encoding with
// ISO8601 timestamps, debug level under --verbose, teeing to logFile
// alongside stderr when one is named.
func buildLogger(verbose bool, logFile string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if logFile != "" {
		config.OutputPaths = append(config.OutputPaths, logFile)
	}
	return config.Build()
}

// attachExperimentLog rebuilds the logger to tee into a timestamped file
// under the output directory, unless --log-file already named one in
// buildLogger. It returns the active log file path.
func attachExperimentLog(outputDir string) (string, error) {
	if flagLogFile != "" {
		return flagLogFile, nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("routing_experiment_%s.log", time.Now().Format("20060102_150405")))
	rebuilt, err := buildLogger(flagVerbose, logPath)
	if err != nil {
		return "", fmt.Errorf("failed to open experiment log: %w", err)
	}
	logger = rebuilt
	return logPath, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM so a
// long comparison can be interrupted without losing the process exit path.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// resolveExperimentConfig merges the experiment configuration from its
// three sources: explicit flags override the YAML config file, which
// overrides the built-in defaults. The merged result is validated.
func resolveExperimentConfig(cmd *cobra.Command) (application.ExperimentConfig, error) {
	config := application.DefaultExperimentConfig()

	if flagConfig != "" {
		loaded, err := application.LoadExperimentConfigFromFile(flagConfig)
		if err != nil {
			return config, fmt.Errorf("load config %s: %w", flagConfig, err)
		}
		config = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		config.Provider = flagProvider
	}
	if flags.Changed("model") {
		config.Model = flagModel
	}
	if flags.Changed("queries") {
		config.QueryLimit = flagQueries
	}
	if flags.Changed("runs") {
		config.Runs = flagRuns
	}
	if flags.Changed("output") {
		config.OutputDir = flagOutput
	}
	if flags.Changed("timeout") {
		config.QueryTimeoutSeconds = flagTimeout
	}
	if flags.Changed("concurrency") {
		config.Concurrency = flagConcurrency
	}
	if flags.Changed("seed-session") {
		config.SessionSeed = flagSeedSession
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// loadRegistry builds the domain registry from --registry, falling back to
// the registry embedded in the binary.
func loadRegistry() (*domain.Registry, error) {
	loader, err := application.NewRegistryLoader()
	if err != nil {
		return nil, fmt.Errorf("registry loader: %w", err)
	}

	if flagRegistry != "" {
		reg, err := loader.LoadFromFile(flagRegistry)
		if err != nil {
			return nil, fmt.Errorf("load registry %s: %w", flagRegistry, err)
		}
		return reg, nil
	}
	return loader.LoadDefault()
}

// loadQueries reads the query fixtures from --query-file, falling back to
// the built-in set.
func loadQueries() ([]domain.QueryCase, error) {
	if flagQueryFile == "" {
		return application.DefaultQueryCases(), nil
	}

	cases, err := application.LoadQueriesFromFile(flagQueryFile)
	if err != nil {
		return nil, fmt.Errorf("load queries %s: %w", flagQueryFile, err)
	}
	return cases, nil
}

// buildCompletionClient constructs the provider client wrapped in the
// production middleware chain. The API key is resolved from the
// environment only: the provider's conventional variables, or the
// variable named by --api-key-env.
func buildCompletionClient(config application.ExperimentConfig, collector ports.MetricsCollector) (*llm.Client, error) {
	chain := []llm.Middleware{
		llm.TracingMiddleware("switchboard"),
		llm.RateLimitMiddleware(requestsPerSecond, requestBurst),
		llm.RetryMiddleware(maxRetries, retryBaseDelay, retryMaxDelay),
		llm.CircuitBreakerMiddlewareWithMetrics(breakerFailures, breakerCooldown, collector),
		llm.MetricsMiddleware(config.Provider, collector),
	}

	if flagAPIKeyEnv != "" {
		apiKey := os.Getenv(flagAPIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("environment variable %s is empty", flagAPIKeyEnv)
		}
		return llm.NewClient(config.Provider, llm.ClientConfig{
			APIKey:     apiKey,
			Model:      config.Model,
			Middleware: chain,
		})
	}

	return llm.NewClientFromEnv(config.Provider, config.Model, chain...)
}
