package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ahrav/go-switchboard/internal/dispatch"
	"github.com/ahrav/go-switchboard/internal/domain"
	"github.com/ahrav/go-switchboard/internal/ports"
	"github.com/ahrav/go-switchboard/internal/topology"
)

// ExperimentDeps carries the collaborators an experiment runs with.
// Registry and Runner are required; the rest default sensibly.
type ExperimentDeps struct {
	// Registry supplies the domains the topology trees are built from.
	Registry *domain.Registry

	// Queries are the labelled fixtures to evaluate. Nil selects the
	// built-in fixture set.
	Queries []domain.QueryCase

	// Runner dispatches queries into topology trees.
	Runner ports.DispatchRunner

	// Metrics receives dispatch metrics. Nil disables collection.
	Metrics ports.MetricsCollector

	// Logger receives experiment progress. Nil discards it.
	Logger *zap.Logger
}

// Experiment orchestrates a full topology comparison: for each configured
// topology kind it rebuilds the tree, drives every query through it the
// configured number of runs, and aggregates per-run metrics into a
// comparison report.
type Experiment struct {
	config   ExperimentConfig
	registry *domain.Registry
	queries  []domain.QueryCase
	runner   ports.DispatchRunner
	metrics  ports.MetricsCollector
	logger   *zap.Logger
}

// RunOutcome carries one run's summary metrics plus the raw per-query
// results that produced them.
type RunOutcome struct {
	Metrics domain.RunMetrics      `json:"metrics"`
	Results []domain.RoutingResult `json:"results"`
}

// TopologyOutcome groups the outcomes of all runs of one topology, along
// with the identifier set of its tree for misroute diagnosis.
type TopologyOutcome struct {
	Kind        topology.Kind `json:"kind"`
	Identifiers []string      `json:"identifiers"`
	Runs        []RunOutcome  `json:"runs"`
}

// ComparisonOutcome is the complete product of a comparison: the aggregated
// report plus the raw outcomes that feed misroute analysis and export.
type ComparisonOutcome struct {
	Report   domain.ComparisonReport `json:"report"`
	Outcomes []TopologyOutcome       `json:"outcomes"`
	Queries  []domain.QueryCase      `json:"queries"`
}

// NewExperiment validates the configuration and dependencies and returns a
// ready-to-run experiment.
func NewExperiment(config ExperimentConfig, deps ExperimentDeps) (*Experiment, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("registry cannot be nil: %w", domain.ErrInvalidConfiguration)
	}
	if deps.Runner == nil {
		return nil, fmt.Errorf("dispatch runner cannot be nil: %w", domain.ErrInvalidConfiguration)
	}
	if config.Runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1: %w", domain.ErrInvalidConfiguration)
	}
	if _, err := config.Kinds(); err != nil {
		return nil, err
	}

	queries := deps.Queries
	if queries == nil {
		queries = DefaultQueryCases()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Experiment{
		config:   config,
		registry: deps.Registry,
		queries:  queries,
		runner:   deps.Runner,
		metrics:  deps.Metrics,
		logger:   logger,
	}, nil
}

// RunComparison executes the configured runs for every topology and
// aggregates the results. The tree is rebuilt for every run so no state
// leaks between runs; per-query failures are contained in the results,
// and only context cancellation or a configuration problem aborts the
// comparison.
func (e *Experiment) RunComparison(ctx context.Context) (*ComparisonOutcome, error) {
	kinds, err := e.config.Kinds()
	if err != nil {
		return nil, err
	}

	builder, err := topology.NewBuilder(e.registry, nil)
	if err != nil {
		return nil, fmt.Errorf("topology builder: %w", err)
	}

	queries := LimitQueries(e.queries, e.config.QueryLimit)
	e.logger.Info("starting topology comparison",
		zap.Int("topologies", len(kinds)),
		zap.Int("runs", e.config.Runs),
		zap.Int("queries", len(queries)))

	outcomes := make([]TopologyOutcome, 0, len(kinds))
	series := make([]domain.TopologyRuns, 0, len(kinds))

	for _, kind := range kinds {
		outcome, err := e.evaluateTopology(ctx, builder, kind, queries)
		if err != nil {
			return nil, err
		}

		runs := make([]domain.RunMetrics, 0, len(outcome.Runs))
		for _, r := range outcome.Runs {
			runs = append(runs, r.Metrics)
		}

		outcomes = append(outcomes, outcome)
		series = append(series, domain.TopologyRuns{Topology: string(kind), Runs: runs})
	}

	report, err := domain.Aggregate(series, queries)
	if err != nil {
		return nil, fmt.Errorf("aggregate results: %w", err)
	}

	e.logger.Info("comparison complete",
		zap.String("accuracy_winner", report.Winners.Accuracy),
		zap.String("latency_winner", report.Winners.Latency),
		zap.String("hops_winner", report.Winners.Hops))

	return &ComparisonOutcome{
		Report:   report,
		Outcomes: outcomes,
		Queries:  queries,
	}, nil
}

// evaluateTopology runs every query through one topology kind for each
// configured run, rebuilding the tree per run.
func (e *Experiment) evaluateTopology(
	ctx context.Context,
	builder *topology.Builder,
	kind topology.Kind,
	queries []domain.QueryCase,
) (TopologyOutcome, error) {
	e.logger.Info("evaluating topology", zap.String("topology", string(kind)))

	outcome := TopologyOutcome{Kind: kind}

	for run := 1; run <= e.config.Runs; run++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		root, err := builder.Build(kind)
		if err != nil {
			return outcome, fmt.Errorf("build %s tree: %w", kind, err)
		}
		if outcome.Identifiers == nil {
			outcome.Identifiers = root.Identifiers()
		}

		exec, err := dispatch.NewExecutor(e.runner, dispatch.Config{
			Topology:    string(kind),
			Timeout:     e.config.QueryTimeout(),
			SessionSeed: e.config.SessionSeed,
			Concurrency: e.config.Concurrency,
			Metrics:     e.metrics,
		})
		if err != nil {
			return outcome, fmt.Errorf("executor for %s: %w", kind, err)
		}

		results, err := exec.ExecuteBatch(ctx, root, queries)
		if err != nil {
			return outcome, fmt.Errorf("run %d of %s: %w", run, kind, err)
		}

		metrics := domain.Summarize(results)
		e.logger.Info("run complete",
			zap.String("topology", string(kind)),
			zap.Int("run", run),
			zap.Float64("accuracy", metrics.Accuracy),
			zap.Int("correct", metrics.Correct),
			zap.Int("total", metrics.Total),
			zap.Float64("avg_latency_s", metrics.AvgLatency),
			zap.Float64("avg_hops", metrics.AvgHops))

		outcome.Runs = append(outcome.Runs, RunOutcome{Metrics: metrics, Results: results})
	}

	return outcome, nil
}
