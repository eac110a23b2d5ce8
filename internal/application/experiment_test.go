package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-switchboard/internal/domain"
	"github.com/ahrav/go-switchboard/internal/testutils"
)

// scriptPerfectRouting configures the runner to answer every query with a
// marker naming the expected domain's agent, which scores correct under
// every topology kind.
func scriptPerfectRouting(runner *testutils.ScriptedRunner, queries []domain.QueryCase) {
	for _, qc := range queries {
		agent := qc.ExpectedDomain + "_agent"
		runner.AddScript(testutils.ScriptedDispatch{
			Pattern: qc.Text,
			Events: []domain.OutputEvent{
				{Author: "central_coordinator", Segments: []string{"Delegating to " + agent + "."}},
				{Author: agent, Segments: []string{"Handled.", "[ROUTED_TO: " + agent + "]"}},
			},
		})
	}
}

// TestExperiment_RunComparison drives a two-topology, two-run comparison
// through a scripted runner and checks the aggregated report shape.
func TestExperiment_RunComparison(t *testing.T) {
	registry := testutils.FixtureRegistry()
	queries := testutils.FixtureQueries()

	runner := testutils.NewScriptedRunner()
	scriptPerfectRouting(runner, queries)

	config := DefaultExperimentConfig()
	config.Topologies = []string{"flat_domain", "two_level"}
	config.Runs = 2

	exp, err := NewExperiment(config, ExperimentDeps{
		Registry: registry,
		Queries:  queries,
		Runner:   runner,
	})
	require.NoError(t, err)

	outcome, err := exp.RunComparison(context.Background())
	require.NoError(t, err)

	report := outcome.Report
	assert.Equal(t, 2, report.RunCount)
	assert.Equal(t, len(queries), report.QueryCount)
	require.Len(t, report.Topologies, 2)
	assert.Equal(t, "flat_domain", report.Topologies[0].Topology)
	assert.Equal(t, "two_level", report.Topologies[1].Topology)

	for _, summary := range report.Topologies {
		assert.InDelta(t, 100.0, summary.Accuracy.Mean, 0.001,
			"%s should route every query correctly", summary.Topology)
	}

	assert.Equal(t, domain.TieWinner, report.Winners.Accuracy,
		"equal accuracies should tie")
	assert.Contains(t, []string{"flat_domain", "two_level"}, report.Winners.Latency,
		"latency always has a strict winner")

	require.Len(t, outcome.Outcomes, 2)
	for _, topo := range outcome.Outcomes {
		assert.NotEmpty(t, topo.Identifiers)
		require.Len(t, topo.Runs, 2)
		for _, run := range topo.Runs {
			assert.Len(t, run.Results, len(queries))
			assert.Equal(t, len(queries), run.Metrics.Total)
		}
	}

	assert.Empty(t, outcome.Misroutes())
}

// TestExperiment_MisrouteDiagnosis scripts one query to the wrong agent and
// verifies the misroute analysis names the claiming domain.
func TestExperiment_MisrouteDiagnosis(t *testing.T) {
	registry := testutils.FixtureRegistry()
	queries := []domain.QueryCase{
		{Text: "Check my bank balance", ExpectedDomain: "finance"},
		{Text: "Book a flight to Tokyo", ExpectedDomain: "travel"},
	}

	runner := testutils.NewScriptedRunner()
	runner.AddScript(testutils.ScriptedDispatch{
		Pattern: "bank balance",
		Events: []domain.OutputEvent{
			{Author: "hr_agent", Segments: []string{"[ROUTED_TO: hr_agent]"}},
		},
	})
	runner.AddScript(testutils.ScriptedDispatch{
		Pattern: "flight",
		Events: []domain.OutputEvent{
			{Author: "travel_agent", Segments: []string{"[ROUTED_TO: travel_agent]"}},
		},
	})

	config := DefaultExperimentConfig()
	config.Topologies = []string{"flat_domain"}

	exp, err := NewExperiment(config, ExperimentDeps{
		Registry: registry,
		Queries:  queries,
		Runner:   runner,
	})
	require.NoError(t, err)

	outcome, err := exp.RunComparison(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 50.0, outcome.Report.Topologies[0].Accuracy.Mean, 0.001)

	misroutes := outcome.Misroutes()
	require.Len(t, misroutes, 1)
	assert.Equal(t, "Check my bank balance", misroutes[0].Query)
	assert.Equal(t, "hr_agent", misroutes[0].RoutedTo)
	assert.Contains(t, misroutes[0].Reason, "claimed by hr instead of finance")
}

// TestExperiment_DefaultsQueries verifies the built-in fixtures are used
// when no queries are supplied; unscripted queries resolve to unknown and
// score incorrect without failing the run.
func TestExperiment_DefaultsQueries(t *testing.T) {
	config := DefaultExperimentConfig()
	config.Topologies = []string{"flat_leaf"}

	exp, err := NewExperiment(config, ExperimentDeps{
		Registry: testutils.FixtureRegistry(),
		Runner:   testutils.NewScriptedRunner(),
	})
	require.NoError(t, err)

	outcome, err := exp.RunComparison(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(DefaultQueryCases()), outcome.Report.QueryCount)
	assert.InDelta(t, 0.0, outcome.Report.Topologies[0].Accuracy.Mean, 0.001)
}

// TestExperiment_QueryLimit verifies fixture truncation flows through to
// the report.
func TestExperiment_QueryLimit(t *testing.T) {
	config := DefaultExperimentConfig()
	config.Topologies = []string{"flat_domain"}
	config.QueryLimit = 2

	queries := testutils.FixtureQueries()
	runner := testutils.NewScriptedRunner()
	scriptPerfectRouting(runner, queries)

	exp, err := NewExperiment(config, ExperimentDeps{
		Registry: testutils.FixtureRegistry(),
		Queries:  queries,
		Runner:   runner,
	})
	require.NoError(t, err)

	outcome, err := exp.RunComparison(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Report.QueryCount)
}

// TestNewExperiment_Validation covers dependency and configuration
// validation at construction.
func TestNewExperiment_Validation(t *testing.T) {
	valid := DefaultExperimentConfig()

	tests := []struct {
		name   string
		config ExperimentConfig
		deps   ExperimentDeps
	}{
		{
			name:   "nil registry",
			config: valid,
			deps:   ExperimentDeps{Runner: testutils.NewScriptedRunner()},
		},
		{
			name:   "nil runner",
			config: valid,
			deps:   ExperimentDeps{Registry: testutils.FixtureRegistry()},
		},
		{
			name: "zero runs",
			config: func() ExperimentConfig {
				c := DefaultExperimentConfig()
				c.Runs = 0
				return c
			}(),
			deps: ExperimentDeps{
				Registry: testutils.FixtureRegistry(),
				Runner:   testutils.NewScriptedRunner(),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExperiment(tt.config, tt.deps)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}

	t.Run("unknown topology", func(t *testing.T) {
		config := DefaultExperimentConfig()
		config.Topologies = []string{"mesh"}
		_, err := NewExperiment(config, ExperimentDeps{
			Registry: testutils.FixtureRegistry(),
			Runner:   testutils.NewScriptedRunner(),
		})
		assert.ErrorIs(t, err, domain.ErrUnknownTopology)
	})
}

// TestExperiment_ContextCancellation verifies a cancelled context stops the
// comparison with the context error.
func TestExperiment_ContextCancellation(t *testing.T) {
	exp, err := NewExperiment(DefaultExperimentConfig(), ExperimentDeps{
		Registry: testutils.FixtureRegistry(),
		Runner:   testutils.NewScriptedRunner(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = exp.RunComparison(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestExperiment_TreeRebuiltPerRun verifies run isolation: the runner sees
// a distinct root pointer for every run even though the structure repeats.
func TestExperiment_TreeRebuiltPerRun(t *testing.T) {
	queries := testutils.FixtureQueries()[:1]
	runner := testutils.NewScriptedRunner()
	scriptPerfectRouting(runner, queries)

	config := DefaultExperimentConfig()
	config.Topologies = []string{"flat_domain"}
	config.Runs = 3

	exp, err := NewExperiment(config, ExperimentDeps{
		Registry: testutils.FixtureRegistry(),
		Queries:  queries,
		Runner:   runner,
	})
	require.NoError(t, err)

	_, err = exp.RunComparison(context.Background())
	require.NoError(t, err)

	requests := runner.Requests()
	require.Len(t, requests, 3)

	roots := make(map[*domain.DispatchNode]bool)
	for _, req := range requests {
		roots[req.Root] = true
	}
	assert.Len(t, roots, 3, "each run should dispatch into a freshly built tree")
}
