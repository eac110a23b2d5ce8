package domain

import (
	"fmt"
	"time"
)

const (
	// TieWinner is declared when the leading topologies are too close to
	// call on a tie-thresholded metric.
	TieWinner = "Tie"

	// AccuracyTieThreshold is the minimum lead, in percentage points of
	// mean accuracy, required to declare an accuracy winner.
	AccuracyTieThreshold = 5.0

	// HopsTieThreshold is the minimum lead, in mean hops, required to
	// declare a hop-count winner.
	HopsTieThreshold = 0.5
)

// MetricStats holds the mean, minimum, and maximum of one metric across the
// runs of a topology.
type MetricStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// TopologyRuns pairs a topology name with its ordered per-run metrics, the
// input shape for aggregation.
type TopologyRuns struct {
	// Topology is the topology kind's name.
	Topology string `json:"topology"`

	// Runs holds one RunMetrics per completed run, in run order.
	Runs []RunMetrics `json:"runs"`
}

// TopologySummary carries a topology's per-run metrics together with the
// mean/min/max statistics derived from them.
type TopologySummary struct {
	Topology string       `json:"topology"`
	Runs     []RunMetrics `json:"runs"`
	Accuracy MetricStats  `json:"accuracy"`
	Latency  MetricStats  `json:"latency"`
	Hops     MetricStats  `json:"hops"`
}

// Winners names the winning topology per metric, or TieWinner where the
// lead fell under the metric's tie threshold.
type Winners struct {
	// Accuracy wins on highest mean accuracy; leads under five percentage
	// points are ties.
	Accuracy string `json:"accuracy"`

	// Latency wins on strict lowest mean latency; exact equality breaks
	// toward the earlier topology in input order.
	Latency string `json:"latency"`

	// Hops wins on lowest mean hop count; leads under half a hop are ties.
	Hops string `json:"hops"`
}

// ComparisonReport is the final multi-run comparison artifact: per-topology
// statistics, per-metric winners, and the query fixtures the comparison ran
// over. It renders to the stdout table and the CSV export unchanged.
type ComparisonReport struct {
	// GeneratedAt is the UTC timestamp of aggregation.
	GeneratedAt time.Time `json:"generated_at"`

	// RunCount is the uniform number of runs per topology.
	RunCount int `json:"run_count"`

	// QueryCount is the number of query fixtures per run.
	QueryCount int `json:"query_count"`

	// Topologies holds one summary per topology, in input order.
	Topologies []TopologySummary `json:"topologies"`

	// Winners names the per-metric winning topologies.
	Winners Winners `json:"winners"`

	// Queries lists the fixtures used, for artifact self-containment.
	Queries []QueryCase `json:"queries,omitempty"`
}

// Aggregate folds per-run metrics for any number of topologies into a
// ComparisonReport. Every topology must have the same, non-zero number of
// runs; violations return ErrNoRuns or ErrRunCountMismatch. A single-topology
// series is legal and wins every metric by default.
func Aggregate(series []TopologyRuns, queries []QueryCase) (ComparisonReport, error) {
	if len(series) == 0 {
		return ComparisonReport{}, ErrNoRuns
	}

	runCount := len(series[0].Runs)
	seen := make(map[string]struct{}, len(series))
	summaries := make([]TopologySummary, 0, len(series))

	for _, tr := range series {
		if len(tr.Runs) == 0 {
			return ComparisonReport{}, fmt.Errorf("topology %q: %w", tr.Topology, ErrNoRuns)
		}
		if len(tr.Runs) != runCount {
			return ComparisonReport{}, fmt.Errorf(
				"topology %q has %d runs, expected %d: %w",
				tr.Topology, len(tr.Runs), runCount, ErrRunCountMismatch,
			)
		}
		if _, dup := seen[tr.Topology]; dup {
			return ComparisonReport{}, fmt.Errorf("%w: topology %q listed twice", ErrInvalidConfiguration, tr.Topology)
		}
		seen[tr.Topology] = struct{}{}

		summaries = append(summaries, summarizeTopology(tr))
	}

	return ComparisonReport{
		GeneratedAt: time.Now().UTC(),
		RunCount:    runCount,
		QueryCount:  len(queries),
		Topologies:  summaries,
		Winners: Winners{
			Accuracy: winnerHighest(summaries, func(s TopologySummary) float64 { return s.Accuracy.Mean }, AccuracyTieThreshold),
			Latency:  winnerLowest(summaries, func(s TopologySummary) float64 { return s.Latency.Mean }, 0),
			Hops:     winnerLowest(summaries, func(s TopologySummary) float64 { return s.Hops.Mean }, HopsTieThreshold),
		},
		Queries: queries,
	}, nil
}

func summarizeTopology(tr TopologyRuns) TopologySummary {
	accuracy := make([]float64, len(tr.Runs))
	latency := make([]float64, len(tr.Runs))
	hops := make([]float64, len(tr.Runs))
	for i, run := range tr.Runs {
		accuracy[i] = run.Accuracy
		latency[i] = run.AvgLatency
		hops[i] = run.AvgHops
	}
	return TopologySummary{
		Topology: tr.Topology,
		Runs:     tr.Runs,
		Accuracy: computeStats(accuracy),
		Latency:  computeStats(latency),
		Hops:     computeStats(hops),
	}
}

// computeStats derives mean/min/max over a non-empty value slice.
func computeStats(values []float64) MetricStats {
	stats := MetricStats{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Mean = sum / float64(len(values))
	return stats
}

// winnerHighest declares the topology with the highest metric value the
// winner unless its lead over the runner-up falls below the tie threshold.
func winnerHighest(summaries []TopologySummary, value func(TopologySummary) float64, tieThreshold float64) string {
	best := 0
	for i := range summaries {
		if value(summaries[i]) > value(summaries[best]) {
			best = i
		}
	}
	if lead := value(summaries[best]) - runnerUpHighest(summaries, value, best); len(summaries) > 1 && lead < tieThreshold {
		return TieWinner
	}
	return summaries[best].Topology
}

// winnerLowest is the mirror of winnerHighest for metrics where lower is
// better. A zero threshold makes the minimum strict, with exact equality
// breaking toward the earlier topology.
func winnerLowest(summaries []TopologySummary, value func(TopologySummary) float64, tieThreshold float64) string {
	best := 0
	for i := range summaries {
		if value(summaries[i]) < value(summaries[best]) {
			best = i
		}
	}
	if lead := runnerUpLowest(summaries, value, best) - value(summaries[best]); len(summaries) > 1 && lead < tieThreshold {
		return TieWinner
	}
	return summaries[best].Topology
}

func runnerUpHighest(summaries []TopologySummary, value func(TopologySummary) float64, best int) float64 {
	runnerUp := 0.0
	found := false
	for i := range summaries {
		if i == best {
			continue
		}
		if v := value(summaries[i]); !found || v > runnerUp {
			runnerUp = v
			found = true
		}
	}
	return runnerUp
}

func runnerUpLowest(summaries []TopologySummary, value func(TopologySummary) float64, best int) float64 {
	runnerUp := 0.0
	found := false
	for i := range summaries {
		if i == best {
			continue
		}
		if v := value(summaries[i]); !found || v < runnerUp {
			runnerUp = v
			found = true
		}
	}
	return runnerUp
}
