package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ahrav/go-switchboard/internal/application"
	"github.com/ahrav/go-switchboard/internal/domain"
)

const tableRule = 100

// WriteTable renders the multi-run comparison to w: one row per (run,
// topology), mean/min/max statistics per topology, and the per-metric
// winners.
func WriteTable(w io.Writer, report domain.ComparisonReport) error {
	fmt.Fprintln(w, strings.Repeat("=", tableRule))
	fmt.Fprintln(w, "  MULTI-RUN COMPARISON")
	fmt.Fprintln(w, strings.Repeat("=", tableRule))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Run\tTopology\tAccuracy\tLatency\tHops")
	for run := 0; run < report.RunCount; run++ {
		for _, summary := range report.Topologies {
			m := summary.Runs[run]
			fmt.Fprintf(tw, "%d\t%s\t%.1f%% (%d/%d)\t%.2fs\t%.1f\n",
				run+1, summary.Topology, m.Accuracy, m.Correct, m.Total, m.AvgLatency, m.AvgHops)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render run summary: %w", err)
	}

	fmt.Fprintln(w, strings.Repeat("-", tableRule))
	fmt.Fprintln(w, "STATISTICS")

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Topology\tMetric\tAvg\tMin\tMax")
	for _, summary := range report.Topologies {
		fmt.Fprintf(tw, "%s\tAccuracy (%%)\t%.1f\t%.1f\t%.1f\n",
			summary.Topology, summary.Accuracy.Mean, summary.Accuracy.Min, summary.Accuracy.Max)
		fmt.Fprintf(tw, "%s\tLatency (s)\t%.2f\t%.2f\t%.2f\n",
			summary.Topology, summary.Latency.Mean, summary.Latency.Min, summary.Latency.Max)
		fmt.Fprintf(tw, "%s\tHops\t%.1f\t%.1f\t%.1f\n",
			summary.Topology, summary.Hops.Mean, summary.Hops.Min, summary.Hops.Max)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render statistics: %w", err)
	}

	fmt.Fprintln(w, strings.Repeat("-", tableRule))
	fmt.Fprintf(w, "WINNERS (averaged over %d runs):\n", report.RunCount)
	fmt.Fprintf(w, "  Accuracy: %s\n", report.Winners.Accuracy)
	fmt.Fprintf(w, "  Latency:  %s\n", report.Winners.Latency)
	fmt.Fprintf(w, "  Hops:     %s\n", report.Winners.Hops)
	fmt.Fprintln(w, strings.Repeat("=", tableRule))

	return nil
}

// WriteRunDetail renders the per-query listing for one topology's runs,
// marking each query correct or missed. Single-topology mode prints this
// instead of the comparison table.
func WriteRunDetail(w io.Writer, outcome application.TopologyOutcome) error {
	for i, run := range outcome.Runs {
		fmt.Fprintf(w, "Results for %s (run %d of %d):\n", outcome.Kind, i+1, len(outcome.Runs))

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, result := range run.Results {
			fmt.Fprintf(tw, "  %s\t%q\t-> %s\t(expected %s)\t%d hops\t%.2fs%s\n",
				resultMark(result), result.Query, result.RoutedTo, result.ExpectedDomain,
				result.HopCount, result.LatencySeconds(), resultError(result))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("render run detail: %w", err)
		}

		fmt.Fprintf(w, "Accuracy: %.1f%% (%d/%d), avg latency %.2fs, avg hops %.1f\n\n",
			run.Metrics.Accuracy, run.Metrics.Correct, run.Metrics.Total,
			run.Metrics.AvgLatency, run.Metrics.AvgHops)
	}
	return nil
}

// WriteMisroutes renders the misroute diagnosis listing, or a short note when
// every query routed correctly.
func WriteMisroutes(w io.Writer, misroutes []application.Misroute) error {
	if len(misroutes) == 0 {
		fmt.Fprintln(w, "No misrouted queries.")
		return nil
	}

	fmt.Fprintf(w, "MISROUTED QUERIES (%d):\n", len(misroutes))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Run\tTopology\tQuery\tExpected\tRouted To\tReason")
	for _, m := range misroutes {
		fmt.Fprintf(tw, "%d\t%s\t%q\t%s\t%s\t%s\n",
			m.Run, m.Topology, m.Query, m.ExpectedDomain, m.RoutedTo, m.Reason)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render misroutes: %w", err)
	}
	return nil
}

func resultMark(result domain.RoutingResult) string {
	if domain.IsCorrectRoute(result.RoutedTo, result.ExpectedDomain) {
		return "[ok]"
	}
	return "[MISS]"
}

func resultError(result domain.RoutingResult) string {
	if result.Err == "" {
		return ""
	}
	return " error: " + result.Err
}
