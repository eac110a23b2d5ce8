// Package export renders comparison outcomes into their two artifact forms:
// a multi-section CSV file and a tabwriter table for stdout.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ahrav/go-switchboard/internal/application"
	"github.com/ahrav/go-switchboard/internal/domain"
)

// DefaultCSVName returns the timestamped artifact name comparisons write by
// default.
func DefaultCSVName(now time.Time) string {
	return fmt.Sprintf("routing_comparison_%s.csv", now.Format("20060102_150405"))
}

// SaveCSV writes the comparison artifact to the given path, creating or
// truncating the file.
func SaveCSV(path string, outcome *application.ComparisonOutcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv artifact: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, outcome); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes the full comparison artifact: metadata, the per-run
// summary, per-topology statistics, winners, misroute diagnoses when any
// exist, and the query fixtures the comparison ran over. Sections are
// separated by blank rows and introduced by a single-cell title row.
func WriteCSV(w io.Writer, outcome *application.ComparisonOutcome) error {
	cw := csv.NewWriter(w)
	report := outcome.Report

	writeMetadata(cw, report)
	writeRunSummary(cw, report)
	writeStatistics(cw, report)
	writeWinners(cw, report)
	writeMisroutes(cw, outcome.Misroutes())
	writeQueries(cw, outcome.Queries)

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv artifact: %w", err)
	}
	return nil
}

func writeMetadata(cw *csv.Writer, report domain.ComparisonReport) {
	cw.Write([]string{"Routing Comparison Results"})
	cw.Write([]string{"Generated: " + report.GeneratedAt.Format("2006-01-02 15:04:05")})
	cw.Write([]string{"Total Queries: " + strconv.Itoa(report.QueryCount)})
	cw.Write([]string{"Runs Per Topology: " + strconv.Itoa(report.RunCount)})

	names := make([]string, len(report.Topologies))
	for i, s := range report.Topologies {
		names[i] = s.Topology
	}
	cw.Write(append([]string{"Topologies:"}, names...))
}

func writeRunSummary(cw *csv.Writer, report domain.ComparisonReport) {
	cw.Write(nil)
	cw.Write([]string{"RUN SUMMARY"})
	cw.Write([]string{"Run", "Topology", "Accuracy (%)", "Latency (s)", "Hops", "Correct", "Total"})

	for run := 0; run < report.RunCount; run++ {
		for _, summary := range report.Topologies {
			m := summary.Runs[run]
			cw.Write([]string{
				strconv.Itoa(run + 1),
				summary.Topology,
				fmt.Sprintf("%.1f", m.Accuracy),
				fmt.Sprintf("%.2f", m.AvgLatency),
				fmt.Sprintf("%.1f", m.AvgHops),
				strconv.Itoa(m.Correct),
				strconv.Itoa(m.Total),
			})
		}
	}
}

func writeStatistics(cw *csv.Writer, report domain.ComparisonReport) {
	cw.Write(nil)
	cw.Write([]string{"STATISTICS"})
	cw.Write([]string{"Topology", "Metric", "Avg", "Min", "Max"})

	for _, summary := range report.Topologies {
		cw.Write(statsRow(summary.Topology, "Accuracy (%)", summary.Accuracy, 1))
		cw.Write(statsRow(summary.Topology, "Latency (s)", summary.Latency, 2))
		cw.Write(statsRow(summary.Topology, "Hops", summary.Hops, 1))
	}
}

func statsRow(topology, metric string, stats domain.MetricStats, decimals int) []string {
	return []string{
		topology,
		metric,
		strconv.FormatFloat(stats.Mean, 'f', decimals, 64),
		strconv.FormatFloat(stats.Min, 'f', decimals, 64),
		strconv.FormatFloat(stats.Max, 'f', decimals, 64),
	}
}

func writeWinners(cw *csv.Writer, report domain.ComparisonReport) {
	cw.Write(nil)
	cw.Write([]string{"WINNERS"})
	cw.Write([]string{"Accuracy", report.Winners.Accuracy})
	cw.Write([]string{"Latency", report.Winners.Latency})
	cw.Write([]string{"Hops", report.Winners.Hops})
}

func writeMisroutes(cw *csv.Writer, misroutes []application.Misroute) {
	if len(misroutes) == 0 {
		return
	}

	cw.Write(nil)
	cw.Write([]string{"MISROUTED QUERIES"})
	cw.Write([]string{"Run", "Topology", "Query", "Expected Domain", "Routed To", "Reason", "Nearest Match"})

	for _, m := range misroutes {
		cw.Write([]string{
			strconv.Itoa(m.Run),
			m.Topology,
			m.Query,
			m.ExpectedDomain,
			m.RoutedTo,
			m.Reason,
			m.NearestID,
		})
	}
}

func writeQueries(cw *csv.Writer, queries []domain.QueryCase) {
	cw.Write(nil)
	cw.Write([]string{"TEST QUERIES"})
	cw.Write([]string{"Index", "Query", "Expected Domain"})

	for i, q := range queries {
		cw.Write([]string{strconv.Itoa(i + 1), q.Text, q.ExpectedDomain})
	}
}
