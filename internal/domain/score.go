package domain

import "strings"

// IsCorrectRoute reports whether a resolved identifier lands in the expected
// domain. A route is correct when the identifier equals the domain exactly
// (bare "finance") or starts with the domain followed by an underscore
// ("finance_agent", "finance_banking"). The underscore boundary is required:
// "financehandler" does not match "finance". The check is deliberately
// domain-level, so "finance_escrow" counts for "finance" even when no such
// leaf exists.
func IsCorrectRoute(routedTo, expectedDomain string) bool {
	if expectedDomain == "" {
		return false
	}
	return routedTo == expectedDomain || strings.HasPrefix(routedTo, expectedDomain+"_")
}

// Summarize aggregates a batch of routing results into RunMetrics. An empty
// batch yields zero-valued metrics rather than a division error. Failed
// results score incorrect while their latency and the hop counts they did
// accumulate stay in the means.
func Summarize(results []RoutingResult) RunMetrics {
	if len(results) == 0 {
		return RunMetrics{}
	}

	var (
		correct      int
		totalLatency float64
		totalHops    int
	)
	for _, res := range results {
		if IsCorrectRoute(res.RoutedTo, res.ExpectedDomain) {
			correct++
		}
		totalLatency += res.LatencySeconds()
		totalHops += res.HopCount
	}

	total := len(results)
	return RunMetrics{
		Accuracy:   100 * float64(correct) / float64(total),
		AvgLatency: totalLatency / float64(total),
		AvgHops:    float64(totalHops) / float64(total),
		Correct:    correct,
		Total:      total,
	}
}
