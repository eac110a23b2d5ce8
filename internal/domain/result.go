package domain

// QueryCase is one test fixture: a natural-language request and the domain
// it should be routed to.
type QueryCase struct {
	// Text is the raw query submitted to the topology's root.
	Text string `yaml:"text" json:"text" validate:"required"`

	// ExpectedDomain is the registry domain the query belongs to.
	ExpectedDomain string `yaml:"expected_domain" json:"expected_domain" validate:"required"`
}

// RoutingResult is the scored outcome of driving one query through one
// topology. One RoutingResult exists per (topology, query) pair.
type RoutingResult struct {
	// Query is the submitted query text.
	Query string `json:"query"`

	// ExpectedDomain is the domain the query should have reached.
	ExpectedDomain string `json:"expected_domain"`

	// RoutedTo is the resolved terminal identifier, or UnknownRoute when no
	// marker and no usable trace existed. Never the empty string.
	RoutedTo string `json:"routed_to"`

	// Trace is the recorded delegation path and concatenated response.
	Trace DispatchTrace `json:"trace"`

	// HopCount is the number of distinct nodes that participated.
	HopCount int `json:"hop_count"`

	// LatencyMs is the wall-clock duration of the full dispatch in
	// milliseconds, including time spent before a failure.
	LatencyMs int64 `json:"latency_ms"`

	// Err carries the dispatch error message when the external call failed
	// or timed out. Empty for successful dispatches. Failed results score
	// incorrect and stay in the totals.
	Err string `json:"error,omitempty"`
}

// Failed reports whether the dispatch hard-failed before producing a usable
// response.
func (r RoutingResult) Failed() bool { return r.Err != "" }

// LatencySeconds returns the dispatch latency in seconds.
func (r RoutingResult) LatencySeconds() float64 { return float64(r.LatencyMs) / 1000.0 }

// RunMetrics summarizes one batch of routing results for one topology in one
// run: accuracy as a percentage, mean latency in seconds, mean hop count,
// and the raw correct/total counters. Failure counts surface as the gap
// between Correct and Total.
type RunMetrics struct {
	// Accuracy is 100 * Correct / Total, or 0 for an empty batch.
	Accuracy float64 `json:"accuracy"`

	// AvgLatency is the mean per-query latency in seconds.
	AvgLatency float64 `json:"avg_latency"`

	// AvgHops is the mean per-query distinct-node hop count.
	AvgHops float64 `json:"avg_hops"`

	// Correct is the number of correctly routed queries.
	Correct int `json:"correct_count"`

	// Total is the number of queries in the batch, failures included.
	Total int `json:"total_count"`
}
