package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-switchboard/internal/ports"
)

// newTestMetrics builds a collector against a private registry so tests never
// collide in the global one.
func newTestMetrics(t *testing.T) *PrometheusMetrics {
	t.Helper()
	return NewPrometheusMetricsWith(prometheus.NewRegistry())
}

func TestNewPrometheusMetrics_Initialization(t *testing.T) {
	pm := newTestMetrics(t)
	require.NotNil(t, pm, "collector should construct")

	assert.NotNil(t, pm.dispatchQueries, "dispatchQueries should be initialized")
	assert.NotNil(t, pm.dispatchLatency, "dispatchLatency should be initialized")
	assert.NotNil(t, pm.dispatchHops, "dispatchHops should be initialized")
	assert.NotNil(t, pm.llmRequests, "llmRequests should be initialized")
	assert.NotNil(t, pm.llmLatency, "llmLatency should be initialized")
	assert.NotNil(t, pm.llmTokens, "llmTokens should be initialized")
	assert.NotNil(t, pm.breakerRejects, "breakerRejects should be initialized")
	assert.NotNil(t, pm.breakerState, "breakerState should be initialized")
	assert.NotNil(t, pm.operationCounter, "operationCounter should be initialized")
	assert.NotNil(t, pm.operationLatency, "operationLatency should be initialized")
	assert.NotNil(t, pm.systemGauges, "systemGauges should be initialized")

	var _ ports.MetricsCollector = pm
}

func TestPrometheusMetrics_DispatchFamilies(t *testing.T) {
	pm := newTestMetrics(t)

	labels := map[string]string{"topology": "flat_domain", "status": "success"}
	pm.RecordCounter("dispatch_queries_total", 1, labels)
	pm.RecordCounter("dispatch_queries_total", 1, labels)
	pm.RecordCounter("dispatch_queries_total", 1, map[string]string{"topology": "two_level", "status": "error"})

	got := testutil.ToFloat64(pm.dispatchQueries.WithLabelValues("flat_domain", "success"))
	assert.InDelta(t, 2.0, got, 1e-9, "repeated increments should accumulate per label set")
	got = testutil.ToFloat64(pm.dispatchQueries.WithLabelValues("two_level", "error"))
	assert.InDelta(t, 1.0, got, 1e-9, "distinct label sets should count independently")

	pm.RecordLatency("dispatch_latency_seconds", 250*time.Millisecond, map[string]string{"topology": "flat_domain"})
	assert.Equal(t, 1, testutil.CollectAndCount(pm.dispatchLatency, "dispatch_latency_seconds"),
		"latency observation should create the topology series")

	pm.RecordHistogram("dispatch_hops", 2, map[string]string{"topology": "flat_domain"})
	assert.Equal(t, 1, testutil.CollectAndCount(pm.dispatchHops, "dispatch_hops"),
		"hop observation should create the topology series")
}

func TestPrometheusMetrics_CompletionFamilies(t *testing.T) {
	pm := newTestMetrics(t)

	reqLabels := map[string]string{"provider": "google", "model": "gemini-2.0-flash", "status": "success"}
	pm.RecordCounter("llm_requests_total", 1, reqLabels)
	pm.RecordHistogram("llm_latency_seconds", 0.42, reqLabels)

	got := testutil.ToFloat64(pm.llmRequests.WithLabelValues("google", "gemini-2.0-flash", "success"))
	assert.InDelta(t, 1.0, got, 1e-9, "request counter should carry provider, model, and status")
	assert.Equal(t, 1, testutil.CollectAndCount(pm.llmLatency, "llm_latency_seconds"),
		"latency observation should create the labeled series")

	pm.RecordCounter("llm_tokens_total", 120, map[string]string{"provider": "google", "model": "gemini-2.0-flash", "direction": "input"})
	pm.RecordCounter("llm_tokens_total", 48, map[string]string{"provider": "google", "model": "gemini-2.0-flash", "direction": "output"})
	in := testutil.ToFloat64(pm.llmTokens.WithLabelValues("google", "gemini-2.0-flash", "input"))
	out := testutil.ToFloat64(pm.llmTokens.WithLabelValues("google", "gemini-2.0-flash", "output"))
	assert.InDelta(t, 120.0, in, 1e-9, "input tokens should accumulate separately")
	assert.InDelta(t, 48.0, out, 1e-9, "output tokens should accumulate separately")

	pm.RecordCounter("llm_circuit_breaker_rejections_total", 1, map[string]string{"model": "gemini-2.0-flash"})
	pm.RecordGauge("llm_circuit_breaker_state", 1, map[string]string{"model": "gemini-2.0-flash"})
	rej := testutil.ToFloat64(pm.breakerRejects.WithLabelValues("gemini-2.0-flash"))
	state := testutil.ToFloat64(pm.breakerState.WithLabelValues("gemini-2.0-flash"))
	assert.InDelta(t, 1.0, rej, 1e-9, "breaker rejections should count per model")
	assert.InDelta(t, 1.0, state, 1e-9, "breaker state gauge should hold the last value")
}

func TestPrometheusMetrics_GenericFallbacks(t *testing.T) {
	pm := newTestMetrics(t)

	pm.RecordCounter("registry_reloads_total", 3, nil)
	got := testutil.ToFloat64(pm.operationCounter.WithLabelValues("registry_reloads_total"))
	assert.InDelta(t, 3.0, got, 1e-9, "unknown counters should land in the generic family")

	pm.RecordGauge("active_sessions", 7, nil)
	gauge := testutil.ToFloat64(pm.systemGauges.WithLabelValues("active_sessions"))
	assert.InDelta(t, 7.0, gauge, 1e-9, "unknown gauges should land in the generic family")

	pm.RecordLatency("registry_load", 10*time.Millisecond, nil)
	pm.RecordHistogram("roster_size", 37, nil)
	assert.Equal(t, 2, testutil.CollectAndCount(pm.operationLatency, "switchboard_operation_duration_seconds"),
		"unknown latencies and histograms should land in the generic family")
}

func TestPrometheusMetrics_MissingLabels(t *testing.T) {
	pm := newTestMetrics(t)

	tests := []struct {
		name   string
		labels map[string]string
	}{
		{name: "nil labels map", labels: nil},
		{name: "empty labels map", labels: map[string]string{}},
		{name: "unrelated keys", labels: map[string]string{"other": "value"}},
		{name: "empty values", labels: map[string]string{"topology": "", "status": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordCounter("dispatch_queries_total", 1, tt.labels)
				pm.RecordLatency("dispatch_latency_seconds", time.Millisecond, tt.labels)
				pm.RecordHistogram("dispatch_hops", 1, tt.labels)
				pm.RecordGauge("llm_circuit_breaker_state", 0, tt.labels)
			}, "sparse label maps must never panic a vector")
		})
	}

	got := testutil.ToFloat64(pm.dispatchQueries.WithLabelValues(unknownLabel, unknownLabel))
	assert.InDelta(t, 4.0, got, 1e-9, "missing labels should collapse onto the unknown placeholder")
}

func TestPrometheusMetrics_NegativeCounterPanics(t *testing.T) {
	pm := newTestMetrics(t)

	assert.Panics(t, func() {
		pm.RecordCounter("dispatch_queries_total", -1, map[string]string{"topology": "flat_domain", "status": "success"})
	}, "Prometheus counters reject negative increments")
}

func BenchmarkPrometheusMetrics_RecordCounter(b *testing.B) {
	pm := NewPrometheusMetricsWith(prometheus.NewRegistry())
	labels := map[string]string{"topology": "flat_domain", "status": "success"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pm.RecordCounter("dispatch_queries_total", 1, labels)
	}
}
