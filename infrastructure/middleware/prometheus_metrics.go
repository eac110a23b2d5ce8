// Package middleware provides cross-cutting infrastructure adapters for the
// routing harness.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-switchboard/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// unknownLabel substitutes for any label the caller did not supply, so a
// sparse label map never panics a labeled vector.
const unknownLabel = "unknown"

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. Known dispatch and completion metric families get dedicated
// vectors with stable label sets; any other metric name lands in the generic
// operation vectors, so emitting a new name never requires a registration
// change here.
type PrometheusMetrics struct {
	dispatchQueries *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
	dispatchHops    *prometheus.HistogramVec

	llmRequests    *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	llmTokens      *prometheus.CounterVec
	breakerRejects *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec

	operationCounter *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics registers the harness metric families in the default
// Prometheus registry. Registering the same family twice panics, so call it
// once per process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWith(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWith registers the metric families with the given
// registerer. Tests use it with a private registry to avoid collisions in the
// global one.
func NewPrometheusMetricsWith(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		dispatchQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_queries_total",
				Help: "Queries dispatched, by topology and outcome status.",
			},
			[]string{"topology", "status"},
		),
		dispatchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_latency_seconds",
				Help:    "End to end dispatch latency, by topology.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topology"},
		),
		dispatchHops: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_hops",
				Help:    "Delegation hops per successfully dispatched query.",
				Buckets: []float64{1, 2, 3, 4, 5, 8},
			},
			[]string{"topology"},
		),

		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Completion requests, by provider, model, and status.",
			},
			[]string{"provider", "model", "status"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "Completion request latency, by provider, model, and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Tokens exchanged with completion providers, by direction.",
			},
			[]string{"provider", "model", "direction"},
		),
		breakerRejects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_circuit_breaker_rejections_total",
				Help: "Requests rejected while the completion circuit breaker was open.",
			},
			[]string{"model"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "llm_circuit_breaker_state",
				Help: "Completion circuit breaker state (0 closed, 1 open, 2 half-open).",
			},
			[]string{"model"},
		),

		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "switchboard_operations_total",
				Help: "Counter samples without a dedicated metric family.",
			},
			[]string{"operation"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "switchboard_operation_duration_seconds",
				Help:    "Latency and histogram samples without a dedicated metric family.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "switchboard_system_state",
				Help: "Gauge samples without a dedicated metric family.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// durations in the matching histogram family.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	switch operation {
	case "dispatch_latency_seconds":
		pm.dispatchLatency.WithLabelValues(
			labelOr(labels, "topology"),
		).Observe(duration.Seconds())
	case "llm_latency_seconds":
		pm.llmLatency.WithLabelValues(
			labelOr(labels, "provider"),
			labelOr(labels, "model"),
			labelOr(labels, "status"),
		).Observe(duration.Seconds())
	default:
		pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// RecordCounter implements the MetricsCollector interface by incrementing the
// matching counter family.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "dispatch_queries_total":
		pm.dispatchQueries.WithLabelValues(
			labelOr(labels, "topology"),
			labelOr(labels, "status"),
		).Add(value)
	case "llm_requests_total":
		pm.llmRequests.WithLabelValues(
			labelOr(labels, "provider"),
			labelOr(labels, "model"),
			labelOr(labels, "status"),
		).Add(value)
	case "llm_tokens_total":
		pm.llmTokens.WithLabelValues(
			labelOr(labels, "provider"),
			labelOr(labels, "model"),
			labelOr(labels, "direction"),
		).Add(value)
	case "llm_circuit_breaker_rejections_total":
		pm.breakerRejects.WithLabelValues(labelOr(labels, "model")).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting the
// matching gauge family.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_circuit_breaker_state":
		pm.breakerState.WithLabelValues(labelOr(labels, "model")).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by observing the
// value in the matching histogram family.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "dispatch_hops":
		pm.dispatchHops.WithLabelValues(labelOr(labels, "topology")).Observe(value)
	case "dispatch_latency_seconds":
		pm.dispatchLatency.WithLabelValues(labelOr(labels, "topology")).Observe(value)
	case "llm_latency_seconds":
		pm.llmLatency.WithLabelValues(
			labelOr(labels, "provider"),
			labelOr(labels, "model"),
			labelOr(labels, "status"),
		).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric).Observe(value)
	}
}

// labelOr returns the label value for key, or the unknown placeholder when
// the key is absent or empty.
func labelOr(labels map[string]string, key string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return unknownLabel
}
