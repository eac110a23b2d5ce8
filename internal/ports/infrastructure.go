// Package ports defines the capability boundaries between the routing
// harness core and its infrastructure: the external completion service,
// the dispatch runner that drives delegation trees through it, and metrics
// collection. Production adapters live under infrastructure/; deterministic
// test doubles live in internal/testutils.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-switchboard/internal/domain"
)

// CompletionClient is the raw text-completion boundary to an LLM provider.
// Implementations handle provider-specific authentication, request
// formatting, and response parsing behind this interface.
type CompletionClient interface {
	// Complete sends one prompt to the provider and returns the generated
	// text. The options map carries per-request settings without widening
	// the interface. Recognized options:
	//   - "model": string (override the configured model)
	//   - "max_tokens": int
	//   - "temperature": float64
	//   - "session": string (conversation/session identifier, forwarded to
	//     providers that support request tagging)
	//   - "user": string (end-user identifier for provider-side isolation)
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// GetModel returns the model identifier in use, for logging and
	// metric labels.
	GetModel() string
}

// DispatchRequest is one query submission into a delegation tree: the tree's
// root, the raw query text, and the session/user pair isolating this
// execution's conversation state inside the completion service.
type DispatchRequest struct {
	// Root is the topology root the query enters through.
	Root *domain.DispatchNode

	// Query is the raw natural-language request.
	Query string

	// SessionID isolates this execution's conversation state. Concurrent
	// executions must use distinct session identifiers.
	SessionID string

	// UserID is the synthetic end-user identity attached to the session.
	UserID string
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations integrate with observability platforms such as Prometheus;
// a nil collector is legal everywhere and disables collection.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram distribution.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
