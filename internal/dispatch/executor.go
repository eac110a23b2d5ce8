// Package dispatch executes routing queries against delegation trees and
// turns the observed event streams into structured routing results.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-switchboard/internal/domain"
	"github.com/ahrav/go-switchboard/internal/ports"
)

const (
	// DefaultTimeout bounds a single query dispatch end to end.
	DefaultTimeout = 120 * time.Second

	// DefaultUserID tags dispatch requests when no user is configured.
	DefaultUserID = "routing_harness"
)

// Config controls executor behavior.
// The zero value is usable once a runner is supplied.
type Config struct {
	// Topology labels spans and metrics emitted per query.
	Topology string

	// Timeout bounds each dispatch. DefaultTimeout applies when zero.
	Timeout time.Duration

	// UserID identifies the synthetic requester on every dispatch.
	// DefaultUserID applies when empty.
	UserID string

	// SessionSeed prefixes minted session identifiers so one experiment
	// invocation stays groupable in service-side logs. Empty omits it.
	SessionSeed string

	// Concurrency caps parallel queries in ExecuteBatch.
	// Values below two keep the batch sequential.
	Concurrency int

	// Metrics receives dispatch counters, latencies, and hop histograms.
	// A nil collector disables metrics without affecting execution.
	Metrics ports.MetricsCollector
}

// Executor drives queries through a dispatch topology and scores the
// resulting delegation traces. Each execution gets a fresh session so
// concurrent queries never share conversation state.
type Executor struct {
	runner      ports.DispatchRunner
	topology    string
	timeout     time.Duration
	userID      string
	sessionSeed string
	concurrency int
	metrics     ports.MetricsCollector
}

// NewExecutor creates an executor that dispatches through the given runner.
func NewExecutor(runner ports.DispatchRunner, config Config) (*Executor, error) {
	if runner == nil {
		return nil, fmt.Errorf("dispatch runner cannot be nil")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userID := config.UserID
	if userID == "" {
		userID = DefaultUserID
	}

	return &Executor{
		runner:      runner,
		topology:    config.Topology,
		timeout:     timeout,
		userID:      userID,
		sessionSeed: config.SessionSeed,
		concurrency: config.Concurrency,
		metrics:     config.Metrics,
	}, nil
}

// Execute submits one query to the root of the given tree and returns the
// delegation trace assembled from the runner's event stream. Events authored
// by the synthetic user are excluded from the trace path.
func (e *Executor) Execute(ctx context.Context, root *domain.DispatchNode, query string) (domain.DispatchTrace, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := ports.DispatchRequest{
		Root:      root,
		Query:     query,
		SessionID: e.newSessionID(),
		UserID:    e.userID,
	}

	events, err := e.runner.Run(ctx, req)
	if err != nil {
		return domain.DispatchTrace{}, fmt.Errorf("dispatch query: %w", err)
	}

	return domain.TraceFromEvents(events, "user", e.userID), nil
}

// ExecuteCase runs one query case and resolves the routing outcome.
// Transport failures and timeouts are absorbed into the result rather than
// returned: the query scores as unrouted with the error string recorded.
func (e *Executor) ExecuteCase(ctx context.Context, root *domain.DispatchNode, qc domain.QueryCase) domain.RoutingResult {
	tracer := otel.Tracer("dispatch-executor")
	ctx, span := tracer.Start(ctx, "Executor.ExecuteCase")
	defer span.End()

	span.SetAttributes(
		attribute.String("dispatch.topology", e.topology),
		attribute.String("dispatch.expected_domain", qc.ExpectedDomain),
	)

	start := time.Now()
	trace, err := e.Execute(ctx, root, qc.Text)
	elapsed := time.Since(start)

	result := domain.RoutingResult{
		Query:          qc.Text,
		ExpectedDomain: qc.ExpectedDomain,
		LatencyMs:      elapsed.Milliseconds(),
	}

	if err != nil {
		result.RoutedTo = domain.UnknownRoute
		result.Err = err.Error()
		span.SetStatus(codes.Error, err.Error())
		e.recordQuery("error", elapsed, result.HopCount)
		return result
	}

	result.RoutedTo = domain.ResolveRoutedTo(trace.Response, trace.Path)
	result.Trace = trace
	result.HopCount = trace.HopCount()

	span.SetAttributes(
		attribute.String("dispatch.routed_to", result.RoutedTo),
		attribute.Int("dispatch.hop_count", result.HopCount),
		attribute.Bool("dispatch.correct", domain.IsCorrectRoute(result.RoutedTo, qc.ExpectedDomain)),
	)
	span.SetStatus(codes.Ok, "query dispatched")
	e.recordQuery("success", elapsed, result.HopCount)

	return result
}

// ExecuteBatch runs every query case against the tree and returns results in
// input order. Individual failures are recorded per result and never abort
// the batch; only context cancellation stops it early.
func (e *Executor) ExecuteBatch(ctx context.Context, root *domain.DispatchNode, cases []domain.QueryCase) ([]domain.RoutingResult, error) {
	results := make([]domain.RoutingResult, len(cases))

	if e.concurrency < 2 {
		for i, qc := range cases {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results[i] = e.ExecuteCase(ctx, root, qc)
		}
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, qc := range cases {
		idx, c := i, qc
		g.Go(func() error {
			results[idx] = e.ExecuteCase(ctx, root, c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// newSessionID mints a session identifier unique to one dispatch. The
// seed and topology labels are embedded so service-side logs stay
// attributable to one invocation and tree.
func (e *Executor) newSessionID() string {
	parts := make([]string, 0, 3)
	if e.sessionSeed != "" {
		parts = append(parts, e.sessionSeed)
	}
	if e.topology != "" {
		parts = append(parts, e.topology)
	}
	parts = append(parts, uuid.NewString())
	return strings.Join(parts, "-")
}

// recordQuery emits per-query metrics when a collector is configured.
func (e *Executor) recordQuery(status string, elapsed time.Duration, hops int) {
	if e.metrics == nil {
		return
	}

	labels := map[string]string{"topology": e.topology, "status": status}
	e.metrics.RecordCounter("dispatch_queries_total", 1, labels)
	e.metrics.RecordLatency("dispatch_latency_seconds", elapsed, map[string]string{"topology": e.topology})
	if status == "success" {
		e.metrics.RecordHistogram("dispatch_hops", float64(hops), map[string]string{"topology": e.topology})
	}
}
