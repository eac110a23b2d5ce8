package llm

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-switchboard/internal/ports"
)

// metricsLLM records request counts, latency, and token throughput per
// provider and model.
type metricsLLM struct {
	next      CoreLLM
	provider  string
	collector ports.MetricsCollector
}

// MetricsMiddleware collects completion metrics under the given provider
// label. A nil collector disables collection.
func MetricsMiddleware(provider string, collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{
			next:      next,
			provider:  provider,
			collector: collector,
		}
	}
}

// DoRequest executes the request and records latency, outcome status, and
// token counts.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	if m.collector == nil {
		return response, tokensIn, tokensOut, err
	}

	labels := map[string]string{
		"provider": m.provider,
		"model":    m.next.GetModel(),
		"status":   requestStatus(ctx, err),
	}

	m.collector.RecordHistogram("llm_latency_seconds", time.Since(start).Seconds(), labels)
	m.collector.RecordCounter("llm_requests_total", 1, labels)

	if err == nil {
		m.collector.RecordCounter("llm_tokens_total", float64(tokensIn), map[string]string{
			"provider": m.provider, "model": labels["model"], "direction": "input",
		})
		m.collector.RecordCounter("llm_tokens_total", float64(tokensOut), map[string]string{
			"provider": m.provider, "model": labels["model"], "direction": "output",
		})
	}

	return response, tokensIn, tokensOut, err
}

// requestStatus classifies the outcome for the status label.
func requestStatus(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return "timeout"
	default:
		return "error"
	}
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
