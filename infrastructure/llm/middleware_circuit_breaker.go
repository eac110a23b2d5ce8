package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ahrav/go-switchboard/internal/ports"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a request
// without calling the provider.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState is the current state of a circuit breaker.
type CircuitBreakerState int

const (
	// StateClosed passes all requests through. This is the healthy state.
	StateClosed CircuitBreakerState = iota

	// StateOpen rejects all requests immediately after too many
	// consecutive failures.
	StateOpen

	// StateHalfOpen admits a single probe request after the cooldown to
	// test recovery.
	StateHalfOpen
)

// CircuitBreaker tracks consecutive failures and opens after the threshold,
// staying open for the cooldown before probing recovery.
type CircuitBreaker struct {
	mu               sync.RWMutex
	state            CircuitBreakerState
	failureCount     int
	maxFailures      int
	cooldownDuration time.Duration
	lastFailure      time.Time
}

// NewCircuitBreaker builds a closed circuit breaker that opens after
// maxFailures consecutive errors and cools down for cooldownDuration.
func NewCircuitBreaker(maxFailures int, cooldownDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		maxFailures:      maxFailures,
		cooldownDuration: cooldownDuration,
	}
}

// Call executes fn through the breaker. An open circuit returns
// ErrCircuitOpen without executing fn; otherwise the result of fn drives
// the state transitions.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.cooldownDuration {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		fallthrough
	case StateHalfOpen:
		err := fn()
		if err != nil {
			cb.failureCount++
			cb.lastFailure = time.Now()
			cb.state = StateOpen
			return err
		}
		cb.failureCount = 0
		cb.state = StateClosed
		return nil
	case StateClosed:
		err := fn()
		if err != nil {
			cb.failureCount++
			cb.lastFailure = time.Now()
			if cb.failureCount >= cb.maxFailures {
				cb.state = StateOpen
			}
			return err
		}
		cb.failureCount = 0
		return nil
	}
	return nil
}

// GetState returns the current state for monitoring and tests.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// circuitBreakedLLM fails fast when the provider is unhealthy so a stuck
// provider cannot burn an entire experiment run on timeouts.
type circuitBreakedLLM struct {
	next    CoreLLM
	cb      *CircuitBreaker
	metrics ports.MetricsCollector
}

// CircuitBreakerMiddleware opens the circuit after maxFailures consecutive
// errors and probes recovery after the cooldown.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	return CircuitBreakerMiddlewareWithMetrics(maxFailures, cooldown, nil)
}

// CircuitBreakerMiddlewareWithMetrics additionally reports breaker state
// and trip counts to the collector. A nil collector disables reporting.
func CircuitBreakerMiddlewareWithMetrics(maxFailures int, cooldown time.Duration, metrics ports.MetricsCollector) Middleware {
	cb := NewCircuitBreaker(maxFailures, cooldown)

	return func(next CoreLLM) CoreLLM {
		return &circuitBreakedLLM{
			next:    next,
			cb:      cb,
			metrics: metrics,
		}
	}
}

// DoRequest executes the request through the circuit breaker.
func (c *circuitBreakedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var response string
	var tokensIn, tokensOut int

	err := c.cb.Call(func() error {
		var err error
		response, tokensIn, tokensOut, err = c.next.DoRequest(ctx, prompt, opts)
		return err
	})

	if c.metrics != nil {
		labels := map[string]string{"model": c.next.GetModel()}
		if errors.Is(err, ErrCircuitOpen) {
			c.metrics.RecordCounter("llm_circuit_breaker_rejections_total", 1, labels)
		}
		c.metrics.RecordGauge("llm_circuit_breaker_state", float64(c.cb.GetState()), labels)
	}

	return response, tokensIn, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (c *circuitBreakedLLM) GetModel() string { return c.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (c *circuitBreakedLLM) SetModel(m string) { c.next.SetModel(m) }
