package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := cb.Call(func() error { return boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateOpen, cb.GetState())

	err := cb.Call(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen, "open circuit rejects without executing")
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	boom := errors.New("boom")

	require.Error(t, cb.Call(func() error { return boom }))
	require.Error(t, cb.Call(func() error { return boom }))
	require.NoError(t, cb.Call(func() error { return nil }))
	require.Error(t, cb.Call(func() error { return boom }))
	require.Error(t, cb.Call(func() error { return boom }))

	assert.Equal(t, StateClosed, cb.GetState(), "streak broken by success must not open")
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 20*time.Millisecond)

	require.Error(t, cb.Call(func() error { return errors.New("boom") }))
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, cb.Call(func() error { return nil }), "probe after cooldown executes")
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 20*time.Millisecond)

	require.Error(t, cb.Call(func() error { return errors.New("boom") }))
	time.Sleep(30 * time.Millisecond)

	require.Error(t, cb.Call(func() error { return errors.New("still down") }))
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreakerMiddleware_FailsFast(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Err = NewProviderError("mock", ErrorTypeServerError, 500, "down", nil)

	wrapped := CircuitBreakerMiddleware(2, time.Minute)(mock)

	for i := 0; i < 2; i++ {
		_, _, _, err := wrapped.DoRequest(context.Background(), "ping", nil)
		require.Error(t, err)
	}

	_, _, _, err := wrapped.DoRequest(context.Background(), "ping", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, mock.GetCallCount(), "open circuit must not reach the provider")
}

// breakerCollector records gauge values and counter increments for breaker
// metric assertions.
type breakerCollector struct {
	mu         sync.Mutex
	gauges     map[string]float64
	rejections int
}

func (c *breakerCollector) RecordLatency(string, time.Duration, map[string]string) {}

func (c *breakerCollector) RecordCounter(metric string, value float64, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if metric == "llm_circuit_breaker_rejections_total" {
		c.rejections += int(value)
	}
}

func (c *breakerCollector) RecordGauge(metric string, value float64, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gauges == nil {
		c.gauges = make(map[string]float64)
	}
	c.gauges[metric] = value
}

func (c *breakerCollector) RecordHistogram(string, float64, map[string]string) {}

func TestCircuitBreakerMiddleware_RecordsMetrics(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Err = NewProviderError("mock", ErrorTypeServerError, 500, "down", nil)

	collector := &breakerCollector{}
	wrapped := CircuitBreakerMiddlewareWithMetrics(1, time.Minute, collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "ping", nil)
	require.Error(t, err)

	_, _, _, err = wrapped.DoRequest(context.Background(), "ping", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)

	collector.mu.Lock()
	defer collector.mu.Unlock()
	assert.Equal(t, 1, collector.rejections)
	assert.Equal(t, float64(StateOpen), collector.gauges["llm_circuit_breaker_state"])
}
