package llm

import (
	"context"
	"sync"
	"time"
)

// MockCoreLLM is a configurable CoreLLM double for middleware tests. It
// controls response content, timing, and failure patterns, and records
// every call.
type MockCoreLLM struct {
	mu sync.Mutex

	// Response configuration.
	Response      string
	TokensIn      int
	TokensOut     int
	Err           error
	Model         string
	ResponseDelay time.Duration

	// FailUntilAttempt makes the first N calls fail, then succeed.
	FailUntilAttempt int

	// Call tracking.
	CallCount  int
	LastPrompt string
	LastOpts   map[string]any
	Timestamps []time.Time
}

// NewMockCoreLLM returns a mock that succeeds with a fixed response.
func NewMockCoreLLM() *MockCoreLLM {
	return &MockCoreLLM{
		Response:  "mock response",
		TokensIn:  10,
		TokensOut: 5,
		Model:     "mock-model",
	}
}

// DoRequest implements CoreLLM with the configured behavior.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	m.mu.Lock()
	m.CallCount++
	call := m.CallCount
	m.LastPrompt = prompt
	m.LastOpts = opts
	m.Timestamps = append(m.Timestamps, time.Now())
	delay := m.ResponseDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUntilAttempt > 0 && call <= m.FailUntilAttempt {
		if m.Err != nil {
			return "", 0, 0, m.Err
		}
		return "", 0, 0, NewProviderError("mock", ErrorTypeServerError, 500, "simulated failure", nil)
	}

	if m.Err != nil {
		return "", 0, 0, m.Err
	}

	return m.Response, m.TokensIn, m.TokensOut, nil
}

// GetModel returns the configured model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

// SetModel updates the model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

// GetCallCount returns how many times DoRequest ran.
func (m *MockCoreLLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset clears call tracking while keeping the configuration.
func (m *MockCoreLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastPrompt = ""
	m.LastOpts = nil
	m.Timestamps = nil
}
