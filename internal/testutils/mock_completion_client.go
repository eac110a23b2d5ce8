package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ahrav/go-switchboard/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.CompletionClient = (*MockCompletionClient)(nil)

// MockResponse defines a pre-configured response pattern for the mock
// completion client.
type MockResponse struct {
	// Pattern is matched as a substring against prompts. The empty
	// pattern is the default response.
	Pattern string

	// Response is the text returned for matching prompts.
	Response string

	// Err, when set, is returned instead of the response.
	Err error
}

// MockCompletionClient implements ports.CompletionClient with deterministic
// responses keyed by prompt substring. It records every prompt and the
// session option it arrived with, so tests can assert on conversation
// assembly and session tagging. Safe for concurrent use.
type MockCompletionClient struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	prompts   []string
	sessions  []string
}

// NewMockCompletionClient creates a mock client with no configured
// responses; unmatched prompts return a generic acknowledgment.
func NewMockCompletionClient(model string) *MockCompletionClient {
	return &MockCompletionClient{model: model}
}

// AddResponse registers a response pattern. Patterns are matched in
// registration order; the first pattern contained in the prompt wins.
func (m *MockCompletionClient) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Complete returns the configured response for the first matching pattern.
func (m *MockCompletionClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	if session, ok := options["session"].(string); ok {
		m.sessions = append(m.sessions, session)
	}
	resp, ok := m.match(prompt)
	m.mu.Unlock()

	if !ok {
		return "Acknowledged.", nil
	}
	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Response, nil
}

func (m *MockCompletionClient) match(prompt string) (MockResponse, bool) {
	var fallback *MockResponse
	for i, r := range m.responses {
		if r.Pattern == "" {
			if fallback == nil {
				fallback = &m.responses[i]
			}
			continue
		}
		if strings.Contains(prompt, r.Pattern) {
			return r, true
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return MockResponse{}, false
}

// GetModel returns the mock model identifier.
func (m *MockCompletionClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel updates the mock model identifier.
func (m *MockCompletionClient) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockCompletionClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Sessions returns the session option of every call that carried one.
func (m *MockCompletionClient) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// Reset clears configured responses and recorded calls.
func (m *MockCompletionClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	m.prompts = nil
	m.sessions = nil
}
