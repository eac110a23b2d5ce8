package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-switchboard/internal/ports"
)

func TestProviderError_Error(t *testing.T) {
	err := NewProviderError("google", ErrorTypeRateLimit, 429, "slow down", errors.New("quota"))

	msg := err.Error()
	assert.Contains(t, msg, "google error")
	assert.Contains(t, msg, "HTTP 429")
	assert.Contains(t, msg, "[rate_limit]")
	assert.Contains(t, msg, "slow down")
	assert.Contains(t, msg, "quota")
}

func TestProviderError_Unwrap(t *testing.T) {
	underlying := errors.New("socket closed")
	err := NewProviderError("openai", ErrorTypeNetwork, 0, "", underlying)

	assert.ErrorIs(t, err, underlying)
}

func TestProviderError_IsRetryable(t *testing.T) {
	tests := []struct {
		errType   ErrorType
		retryable bool
	}{
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeNetwork, true},
		{ErrorTypeTimeout, true},
		{ErrorTypeAuthentication, false},
		{ErrorTypeBadRequest, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeContentPolicy, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		err := NewProviderError("p", tt.errType, 0, "", nil)
		assert.Equal(t, tt.retryable, err.IsRetryable(), "type %v", tt.errType)
	}
}

// TestProviderError_SentinelMapping verifies classified errors match the
// transport sentinels through errors.Is.
func TestProviderError_SentinelMapping(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		sentinel error
	}{
		{name: "rate limit", errType: ErrorTypeRateLimit, sentinel: ports.ErrRateLimited},
		{name: "authentication", errType: ErrorTypeAuthentication, sentinel: ports.ErrAuthenticationFailed},
		{name: "server error", errType: ErrorTypeServerError, sentinel: ports.ErrServiceUnavailable},
		{name: "timeout", errType: ErrorTypeTimeout, sentinel: ports.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewProviderError("google", tt.errType, 0, "", nil)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}

	t.Run("no false positives", func(t *testing.T) {
		err := NewProviderError("google", ErrorTypeBadRequest, 400, "", nil)
		assert.NotErrorIs(t, err, ports.ErrRateLimited)
		assert.NotErrorIs(t, err, ports.ErrTimeout)
	})
}

func TestErrorClassifier_ClassifyHTTPError(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "openai"}

	tests := []struct {
		status   int
		wantType ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeBadRequest},
		{404, ErrorTypeNotFound},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeBadRequest},
		{599, ErrorTypeServerError},
		{302, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		err := classifier.ClassifyHTTPError(tt.status, "msg", nil)
		assert.Equal(t, tt.wantType, err.Type, "status %d", tt.status)
		assert.Equal(t, tt.status, err.StatusCode)
		assert.Equal(t, "openai", err.Provider)
	}
}

func TestErrorClassifier_ClassifyContextError(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "anthropic"}

	deadline := classifier.ClassifyContextError(context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, deadline.Type)
	assert.ErrorIs(t, deadline, ports.ErrTimeout)

	canceled := classifier.ClassifyContextError(context.Canceled)
	assert.Equal(t, ErrorTypeNetwork, canceled.Type)
	require.ErrorIs(t, canceled, context.Canceled)
}
