package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-switchboard/internal/ports"
)

// openAITestServer returns a server answering every chat completion with the
// given content, recording the last decoded request body.
func openAITestServer(t *testing.T, content string, lastBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastBody != nil {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			*lastBody = body
		}

		w.Header().Set("Content-Type", "application/json")
		response := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
}

func TestOpenAIProvider_DoRequest(t *testing.T) {
	var lastBody map[string]any
	server := openAITestServer(t, "[ROUTED_TO: finance_agent]", &lastBody)
	defer server.Close()

	provider, err := newOpenAIProvider(ClientConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL + "/v1",
	})
	require.NoError(t, err)

	response, tokensIn, tokensOut, err := provider.DoRequest(context.Background(),
		"Check my bank balance", map[string]any{
			"system": "You are a dispatcher.",
			"user":   "test_user",
		})
	require.NoError(t, err)

	assert.Equal(t, "[ROUTED_TO: finance_agent]", response)
	assert.Equal(t, 12, tokensIn)
	assert.Equal(t, 8, tokensOut)

	assert.Equal(t, "gpt-4o-mini", lastBody["model"])
	assert.Equal(t, "test_user", lastBody["user"])

	messages, ok := lastBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "You are a dispatcher.", first["content"])
}

func TestOpenAIProvider_ErrorClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "requests"}}`))
	}))
	defer server.Close()

	provider, err := newOpenAIProvider(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
	})
	require.NoError(t, err)

	_, _, _, err = provider.DoRequest(context.Background(), "ping", nil)
	require.Error(t, err)

	assert.ErrorIs(t, err, ports.ErrRateLimited)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, ErrorTypeRateLimit, providerErr.Type)
	assert.Equal(t, 429, providerErr.StatusCode)
	assert.True(t, providerErr.IsRetryable())
}

func TestOpenAIProvider_Construction(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := newOpenAIProvider(ClientConfig{})
		assert.ErrorIs(t, err, ErrEmptyAPIKey)
	})

	t.Run("default model", func(t *testing.T) {
		provider, err := newOpenAIProvider(ClientConfig{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, OpenAIDefaultModel, provider.GetModel())
	})

	t.Run("invalid base URL", func(t *testing.T) {
		_, err := newOpenAIProvider(ClientConfig{APIKey: "k", BaseURL: "ftp://nope"})
		assert.Error(t, err)
	})
}
