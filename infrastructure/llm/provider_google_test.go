package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"github.com/ahrav/go-switchboard/internal/ports"
)

// bareGoogleProvider builds a provider without a live client, enough for
// the pure request-shaping and classification helpers.
func bareGoogleProvider() *googleProvider {
	return &googleProvider{
		BaseProvider:    BaseProvider{model: GoogleDefaultModel},
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: "google"},
	}
}

func TestGoogleProvider_BuildContents(t *testing.T) {
	p := bareGoogleProvider()

	t.Run("plain prompt", func(t *testing.T) {
		contents := p.buildContents("Book a flight", RequestOptions{})
		require.Len(t, contents, 1)
		assert.Equal(t, "Book a flight", contents[0].Parts[0].Text)
	})

	t.Run("system prompt prepended", func(t *testing.T) {
		contents := p.buildContents("Book a flight", RequestOptions{System: "Route queries."})
		require.Len(t, contents, 1)
		assert.Equal(t, "System: Route queries.\n\nUser: Book a flight", contents[0].Parts[0].Text)
	})
}

func TestGoogleProvider_BuildGenerationConfig(t *testing.T) {
	p := bareGoogleProvider()

	temp := 5.0
	topP := 1.5
	options := RequestOptions{
		Temperature: &temp,
		TopP:        &topP,
		MaxTokens:   256,
		Extra:       map[string]any{"top_k": 100},
	}

	config := p.buildGenerationConfig(options)

	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 2.0, float64(*config.Temperature), 0.001, "temperature clamps to 2.0")
	require.NotNil(t, config.TopP)
	assert.InDelta(t, 1.0, float64(*config.TopP), 0.001, "top_p clamps to 1.0")
	assert.Equal(t, int32(256), config.MaxOutputTokens)
	require.NotNil(t, config.TopK)
	assert.InDelta(t, 40, float64(*config.TopK), 0.001, "top_k clamps to 40")
}

func TestGoogleProvider_HandleError(t *testing.T) {
	p := bareGoogleProvider()

	t.Run("rate limit", func(t *testing.T) {
		err := p.handleError(&googleapi.Error{Code: 429, Message: "quota exceeded"})
		assert.ErrorIs(t, err, ports.ErrRateLimited)
	})

	t.Run("safety block", func(t *testing.T) {
		err := p.handleError(&googleapi.Error{Code: 400, Message: "Request blocked by safety settings"})
		var providerErr *ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, ErrorTypeContentPolicy, providerErr.Type)
	})

	t.Run("safety reason", func(t *testing.T) {
		apiErr := &googleapi.Error{
			Code:   400,
			Errors: []googleapi.ErrorItem{{Reason: "SAFETY"}},
		}
		var providerErr *ProviderError
		require.ErrorAs(t, p.handleError(apiErr), &providerErr)
		assert.Equal(t, ErrorTypeContentPolicy, providerErr.Type)
	})

	t.Run("server error", func(t *testing.T) {
		err := p.handleError(&googleapi.Error{Code: 503, Message: "backend unavailable"})
		assert.ErrorIs(t, err, ports.ErrServiceUnavailable)
	})

	t.Run("unclassified", func(t *testing.T) {
		var providerErr *ProviderError
		require.ErrorAs(t, p.handleError(assert.AnError), &providerErr)
		assert.Equal(t, ErrorTypeUnknown, providerErr.Type)
	})
}

func TestGoogleProvider_GetTokenCount(t *testing.T) {
	p := bareGoogleProvider()

	usage := &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     15,
		CandidatesTokenCount: 6,
	}

	assert.Equal(t, 15, p.getTokenCount(usage, true, "prompt"))
	assert.Equal(t, 6, p.getTokenCount(usage, false, "reply"))
	assert.Equal(t, 3, p.getTokenCount(nil, true, "hello worlds"), "estimates without metadata")
}

func TestGoogleProvider_Construction(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := newGoogleProvider(ClientConfig{})
		assert.ErrorIs(t, err, ErrEmptyAPIKey)
	})

	t.Run("default model", func(t *testing.T) {
		provider, err := newGoogleProvider(ClientConfig{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, GoogleDefaultModel, provider.GetModel())
	})
}
