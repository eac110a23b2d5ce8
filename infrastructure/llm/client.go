// Package llm adapts external completion providers (Google Gemini, OpenAI,
// Anthropic) to the harness's completion boundary. Provider specifics stay
// behind the CoreLLM interface, and cross-cutting concerns such as rate
// limiting, retries, timeouts, circuit breaking, metrics, and tracing
// compose as middleware around it.
//
// Basic usage:
//
//	client, err := llm.NewClient("google", llm.ClientConfig{
//	    APIKey: os.Getenv("GOOGLE_API_KEY"),
//	    Model:  "gemini-2.0-flash",
//	})
//	response, err := client.Complete(ctx, "Hello!", nil)
//
// With middleware:
//
//	client, err := llm.NewClient("anthropic", llm.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Middleware: []llm.Middleware{
//	        llm.RateLimitMiddleware(10, 20),
//	        llm.RetryMiddleware(3, time.Second, 30*time.Second),
//	        llm.MetricsMiddleware("anthropic", collector),
//	    },
//	})
package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ahrav/go-switchboard/internal/ports"
)

// CoreLLM is the minimal surface a provider must implement. The middleware
// chain wraps any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response
	// text plus input and output token counts. Token counts may be
	// estimates when the provider does not report usage.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting behavior. Middleware in a
// chain applies in declaration order, first entry outermost.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds the settings for constructing a completion client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the model. Empty selects the provider default.
	Model string

	// BaseURL overrides the provider's API endpoint. Empty uses the
	// default endpoint.
	BaseURL string

	// Timeout bounds individual requests at the transport level. Zero
	// means no transport timeout.
	Timeout time.Duration

	// Middleware composes around the provider in declaration order.
	Middleware []Middleware
}

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// providerFactories maps provider type names to their factories. Providers
// register themselves at init time.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider under a type name, replacing
// any existing registration.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// apiKeyEnvVars names the environment variables consulted per provider, in
// priority order.
var apiKeyEnvVars = map[string][]string{
	"google":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// Client is the production completion client: a provider wrapped in its
// middleware chain, satisfying the harness's completion boundary.
type Client struct {
	core CoreLLM
}

var _ ports.CompletionClient = (*Client)(nil)

// NewClient builds a completion client for the given provider type. The
// middleware chain is applied so the first configured middleware observes
// the request first.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", providerType, err)
	}

	// Reverse application makes the first middleware the outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// NewClientFromEnv builds a client resolving the API key from the
// provider's conventional environment variables.
func NewClientFromEnv(providerType, model string, middleware ...Middleware) (*Client, error) {
	envVars, ok := apiKeyEnvVars[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerType)
	}

	var apiKey string
	for _, name := range envVars {
		if v := os.Getenv(name); v != "" {
			apiKey = v
			break
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set %s", ErrEmptyAPIKey, envVars[0])
	}

	return NewClient(providerType, ClientConfig{
		APIKey:     apiKey,
		Model:      model,
		Middleware: middleware,
	})
}

// Complete sends a prompt through the middleware chain and returns the
// generated text, discarding token usage.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and additionally returns input and output
// token counts for callers that track usage.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// GetModel returns the model name from the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SetModel switches the underlying provider's model.
func (c *Client) SetModel(model string) { c.core.SetModel(model) }
