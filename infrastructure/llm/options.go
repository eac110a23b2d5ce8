package llm

import (
	"fmt"
	"net/url"
	"time"
)

// Parameter bounds shared by all providers.
const (
	// DefaultMaxTokens caps generation length when the caller does not set
	// max_tokens. Routing responses are short, so the cap is generous.
	DefaultMaxTokens = 2048

	// MinTemperature and MaxTemperature bound the sampling temperature.
	// The upper bound is 2.0 to accommodate Gemini and OpenAI.
	MinTemperature = 0.0
	MaxTemperature = 2.0

	// MinTopP and MaxTopP bound nucleus sampling.
	MinTopP = 0.0
	MaxTopP = 1.0

	// MinTimeout and MaxTimeout bound per-request timeouts.
	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

// RequestOptions is the standardized parameter set extracted from a request's
// option map. Providers translate it into their native request shapes.
type RequestOptions struct {
	// MaxTokens caps the number of generated tokens.
	MaxTokens int

	// Model overrides the provider's configured model for this request.
	Model string

	// Temperature controls sampling randomness. Nil uses the provider
	// default.
	Temperature *float64

	// TopP configures nucleus sampling. Nil uses the provider default.
	TopP *float64

	// System carries instructions prepended to or sent alongside the user
	// prompt, depending on the provider's API shape.
	System string

	// Session identifies the conversation this request belongs to.
	// Providers without session support ignore it.
	Session string

	// User is the end-user identity forwarded to providers that support
	// request attribution.
	User string

	// Extra holds provider-specific options outside the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts the standard parameters from an option map,
// falling back to defaults for missing or invalid entries. Unrecognized keys
// are preserved in Extra for provider-specific handling.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:    ExtractOptionalString(opts, "system", "", nil),
		Session:   ExtractOptionalString(opts, "session", "", nil),
		User:      ExtractOptionalString(opts, "user", "", nil),
		Extra:     make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}

	if topP := ExtractOptionalFloat64(opts, "top_p", -1, IsValidTopP); topP != -1 {
		options.TopP = &topP
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "session", "user", "temperature", "top_p":
			// Standard keys, already handled.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// ExtractOptionalInt returns the int stored under key, or defaultVal when
// the key is absent, the value has the wrong type, or the validator rejects
// it.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, validator func(int) bool) int {
	if opts == nil {
		return defaultVal
	}

	val, ok := opts[key]
	if !ok {
		return defaultVal
	}

	intVal, ok := val.(int)
	if !ok {
		return defaultVal
	}

	if validator != nil && !validator(intVal) {
		return defaultVal
	}

	return intVal
}

// ExtractOptionalString returns the string stored under key, or defaultVal
// when the key is absent, the value has the wrong type, or the validator
// rejects it.
func ExtractOptionalString(opts map[string]any, key string, defaultVal string, validator func(string) bool) string {
	if opts == nil {
		return defaultVal
	}

	val, ok := opts[key]
	if !ok {
		return defaultVal
	}

	strVal, ok := val.(string)
	if !ok {
		return defaultVal
	}

	if validator != nil && !validator(strVal) {
		return defaultVal
	}

	return strVal
}

// ExtractOptionalFloat64 returns the float64 stored under key, or defaultVal
// when the key is absent, the value has the wrong type, or the validator
// rejects it.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultVal float64, validator func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}

	val, ok := opts[key]
	if !ok {
		return defaultVal
	}

	floatVal, ok := val.(float64)
	if !ok {
		return defaultVal
	}

	if validator != nil && !validator(floatVal) {
		return defaultVal
	}

	return floatVal
}

// IsPositiveInt reports whether the value is greater than zero.
func IsPositiveInt(val int) bool { return val > 0 }

// IsNonEmptyString reports whether the string is non-empty.
func IsNonEmptyString(val string) bool { return val != "" }

// IsValidTemperature reports whether the value is within [0.0, 2.0].
func IsValidTemperature(val float64) bool {
	return val >= MinTemperature && val <= MaxTemperature
}

// IsValidTopP reports whether the value is within [0.0, 1.0].
func IsValidTopP(val float64) bool {
	return val >= MinTopP && val <= MaxTopP
}

// ValidateBaseURL checks that an endpoint override is an absolute http or
// https URL. An empty string is valid and selects the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}

	return parsedURL.String(), nil
}

// ValidateTimeout clamps a request timeout to [MinTimeout, MaxTimeout].
// Zero or negative values return zero, meaning the provider default applies.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// ClampFloat64 restricts val to [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampInt restricts val to [min, max].
func ClampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
