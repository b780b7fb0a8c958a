package llm

import (
	"fmt"
	"time"

	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
)

// Providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

const (
	DefaultMaxTokens      = 3600
	DefaultTemperature    = 0.1
	DefaultOpenAIEndpoint = "https://api.openai.com/v1"
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	DefaultAnthropicURL   = "https://api.anthropic.com/v1"
)

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider    string
	Endpoint    string // Base URL, e.g., "https://api.openai.com/v1"
	Model       string // Model name, e.g., "gpt-4o"
	APIKey      string // Optional for local OpenAI-compatible endpoints
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ConfigFrom converts the llm section of the service configuration.
func ConfigFrom(c config.LLMConfig) *Config {
	cfg := &Config{
		Provider:    c.Provider,
		Endpoint:    c.Endpoint,
		Model:       c.Model,
		APIKey:      c.APIKey,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return cfg
}

// Available reports whether a client can be built. OpenAI-compatible
// endpoints set explicitly (a local server, for example) need no key.
func (c *Config) Available() bool {
	return c.UnavailableReason() == ""
}

// UnavailableReason explains why Available is false, or returns "".
func (c *Config) UnavailableReason() string {
	switch c.Provider {
	case ProviderNone:
		return "llm provider is none"
	case ProviderOpenAI, "":
		if c.Model == "" {
			return "llm model is not set"
		}
		if c.APIKey == "" && c.Endpoint == "" {
			return "LLM_API_KEY is not set"
		}
	case ProviderAnthropic, ProviderGemini:
		if c.Model == "" {
			return "llm model is not set"
		}
		if c.APIKey == "" {
			return "LLM_API_KEY is not set"
		}
	default:
		return fmt.Sprintf("unknown llm provider %q", c.Provider)
	}
	return ""
}

// ProviderName returns the provider, defaulting to openai.
func (c *Config) ProviderName() string {
	if c.Provider == "" {
		return ProviderOpenAI
	}
	return c.Provider
}
