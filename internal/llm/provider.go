package llm

import (
	"context"
	"os"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a prompt and returns the model's completion
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion call
type CompletionRequest struct {
	// Prompt is the user prompt sent verbatim
	Prompt string

	// System overrides the default system message (optional)
	System string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature overrides the configured sampling temperature
	Temperature float32
}

// CompletionResponse contains the provider's raw output
type CompletionResponse struct {
	// Text is the completion text, whitespace-trimmed
	Text string

	// Model is the model that generated the response
	Model string

	// Provider names the provider that served the call
	Provider string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic, sourced from the environment
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// SystemMsg replaces the default system message when set
	SystemMsg string

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Model:       "",
		Timeout:     60,
		MaxTokens:   1000,
		Temperature: 0.3,
	}
}

// defaultSystemMsg steers providers toward output the tagger can work
// with: explicit hedges on inferences, no unmarked speculation.
const defaultSystemMsg = "You are a careful assistant. State facts plainly, mark inferences with hedging words like \"therefore\" or \"likely\", and label opinions as opinions."

func (c Config) systemMsg(override string) string {
	if override != "" {
		return override
	}
	if c.SystemMsg != "" {
		return c.SystemMsg
	}
	return defaultSystemMsg
}

func (c Config) maxTokens(override int) int {
	if override > 0 {
		return override
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

func (c Config) temperature(override float32) float32 {
	if override > 0 {
		return override
	}
	if c.Temperature > 0 {
		return c.Temperature
	}
	return 0.3
}

// ConfigFromModel converts model.LLMConfig to llm.Config, pulling API
// secrets from the environment. Keys never ride in the config file.
func ConfigFromModel(mc model.LLMConfig) Config {
	cfg := Config{
		Provider:    mc.Provider,
		Model:       mc.Model,
		Timeout:     mc.TimeoutSec,
		MaxTokens:   mc.MaxTokens,
		Temperature: mc.Temperature,
		SystemMsg:   mc.SystemMsg,
		HTTPProxy:   mc.HTTPProxy,
		HTTPSProxy:  mc.HTTPSProxy,
		NoProxy:     mc.NoProxy,
	}

	switch strings.ToLower(mc.Provider) {
	case "openai":
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
		cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	return cfg
}
