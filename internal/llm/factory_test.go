package llm

import (
	"testing"

	"github.com/veridex/veridex/internal/model"
)

func TestNewProvider(t *testing.T) {
	cases := []struct {
		name     string
		config   Config
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false, false},
		{"anthropic", Config{Provider: "anthropic", APIKey: "k"}, "anthropic", false, false},
		{"claude alias", Config{Provider: "claude", APIKey: "k"}, "anthropic", false, false},
		{"ollama", Config{Provider: "ollama"}, "ollama", false, false},
		{"case insensitive", Config{Provider: "OpenAI", APIKey: "k"}, "openai", false, false},
		{"disabled", Config{Provider: ""}, "", true, false},
		{"unknown", Config{Provider: "bard"}, "", false, true},
		{"openai without key", Config{Provider: "openai"}, "", false, true},
	}

	for _, tc := range cases {
		p, err := NewProvider(tc.config)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got nil", tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if tc.wantNil {
			if p != nil {
				t.Errorf("%s: expected nil provider, got %v", tc.name, p)
			}
			continue
		}
		if p == nil {
			t.Errorf("%s: expected provider, got nil", tc.name)
			continue
		}
		if p.Name() != tc.wantName {
			t.Errorf("%s: name = %q, want %q", tc.name, p.Name(), tc.wantName)
		}
	}
}

func TestConfigFromModel(t *testing.T) {
	mc := model.LLMConfig{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		MaxTokens:   500,
		Temperature: 0.7,
		TimeoutSec:  15,
		SystemMsg:   "Be brief.",
		HTTPProxy:   "http://proxy:3128",
	}
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg := ConfigFromModel(mc)

	if cfg.Provider != "openai" || cfg.Model != "gpt-4o-mini" {
		t.Errorf("provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.MaxTokens != 500 || cfg.Timeout != 15 {
		t.Errorf("max_tokens/timeout = %d/%d", cfg.MaxTokens, cfg.Timeout)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("temperature = %v", cfg.Temperature)
	}
	if cfg.SystemMsg != "Be brief." {
		t.Errorf("system msg = %q", cfg.SystemMsg)
	}
	if cfg.HTTPProxy != "http://proxy:3128" {
		t.Errorf("http proxy = %q", cfg.HTTPProxy)
	}
	if cfg.APIKey != "sk-from-env" {
		t.Errorf("API key = %q, want value from OPENAI_API_KEY", cfg.APIKey)
	}
}

func TestConfigFromModelEnvPerProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")

	if cfg := ConfigFromModel(model.LLMConfig{Provider: "anthropic"}); cfg.APIKey != "anthropic-key" {
		t.Errorf("anthropic key = %q", cfg.APIKey)
	}
	if cfg := ConfigFromModel(model.LLMConfig{Provider: "claude"}); cfg.APIKey != "anthropic-key" {
		t.Errorf("claude alias key = %q", cfg.APIKey)
	}
	if cfg := ConfigFromModel(model.LLMConfig{Provider: "ollama"}); cfg.BaseURL != "http://gpu-box:11434" {
		t.Errorf("ollama base URL = %q", cfg.BaseURL)
	}
	// An ollama config must not pick up API keys
	if cfg := ConfigFromModel(model.LLMConfig{Provider: "ollama"}); cfg.APIKey != "" {
		t.Errorf("ollama config picked up an API key: %q", cfg.APIKey)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}

	if got := cfg.systemMsg(""); got != defaultSystemMsg {
		t.Errorf("systemMsg fallback = %q", got)
	}
	if got := cfg.systemMsg("custom"); got != "custom" {
		t.Errorf("systemMsg override = %q", got)
	}
	if got := cfg.maxTokens(0); got != 1000 {
		t.Errorf("maxTokens fallback = %d", got)
	}
	if got := cfg.maxTokens(64); got != 64 {
		t.Errorf("maxTokens override = %d", got)
	}
	if got := cfg.temperature(0); got != 0.3 {
		t.Errorf("temperature fallback = %v", got)
	}

	cfg = Config{SystemMsg: "configured", MaxTokens: 200, Temperature: 0.9}
	if got := cfg.systemMsg(""); got != "configured" {
		t.Errorf("configured systemMsg = %q", got)
	}
	if got := cfg.maxTokens(0); got != 200 {
		t.Errorf("configured maxTokens = %d", got)
	}
	if got := cfg.temperature(0); got != 0.9 {
		t.Errorf("configured temperature = %v", got)
	}
}
