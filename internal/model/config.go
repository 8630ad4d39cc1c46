package model

// Config is the complete veridex configuration, loadable from
// ~/.veridex/config.yaml, VERIDEX_* environment variables, and flags.
type Config struct {
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Receipt ReceiptConfig `yaml:"receipt" mapstructure:"receipt"`

	Checkpoint CheckpointConfig `yaml:"checkpoint" mapstructure:"checkpoint"`
	Tagger     TaggerConfig     `yaml:"tagger" mapstructure:"tagger"`
	Validator  ValidatorConfig  `yaml:"validator" mapstructure:"validator"`

	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	History     HistoryConfig     `yaml:"history" mapstructure:"history"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// LLMConfig selects and tunes the provider used for runs.
// API keys never live here: OPENAI_API_KEY, ANTHROPIC_API_KEY and
// OLLAMA_BASE_URL come from the environment.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`       // openai, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`             // Provider-specific model name
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`   // Completion token cap
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"` // Sampling temperature
	TimeoutSec  int     `yaml:"timeout_sec" mapstructure:"timeout_sec"` // Per-request timeout
	SystemMsg   string  `yaml:"system_msg" mapstructure:"system_msg"`   // Optional system prompt

	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// ReceiptConfig controls simple-receipt signing. The HMAC key itself comes
// from the VERIDEX_HMAC_KEY environment variable, never from the file.
type ReceiptConfig struct {
	KeyEnv string `yaml:"key_env" mapstructure:"key_env"` // Env var holding the HMAC key
}

// CheckpointConfig controls the checkpoint protocol.
type CheckpointConfig struct {
	Scheme      string `yaml:"scheme" mapstructure:"scheme"`             // ed25519 (default) or dilithium3
	KeyDir      string `yaml:"key_dir" mapstructure:"key_dir"`           // Keystore directory
	UpstreamEnv string `yaml:"upstream_env" mapstructure:"upstream_env"` // Env var holding the upstream HMAC key
	Notes       string `yaml:"notes" mapstructure:"notes"`               // Operator notes stamped into evidence packs
}

// TaggerConfig tunes claim extraction.
type TaggerConfig struct {
	StripHTML bool `yaml:"strip_html" mapstructure:"strip_html"` // Strip markup before tagging
}

// ValidatorConfig tunes discipline validation.
type ValidatorConfig struct {
	MinEvidenceLen int      `yaml:"min_evidence_len" mapstructure:"min_evidence_len"` // FACT evidence floor, bytes
	HedgeWords     []string `yaml:"hedge_words" mapstructure:"hedge_words"`           // Override hedge vocabulary (empty = defaults)
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir        string `yaml:"dir" mapstructure:"dir"`                 // Disk cache directory ("" = ~/.veridex/cache)
	MemoryTTL  int    `yaml:"memory_ttl" mapstructure:"memory_ttl"`   // Seconds
	DiskTTL    int    `yaml:"disk_ttl" mapstructure:"disk_ttl"`       // Seconds
	MaxEntries int    `yaml:"max_entries" mapstructure:"max_entries"` // Memory layer cap
}

// ConcurrencyConfig controls batch workers and provider rate limiting.
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// HistoryConfig controls the local run-history store.
type HistoryConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Path      string `yaml:"path" mapstructure:"path"`             // Badger directory ("" = ~/.veridex/history)
	DigestAlg string `yaml:"digest_alg" mapstructure:"digest_alg"` // sha256, sha512, sha3-256
}

// ServerConfig controls the HTTP facade.
type ServerConfig struct {
	Port      string `yaml:"port" mapstructure:"port"`
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"` // Empty disables auth
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Dir     string `yaml:"dir" mapstructure:"dir"` // Artifact output directory
}

// DefaultConfig returns the built-in defaults, suitable for config init.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "",
			MaxTokens:   1000,
			Temperature: 0.3,
			TimeoutSec:  60,
		},
		Receipt: ReceiptConfig{
			KeyEnv: "VERIDEX_HMAC_KEY",
		},
		Checkpoint: CheckpointConfig{
			Scheme:      SchemeEd25519,
			KeyDir:      "",
			UpstreamEnv: "VERIDEX_UPSTREAM_KEY",
		},
		Tagger: TaggerConfig{
			StripHTML: false,
		},
		Validator: ValidatorConfig{
			MinEvidenceLen: 10,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MemoryTTL:  3600,
			DiskTTL:    86400,
			MaxEntries: 1000,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 2.0,
			Burst:             4,
		},
		History: HistoryConfig{
			Enabled:   false,
			DigestAlg: "sha256",
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Output: OutputConfig{
			Dir: "artifacts",
		},
	}
}
