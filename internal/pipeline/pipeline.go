package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/cache"
	"github.com/veridex/veridex/internal/checkpoint"
	"github.com/veridex/veridex/internal/extract"
	"github.com/veridex/veridex/internal/history"
	"github.com/veridex/veridex/internal/keys"
	"github.com/veridex/veridex/internal/llm"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/receipt"
	"github.com/veridex/veridex/internal/score"
	"github.com/veridex/veridex/internal/scrub"
	"github.com/veridex/veridex/internal/validate"
	"github.com/veridex/veridex/internal/worker"
)

// Injectable for deterministic tests.
var (
	nowFunc  = time.Now
	newRunID = uuid.NewString
)

// Pipeline orchestrates the complete run process
type Pipeline struct {
	provider  llm.Provider        // nil when no provider configured
	cache     *cache.LayeredCache // nil when caching disabled
	limiter   *worker.Limiter
	tagger    *extract.Tagger
	validator *validate.Validator
	scorer    *score.Scorer
	renderer  *Renderer
	history   *history.Store // nil when history disabled
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	// Create LLM provider if configured
	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Printf("Warning: Failed to initialize LLM provider: %v\n", err)
		} else {
			provider = p
		}
	}

	completionCache, err := cache.FromConfig(cfg.Cache)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize cache: %v\n", err)
	}

	store, err := history.FromConfig(cfg.History)
	if err != nil {
		fmt.Printf("Warning: Failed to open history store: %v\n", err)
	}

	return &Pipeline{
		provider:  provider,
		cache:     completionCache,
		limiter:   worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst),
		tagger:    extract.NewTagger(extract.DefaultRules()),
		validator: validate.NewValidator(validate.PolicyFromConfig(cfg.Validator)),
		scorer:    score.NewScorer(),
		renderer:  NewRenderer(cfg.Output.Verbose),
		history:   store,
		config:    cfg,
	}
}

// Provider returns the active provider name
func (p *Pipeline) Provider() string {
	if p.provider != nil {
		return p.provider.Name()
	}
	return p.config.LLM.Provider
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// History returns the run-history store, or nil when disabled
func (p *Pipeline) History() *history.Store {
	return p.history
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	if p.history != nil {
		return p.history.Close()
	}
	return nil
}

// Run executes one prompt through the full harness: provider call
// (through cache and rate limiter), receipt, credential scan, claim
// tagging, validation, scoring, and optional history recording.
func (p *Pipeline) Run(ctx context.Context, prompt string) (*model.Report, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt is empty")
	}
	if p.provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	// Resolve the receipt key before spending provider tokens
	key, err := p.receiptKey()
	if err != nil {
		return nil, err
	}

	runID := newRunID()
	invokedAt := nowFunc().UTC()

	completion, cached, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	rcpt, err := receipt.Sign(completion.Text, key)
	if err != nil {
		return nil, fmt.Errorf("sign receipt: %w", err)
	}

	// Credential scan warns but never alters the response: the receipt
	// binds the exact bytes the provider returned
	var warnings []string
	for _, f := range scrub.Scan(completion.Text) {
		warnings = append(warnings,
			fmt.Sprintf("credential-like material (%s) at offset %d: %s", f.Rule, f.Index, f.Masked))
	}

	source := completion.Text
	if p.config.Tagger.StripHTML {
		if text, err := extract.VisibleText(source); err == nil {
			source = text
		}
	}

	ledger := p.tagger.Tag(source)
	validation := p.validator.Validate(ledger, source)
	scoreResult := p.scorer.Calculate(ledger, validation)

	report := &model.Report{
		RunID:      runID,
		Prompt:     prompt,
		Provider:   p.provider.Name(),
		Model:      completion.Model,
		InvokedAt:  invokedAt,
		Cached:     cached,
		Receipt:    rcpt,
		Ledger:     ledger,
		Validation: validation,
		Score:      scoreResult,
		Warnings:   warnings,
		Guarantees: model.DefaultGuarantees(),
	}

	p.record(report)

	return report, nil
}

// TagResult is the outcome of tagging text without a provider call
type TagResult struct {
	Source     string                 `json:"source"`
	Ledger     model.Ledger           `json:"ledger"`
	Validation model.ValidationResult `json:"validation"`
	Score      model.Score            `json:"score"`
}

// TagText tags and validates text offline, without any provider call
func (p *Pipeline) TagText(text string) *TagResult {
	source := text
	if p.config.Tagger.StripHTML {
		if stripped, err := extract.VisibleText(source); err == nil {
			source = stripped
		}
	}

	ledger := p.tagger.Tag(source)
	validation := p.validator.Validate(ledger, source)

	return &TagResult{
		Source:     source,
		Ledger:     ledger,
		Validation: validation,
		Score:      p.scorer.Calculate(ledger, validation),
	}
}

// Checkpoint runs the checkpoint protocol over an upstream payload using
// the configured signature scheme and key store.
func (p *Pipeline) Checkpoint(payload any, upstreamMAC string) (*checkpoint.Outcome, error) {
	runner, err := p.checkpointRunner()
	if err != nil {
		return nil, err
	}
	return runner.Run(payload, upstreamMAC)
}

// SignResponse wraps response text in a signed receipt using the
// configured HMAC key
func (p *Pipeline) SignResponse(text string) (model.Receipt, error) {
	key, err := p.receiptKey()
	if err != nil {
		return model.Receipt{}, err
	}
	return receipt.Sign(text, key)
}

// VerifyReceipt checks a simple receipt against the configured HMAC key
func (p *Pipeline) VerifyReceipt(r model.Receipt) (model.VerifyResult, error) {
	key, err := p.receiptKey()
	if err != nil {
		return model.VerifyResult{}, err
	}
	return receipt.Verify(r, key), nil
}

// VerifyCheckpoint verifies a master receipt against its evidence pack
// offline. A missing verify key surfaces as an invalid result, not an
// error, so callers always get the closed reason vocabulary.
func (p *Pipeline) VerifyCheckpoint(master model.MasterReceipt, pack model.EvidencePack) model.VerifyResult {
	var verifier keys.Verifier
	if store, err := p.keyStore(); err == nil {
		if v, err := store.Verifier(master.SignatureScheme); err == nil {
			verifier = v
		}
	}
	return checkpoint.VerifyOffline(master, pack, verifier)
}

// keyStore opens the checkpoint key store from config
func (p *Pipeline) keyStore() (*keys.Store, error) {
	dir := p.config.Checkpoint.KeyDir
	if dir == "" {
		d, err := keys.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve key directory: %w", err)
		}
		dir = d
	}

	store, err := keys.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open key store: %w", err)
	}
	return store, nil
}

// checkpointRunner assembles a protocol runner from config
func (p *Pipeline) checkpointRunner() (*checkpoint.Runner, error) {
	scheme := p.config.Checkpoint.Scheme
	if scheme == "" {
		scheme = model.SchemeEd25519
	}

	store, err := p.keyStore()
	if err != nil {
		return nil, err
	}

	signer, err := store.Signer(scheme)
	if err != nil {
		return nil, fmt.Errorf("load %s signing key: %w", scheme, err)
	}
	verifier, err := store.Verifier(scheme)
	if err != nil {
		return nil, fmt.Errorf("load %s verify key: %w", scheme, err)
	}

	return checkpoint.NewRunner(checkpoint.RunnerConfig{
		Signer:      signer,
		Verifier:    verifier,
		UpstreamKey: p.upstreamKey(),
		Producer:    "veridex",
		Notes:       p.config.Checkpoint.Notes,
		Tagger:      p.tagger,
	}), nil
}

// receiptKey resolves the HMAC key from the configured environment variable
func (p *Pipeline) receiptKey() ([]byte, error) {
	env := p.config.Receipt.KeyEnv
	if env == "" {
		env = "VERIDEX_HMAC_KEY"
	}
	key := os.Getenv(env)
	if key == "" {
		return nil, fmt.Errorf("receipt key missing: set %s", env)
	}
	return []byte(key), nil
}

// upstreamKey resolves the upstream HMAC key, empty when unset
func (p *Pipeline) upstreamKey() []byte {
	env := p.config.Checkpoint.UpstreamEnv
	if env == "" {
		env = "VERIDEX_UPSTREAM_KEY"
	}
	key := os.Getenv(env)
	if key == "" {
		return nil
	}
	return []byte(key)
}

// cachedCompletion is the cache entry for one provider response
type cachedCompletion struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
}

// complete returns the provider response for prompt, consulting the
// cache first and rate limiting actual provider calls
func (p *Pipeline) complete(ctx context.Context, prompt string) (*cachedCompletion, bool, error) {
	cacheKey := cache.CompletionKey(p.provider.Name(), p.config.LLM.Model, prompt)

	if p.cache != nil {
		if data, ok := p.cache.Get(cacheKey); ok {
			var cc cachedCompletion
			if err := json.Unmarshal(data, &cc); err == nil {
				return &cc, true, nil
			}
			// Corrupt entry: fall through to a fresh call
		}
	}

	if err := p.limiter.Wait(ctx, p.provider.Name()); err != nil {
		return nil, false, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, false, err
	}

	cc := &cachedCompletion{
		Text:       resp.Text,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}

	if p.cache != nil {
		if data, err := json.Marshal(cc); err == nil {
			if err := p.cache.Set(cacheKey, data, 0); err != nil && p.config.Output.Verbose {
				fmt.Printf("Warning: cache store failed: %v\n", err)
			}
		}
	}

	return cc, false, nil
}

// record stores the report in history when enabled
func (p *Pipeline) record(report *model.Report) {
	if p.history == nil {
		return
	}

	status := "VALID"
	if !report.Validation.Passed {
		status = "INVALID"
	}

	data, err := json.Marshal(report)
	if err != nil {
		fmt.Printf("Warning: history marshal failed: %v\n", err)
		return
	}

	err = p.history.Put(history.RunRecord{
		ID:        report.RunID,
		Kind:      "run",
		CreatedAt: report.InvokedAt,
		Status:    status,
		Report:    data,
	})
	if err != nil {
		fmt.Printf("Warning: history store failed: %v\n", err)
	}
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.WriteJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.WriteMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.Summary(report)

	return nil
}
