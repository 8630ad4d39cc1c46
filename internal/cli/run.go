package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/pipeline"
)

var (
	runJSON     string
	runMD       string
	outDir      string
	runTimeout  time.Duration
	llmProvider string
	llmModel    string
	maxTokens   int
	temperature float32
	systemMsg   string
	noCache     bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Send a prompt to the provider and generate a receipted report",
	Long: `Run sends a single prompt to the configured LLM provider and:
- Wraps the raw response in a tamper-evident HMAC receipt
- Scans the response for credential-like material
- Tags the epistemic claims the response makes
- Validates the claims against the discipline rules
- Calculates a transparent hygiene score

Example:
  veridex run "Why is the sky blue?"
  veridex run "Summarize the history of Go" --provider openai --model gpt-4o-mini
  veridex run "What is a monad?" --json report.json --md report.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Output flags
	runCmd.Flags().StringVar(&runJSON, "json", "", "output JSON path (default: <out>/report.json)")
	runCmd.Flags().StringVar(&runMD, "md", "", "output Markdown path (optional)")
	runCmd.Flags().StringVar(&outDir, "out", "", "artifact output directory (default: ./artifacts)")

	// Provider flags
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Minute, "overall run timeout")
	runCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	runCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	runCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "completion token cap")
	runCmd.Flags().Float32Var(&temperature, "temperature", 0, "sampling temperature")
	runCmd.Flags().StringVar(&systemMsg, "system", "", "override the system message")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response cache (force a fresh provider call)")
}

func runRun(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// Build configuration from file, environment, and flags
	cfg := loadConfig()
	if cmd.Flags().Changed("provider") {
		cfg.LLM.Provider = llmProvider
	}
	if cmd.Flags().Changed("model") {
		cfg.LLM.Model = llmModel
	}
	if cmd.Flags().Changed("max-tokens") {
		cfg.LLM.MaxTokens = maxTokens
	}
	if cmd.Flags().Changed("temperature") {
		cfg.LLM.Temperature = temperature
	}
	if cmd.Flags().Changed("system") {
		cfg.LLM.SystemMsg = systemMsg
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	cfg.Output.Verbose = verbose

	if err := requireProviderKey(cfg.LLM.Provider); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Prompt: %s\n", prompt)
		fmt.Fprintf(os.Stderr, "Provider: %s\n", cfg.LLM.Provider)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	// Create pipeline
	p := pipeline.NewPipeline(&cfg)
	defer func() { _ = p.Close() }()

	report, err := p.Run(ctx, prompt)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if verbose {
		if report.Cached {
			fmt.Fprintf(os.Stderr, "✓ Response served from cache\n")
		}
		fmt.Fprintf(os.Stderr, "✓ Signed receipt %s\n", report.Receipt.ID)
		fmt.Fprintf(os.Stderr, "✓ Tagged %d claims\n", len(report.Ledger.Claims))
		fmt.Fprintf(os.Stderr, "✓ Calculated hygiene index: %d/100\n", report.Score.Index)
		fmt.Fprintln(os.Stderr)
	}

	jsonPath := artifactPath(runJSON, cfg.Output.Dir, "report.json")
	if err := p.RenderReport(report, jsonPath, runMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
