package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/pipeline"
	"github.com/veridex/veridex/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchRPS     float64
	batchBurst   int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run multiple prompts from a file in parallel",
	Long: `Batch processes multiple prompts concurrently:
- Read prompts from input file (one per line, # starts a comment)
- Run prompts in parallel with configurable worker count
- Rate limit provider calls per provider
- Generate individual receipted reports for each prompt

Example:
  veridex batch prompts.txt
  veridex batch prompts.txt --concurrency 8 --output-dir ./reports
  veridex batch prompts.txt --rps 1 --burst 2 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./veridex-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&batchRPS, "rps", 0, "provider requests per second")
	batchCmd.Flags().IntVar(&batchBurst, "burst", 0, "provider request burst size")

	// Provider flags
	batchCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response cache (force fresh provider calls)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	// Build configuration
	cfg := loadConfig()
	if cmd.Flags().Changed("provider") {
		cfg.LLM.Provider = llmProvider
	}
	if cmd.Flags().Changed("model") {
		cfg.LLM.Model = llmModel
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if cmd.Flags().Changed("rps") {
		cfg.Concurrency.RequestsPerSecond = batchRPS
	}
	if cmd.Flags().Changed("burst") {
		cfg.Concurrency.Burst = batchBurst
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = verbose

	if err := requireProviderKey(cfg.LLM.Provider); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Veridex Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", cfg.LLM.Provider)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Rate:         %.1f req/s (burst %d)\n", cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Create pipeline
	p := pipeline.NewPipeline(&cfg)
	defer func() { _ = p.Close() }()

	// Create batch processor
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)

	// Process prompts
	fmt.Fprintf(os.Stderr, "⚙️  Reading prompts from file...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Processed %d prompts with %d workers\n", len(results), cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	// Render results
	renderer := p.Renderer()
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", shorten(result.Prompt, 60), result.Error)
			continue
		}

		successCount++

		// Generate output file names
		name := promptFilename(result.Prompt, result.Report.RunID)
		jsonPath := filepath.Join(outputDir, name+".json")
		mdPath := filepath.Join(outputDir, name+".md")

		// Render report
		if err := renderer.WriteJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", shorten(result.Prompt, 60), err)
			continue
		}
		if err := renderer.WriteMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", shorten(result.Prompt, 60), err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (index: %d/100)\n", shorten(result.Prompt, 60), result.Report.Score.Index)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d prompts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// promptFilename derives a stable, filesystem-safe name for a prompt's
// artifacts: a slug of the prompt plus the first run ID segment, so
// similar prompts never collide.
func promptFilename(prompt, runID string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(prompt) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		if b.Len() >= 48 {
			break
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "prompt"
	}

	if i := strings.IndexByte(runID, '-'); i > 0 {
		return slug + "-" + runID[:i]
	}
	return slug
}

// shorten truncates s for log lines.
func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
