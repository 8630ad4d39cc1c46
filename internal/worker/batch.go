package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// Runner defines the interface for running a single prompt through the
// verification pipeline
type Runner interface {
	Run(ctx context.Context, prompt string) (*model.Report, error)
	Provider() string
}

// PromptJob represents a single prompt run
type PromptJob struct {
	Prompt  string
	Runner  Runner
	Limiter *Limiter
}

// Execute executes the prompt job
func (j *PromptJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Runner.Provider()); err != nil {
			return &RunResult{
				Prompt: j.Prompt,
				Report: nil,
				Error:  fmt.Errorf("rate limit wait: %w", err),
			}
		}
	}

	report, err := j.Runner.Run(ctx, j.Prompt)
	if err != nil {
		return &RunResult{
			Prompt: j.Prompt,
			Report: nil,
			Error:  err,
		}
	}
	return &RunResult{
		Prompt: j.Prompt,
		Report: report,
		Error:  nil,
	}
}

// RunResult represents the result of a prompt job
type RunResult struct {
	Prompt string
	Report *model.Report
	Error  error
}

// GetError returns the error from the run result
func (r *RunResult) GetError() error {
	return r.Error
}

// BatchProcessor runs multiple prompts concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. The rate limit is
// shared across all workers so concurrency never multiplies the request
// rate seen by a provider.
func NewBatchProcessor(runner Runner, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// SetProviderRate overrides the rate limit for a specific provider
func (b *BatchProcessor) SetProviderRate(provider string, requestsPerSecond float64, burst int) {
	b.limiter.SetProviderRate(provider, requestsPerSecond, burst)
}

// ProcessPrompts runs multiple prompts concurrently
func (b *BatchProcessor) ProcessPrompts(ctx context.Context, prompts []string) []*RunResult {
	if len(prompts) == 0 {
		return []*RunResult{}
	}

	// Queues sized to the batch: every prompt is submitted before Wait
	// starts draining results
	pool := NewBatchPool(ctx, b.concurrency, len(prompts))
	pool.Start()

	// Submit jobs
	for _, prompt := range prompts {
		job := &PromptJob{
			Prompt:  prompt,
			Runner:  b.runner,
			Limiter: b.limiter,
		}
		pool.Submit(job)
	}

	// Wait for all jobs to complete
	results := pool.Wait()

	// Convert to RunResults
	runResults := make([]*RunResult, len(results))
	for i, result := range results {
		runResults[i] = result.(*RunResult)
	}

	return runResults
}

// ProcessFile reads prompts from a file and runs them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*RunResult, error) {
	prompts, err := ReadPromptsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}

	return b.ProcessPrompts(ctx, prompts), nil
}

// ReadPromptsFromFile reads prompts from a file (one per line)
func ReadPromptsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var prompts []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate prompts
		if !seen[line] {
			seen[line] = true
			prompts = append(prompts, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return prompts, nil
}
