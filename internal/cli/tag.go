package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/pipeline"
)

var (
	tagJSON      string
	tagStripHTML bool
)

// tagCmd represents the tag command
var tagCmd = &cobra.Command{
	Use:   "tag <file>",
	Short: "Tag and validate the epistemic claims in a text, offline",
	Long: `Tag runs the claim tagger and discipline validator over existing text
without calling any provider. Use "-" to read from stdin.

The result carries the claim ledger, the validation outcome, and the
hygiene score as JSON on stdout unless --json names a file.

Example:
  veridex tag response.txt
  cat response.txt | veridex tag -
  veridex tag page.html --strip-html --json ledger.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().StringVar(&tagJSON, "json", "", "write the result to this path instead of stdout")
	tagCmd.Flags().BoolVar(&tagStripHTML, "strip-html", false, "strip markup before tagging")
}

func runTag(cmd *cobra.Command, args []string) error {
	text, err := readInput(args[0])
	if err != nil {
		return err
	}

	cfg := loadConfig()
	if cmd.Flags().Changed("strip-html") {
		cfg.Tagger.StripHTML = tagStripHTML
	}

	// Tagging is offline: no provider, cache, or history
	cfg.LLM.Provider = ""
	cfg.Cache.Enabled = false
	cfg.History.Enabled = false

	p := pipeline.NewPipeline(&cfg)
	defer func() { _ = p.Close() }()

	result := p.TagText(text)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Tagged %d claims across %d sentences\n",
			len(result.Ledger.Claims), result.Ledger.SentenceCount)
		fmt.Fprintf(os.Stderr, "✓ Validation: %s (%d violations)\n",
			passFail(result.Validation.Passed), len(result.Validation.Violations))
		fmt.Fprintf(os.Stderr, "✓ Hygiene index: %d/100\n", result.Score.Index)
		fmt.Fprintln(os.Stderr)
	}

	if tagJSON != "" {
		if err := p.Renderer().WriteJSON(result, tagJSON); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		fmt.Printf("✓ Wrote JSON: %s\n", tagJSON)
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(data))

	return nil
}

func passFail(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}
