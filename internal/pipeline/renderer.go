package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// Renderer writes reports as JSON and Markdown and prints run summaries
type Renderer struct {
	verbose bool
}

// NewRenderer creates a new renderer
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// WriteJSON writes any artifact as indented JSON
func (r *Renderer) WriteJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// WriteMarkdown writes the report as a Markdown document
func (r *Renderer) WriteMarkdown(report *model.Report, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# veridex report: %s\n\n", report.RunID)
	fmt.Fprintf(&b, "- **Prompt:** %s\n", report.Prompt)
	fmt.Fprintf(&b, "- **Provider:** %s (`%s`)\n", report.Provider, report.Model)
	fmt.Fprintf(&b, "- **Invoked:** %s\n", report.InvokedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Cached:** %t\n\n", report.Cached)

	fmt.Fprintf(&b, "## Hygiene score\n\n")
	fmt.Fprintf(&b, "**Index: %d/100** (confidence: %s)\n\n", report.Score.Index, report.Score.Confidence)
	if len(report.Score.Signals) > 0 {
		b.WriteString("| Signal | Severity | Description |\n")
		b.WriteString("|--------|----------|-------------|\n")
		for _, s := range report.Score.Signals {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Type, s.Severity, s.Description)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Claim ledger\n\n")
	fmt.Fprintf(&b, "%d claims across %d sentences.\n\n",
		len(report.Ledger.Claims), report.Ledger.SentenceCount)
	if len(report.Ledger.Claims) > 0 {
		b.WriteString("| # | Type | Claim | Span |\n")
		b.WriteString("|---|------|-------|------|\n")
		for i, c := range report.Ledger.Claims {
			span := ""
			if len(c.SpanRefs) > 0 {
				span = fmt.Sprintf("%d-%d", c.SpanRefs[0].Start, c.SpanRefs[0].End)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, c.Type, mdEscape(truncate(c.Text, 80)), span)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Validation\n\n")
	if report.Validation.Passed {
		b.WriteString("**PASSED**: every claim satisfies the discipline rules.\n\n")
	} else {
		fmt.Fprintf(&b, "**FAILED**: %d violations.\n\n", len(report.Validation.Violations))
		b.WriteString("| Claim | Rule | Detail |\n")
		b.WriteString("|-------|------|--------|\n")
		for _, v := range report.Validation.Violations {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", v.ClaimID, v.Rule, mdEscape(v.Detail))
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(&b, "## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Receipt\n\n")
	fmt.Fprintf(&b, "| Field | Value |\n|-------|-------|\n")
	fmt.Fprintf(&b, "| ID | `%s` |\n", report.Receipt.ID)
	fmt.Fprintf(&b, "| Timestamp | %s |\n", report.Receipt.Timestamp)
	fmt.Fprintf(&b, "| Response hash | `%s` |\n", report.Receipt.ResponseHash)
	fmt.Fprintf(&b, "| Signature | `%s` |\n", report.Receipt.Signature)
	fmt.Fprintf(&b, "| Schema | %s |\n\n", report.Receipt.SchemaVersion)

	fmt.Fprintf(&b, "## Guarantees\n\n")
	fmt.Fprintf(&b, "- Tamper-evident: %t\n", report.Guarantees.TamperEvident)
	fmt.Fprintf(&b, "- Offline-verifiable: %t\n", report.Guarantees.OfflineVerifiable)
	fmt.Fprintf(&b, "- Transparent scoring: %t\n", report.Guarantees.Transparent)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// Summary prints a run summary box to stdout
func (r *Renderer) Summary(report *model.Report) {
	line := strings.Repeat("=", 64)

	fmt.Println(line)
	fmt.Printf(" veridex run %s\n", report.RunID)
	fmt.Printf(" provider: %s (%s)  cached: %t\n", report.Provider, report.Model, report.Cached)
	fmt.Printf(" hygiene index: %d/100 (%s confidence)\n", report.Score.Index, report.Score.Confidence)
	fmt.Printf(" claims: %d  validation: %s\n",
		len(report.Ledger.Claims), statusWord(report.Validation.Passed))
	if len(report.Warnings) > 0 {
		fmt.Printf(" warnings: %d\n", len(report.Warnings))
	}
	fmt.Printf(" receipt: %s\n", report.Receipt.ID)

	if r.verbose {
		fmt.Println(strings.Repeat("-", 64))
		for _, c := range report.Ledger.Claims {
			fmt.Printf(" [%s] %s\n", c.Type, truncate(c.Text, 70))
		}
		for _, v := range report.Validation.Violations {
			fmt.Printf(" ! %s: %s\n", v.Rule, v.Detail)
		}
	}

	fmt.Println(line)
}

func statusWord(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// mdEscape keeps claim text from breaking table rows
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
