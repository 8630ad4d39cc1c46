package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/pipeline"
)

var signJSON string

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:   "sign <file>",
	Short: "Wrap response text in a tamper-evident receipt",
	Long: `Sign binds the exact bytes of a response into an HMAC-SHA256 receipt.
Use "-" to read from stdin. The key comes from the VERIDEX_HMAC_KEY
environment variable (configurable via receipt.key_env).

Example:
  veridex sign response.txt
  cat response.txt | veridex sign - --json receipt.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <receipt.json>",
	Short: "Verify a receipt offline",
	Long: `Verify recomputes a receipt's response hash and HMAC signature and
reports whether the response text was altered since signing. The check
runs fully offline; the exit code is non-zero when the receipt is
invalid.

Example:
  veridex verify artifacts/receipt.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)

	signCmd.Flags().StringVar(&signJSON, "json", "", "output path (default: <out>/receipt.json)")
}

func runSign(cmd *cobra.Command, args []string) error {
	text, err := readInput(args[0])
	if err != nil {
		return err
	}

	cfg := loadConfig()
	cfg.LLM.Provider = ""
	cfg.Cache.Enabled = false
	cfg.History.Enabled = false

	p := pipeline.NewPipeline(&cfg)
	defer func() { _ = p.Close() }()

	rcpt, err := p.SignResponse(text)
	if err != nil {
		return fmt.Errorf("sign failed: %w", err)
	}

	path := artifactPath(signJSON, cfg.Output.Dir, "receipt.json")
	if err := p.Renderer().WriteJSON(rcpt, path); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}

	fmt.Printf("✓ Signed receipt %s\n", rcpt.ID)
	fmt.Printf("✓ Wrote JSON: %s\n", path)
	if verbose {
		fmt.Fprintf(os.Stderr, "Response hash: %s\n", rcpt.ResponseHash)
		fmt.Fprintf(os.Stderr, "Signed at:     %s\n", rcpt.Timestamp)
	}

	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read receipt: %w", err)
	}

	var rcpt model.Receipt
	if err := json.Unmarshal(data, &rcpt); err != nil {
		return fmt.Errorf("parse receipt: %w", err)
	}

	cfg := loadConfig()
	cfg.LLM.Provider = ""
	cfg.Cache.Enabled = false
	cfg.History.Enabled = false

	p := pipeline.NewPipeline(&cfg)
	defer func() { _ = p.Close() }()

	result, err := p.VerifyReceipt(rcpt)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	if !result.Valid {
		return fmt.Errorf("receipt invalid: %s", result.Reason)
	}

	fmt.Printf("✓ Receipt %s is valid\n", rcpt.ID)
	return nil
}
