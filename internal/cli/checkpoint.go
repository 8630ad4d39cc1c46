package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/canon"
	"github.com/veridex/veridex/internal/checkpoint"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/pipeline"
)

var (
	cpMAC     string
	cpSelfMAC bool
	cpNotes   string
	cpScheme  string
	cpKeyDir  string
)

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Produce and verify signed checkpoints",
	Long: `Checkpoint runs the full receipt protocol over an upstream payload:
authenticate, produce a plaintext-free master receipt plus evidence
pack, enforce the no-plaintext invariant, self-test against tampering,
and verify offline. Artifacts verify later on any machine holding the
public key.`,
}

var checkpointCreateCmd = &cobra.Command{
	Use:   "create <payload.json>",
	Short: "Run the checkpoint protocol over an upstream payload",
	Long: `Create authenticates an upstream payload and checkpoints it into a
master receipt and evidence pack.

The payload is JSON in any of the accepted shapes (messages array,
prompt/completion pair, nested envelope, bare text). Authentication
needs the shared HMAC key in VERIDEX_UPSTREAM_KEY and either the
upstream's MAC via --mac, or --self-mac to attest a payload you
produced yourself.

Example:
  veridex checkpoint create payload.json --mac 9f2c...
  veridex checkpoint create run.json --self-mac --notes "nightly eval"`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckpointCreate,
}

var checkpointVerifyCmd = &cobra.Command{
	Use:   "verify <master_receipt.json> <evidence_pack.json>",
	Short: "Verify a checkpoint offline",
	Long: `Verify recomputes the evidence pack's content hash, requires three-way
agreement with both stored hashes, and checks the master receipt's
signature under the local public key. The exit code is non-zero when
the checkpoint is invalid.

Example:
  veridex checkpoint verify artifacts/master_receipt.json artifacts/evidence_pack.json`,
	Args: cobra.ExactArgs(2),
	RunE: runCheckpointVerify,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointCreateCmd)
	checkpointCmd.AddCommand(checkpointVerifyCmd)

	checkpointCreateCmd.Flags().StringVar(&cpMAC, "mac", "", "upstream HMAC over the payload, hex")
	checkpointCreateCmd.Flags().BoolVar(&cpSelfMAC, "self-mac", false, "compute the MAC locally with the upstream key")
	checkpointCreateCmd.Flags().StringVar(&cpNotes, "notes", "", "operator notes stamped into the evidence pack")
	checkpointCreateCmd.Flags().StringVar(&cpScheme, "scheme", "", "signature scheme (ed25519, dilithium3)")
	checkpointCreateCmd.Flags().StringVar(&cpKeyDir, "key-dir", "", "keystore directory (default: ~/.veridex/keys)")
	checkpointCreateCmd.Flags().StringVar(&outDir, "out", "", "artifact output directory (default: ./artifacts)")

	checkpointVerifyCmd.Flags().StringVar(&cpKeyDir, "key-dir", "", "keystore directory (default: ~/.veridex/keys)")
}

func runCheckpointCreate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	cfg := loadConfig()
	if cmd.Flags().Changed("scheme") {
		cfg.Checkpoint.Scheme = cpScheme
	}
	if cmd.Flags().Changed("key-dir") {
		cfg.Checkpoint.KeyDir = cpKeyDir
	}
	if cmd.Flags().Changed("notes") {
		cfg.Checkpoint.Notes = cpNotes
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	cfg.LLM.Provider = ""
	cfg.Cache.Enabled = false
	cfg.History.Enabled = false

	mac, err := resolveUpstreamMAC(cfg, payload)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(&cfg)
	defer func() { _ = p.Close() }()

	outcome, err := p.Checkpoint(payload, mac)
	if err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}

	for _, check := range outcome.Report.Checks {
		mark := "✓"
		if !check.Passed {
			mark = "✗"
		}
		fmt.Printf("%s %-14s %s\n", mark, check.Name, check.Detail)
	}

	if outcome.Report.Status != checkpoint.StatusPass {
		return fmt.Errorf("checkpoint protocol failed (run %s)", outcome.Report.RunID)
	}

	masterPath := artifactPath("", cfg.Output.Dir, "master_receipt.json")
	packPath := artifactPath("", cfg.Output.Dir, "evidence_pack.json")
	if err := p.Renderer().WriteJSON(outcome.Master, masterPath); err != nil {
		return fmt.Errorf("write master receipt: %w", err)
	}
	if err := p.Renderer().WriteJSON(outcome.Pack, packPath); err != nil {
		return fmt.Errorf("write evidence pack: %w", err)
	}

	fmt.Printf("✓ Wrote master receipt: %s\n", masterPath)
	fmt.Printf("✓ Wrote evidence pack: %s\n", packPath)

	return nil
}

// resolveUpstreamMAC returns the MAC to present to the protocol: the
// upstream's own via --mac, or one computed over the canonical transcript
// with --self-mac. Exactly one source must be chosen.
func resolveUpstreamMAC(cfg model.Config, payload any) (string, error) {
	if cpSelfMAC && cpMAC != "" {
		return "", fmt.Errorf("choose one of --mac or --self-mac")
	}
	if !cpSelfMAC {
		if cpMAC == "" {
			return "", fmt.Errorf("checkpoint production requires authentication: pass --mac or --self-mac")
		}
		return cpMAC, nil
	}

	env := cfg.Checkpoint.UpstreamEnv
	if env == "" {
		env = "VERIDEX_UPSTREAM_KEY"
	}
	key := os.Getenv(env)
	if key == "" {
		return "", fmt.Errorf("upstream key missing: set %s", env)
	}

	transcript := checkpoint.Normalize(payload)
	return checkpoint.HMACHex([]byte(key), canon.Canonicalize(transcript)), nil
}

func runCheckpointVerify(cmd *cobra.Command, args []string) error {
	var master model.MasterReceipt
	if err := loadJSON(args[0], &master); err != nil {
		return fmt.Errorf("load master receipt: %w", err)
	}
	var pack model.EvidencePack
	if err := loadJSON(args[1], &pack); err != nil {
		return fmt.Errorf("load evidence pack: %w", err)
	}

	cfg := loadConfig()
	if cmd.Flags().Changed("key-dir") {
		cfg.Checkpoint.KeyDir = cpKeyDir
	}
	cfg.LLM.Provider = ""
	cfg.Cache.Enabled = false
	cfg.History.Enabled = false

	p := pipeline.NewPipeline(&cfg)
	defer func() { _ = p.Close() }()

	result := p.VerifyCheckpoint(master, pack)
	if !result.Valid {
		return fmt.Errorf("checkpoint invalid: %s", result.Reason)
	}

	fmt.Printf("✓ Checkpoint %s is valid\n", master.ReceiptID)
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
