package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/keys"
)

var (
	keysScheme string
	keysDir    string
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage checkpoint signing keys",
	Long: `Keys manages the local keystore used to sign and verify checkpoints.
Key pairs live under ~/.veridex/keys, one file pair per scheme
(<scheme>.key, <scheme>.pub). Private keys never leave the keystore.`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a checkpoint signing key pair",
	Long: `Generate creates a fresh key pair for the chosen signature scheme and
stores it in the keystore. Existing key files are never overwritten;
delete them first to rotate.

Example:
  veridex keys generate
  veridex keys generate --scheme dilithium3`,
	RunE: runKeysGenerate,
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the public verify key",
	Long: `Show prints the public key for the chosen scheme so it can be shared
with verifiers. The private key is never printed.

Example:
  veridex keys show
  veridex keys show --scheme dilithium3`,
	RunE: runKeysShow,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysShowCmd)

	keysCmd.PersistentFlags().StringVar(&keysScheme, "scheme", "", "signature scheme (ed25519, dilithium3)")
	keysCmd.PersistentFlags().StringVar(&keysDir, "dir", "", "keystore directory (default: ~/.veridex/keys)")
}

// keyStoreFromFlags resolves the keystore and scheme from config plus the
// keys command flags.
func keyStoreFromFlags(cmd *cobra.Command) (*keys.Store, string, error) {
	cfg := loadConfig()

	scheme := cfg.Checkpoint.Scheme
	if cmd.Flags().Changed("scheme") {
		scheme = keysScheme
	}

	dir := cfg.Checkpoint.KeyDir
	if cmd.Flags().Changed("dir") {
		dir = keysDir
	}

	store, err := keys.NewStore(dir)
	if err != nil {
		return nil, "", fmt.Errorf("open keystore: %w", err)
	}
	return store, scheme, nil
}

func runKeysGenerate(cmd *cobra.Command, args []string) error {
	store, scheme, err := keyStoreFromFlags(cmd)
	if err != nil {
		return err
	}

	if err := store.Generate(scheme); err != nil {
		return fmt.Errorf("generate %s key pair: %w", scheme, err)
	}

	fmt.Printf("✓ Generated %s key pair\n", scheme)
	fmt.Printf("  private: %s\n", store.PrivatePath(scheme))
	fmt.Printf("  public:  %s\n", store.PublicPath(scheme))

	return nil
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	store, scheme, err := keyStoreFromFlags(cmd)
	if err != nil {
		return err
	}

	path := store.PublicPath(scheme)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no %s public key at %s (run `veridex keys generate` first)", scheme, path)
		}
		return fmt.Errorf("read public key: %w", err)
	}

	fmt.Printf("# %s\n", path)
	fmt.Print(string(data))

	return nil
}
