package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/history"
	"github.com/veridex/veridex/internal/model"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded runs",
	Long: `History lists and inspects past runs recorded in the local store.
Recording is off by default; enable it with history.enabled in the
config file. Every record carries an at-rest digest that is verified
on read, so silent corruption surfaces as an error.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one recorded run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded runs",
	RunE:  runHistoryClear,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list (0 = all)")
}

// openHistory opens the configured history store, failing with guidance
// when recording is disabled.
func openHistory(cfg model.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled: set history.enabled in ~/.veridex/config.yaml")
	}
	store, err := history.FromConfig(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(loadConfig())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-8s  %-20s  %s\n", "ID", "STATUS", "CREATED", "KIND")
	for _, rec := range records {
		fmt.Printf("%-36s  %-8s  %-20s  %s\n",
			rec.ID, rec.Status, rec.CreatedAt.UTC().Format(time.RFC3339), rec.Kind)
	}

	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory(loadConfig())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rec, err := store.Get(args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	fmt.Println(string(data))

	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := openHistory(loadConfig())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Clear(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	fmt.Println("✓ Cleared run history")
	return nil
}
