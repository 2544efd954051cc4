package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zetzet7298/letta-code/pkg/configuration"
	"github.com/zetzet7298/letta-code/pkg/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show saved prompts",
	Long: `Show prompts saved from previous console sessions, newest last.
Placeholders like [Pasted text #2 +12 lines] appear as typed; the pasted
content itself only lives for the session that created it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configuration.Load()
		if err != nil {
			return err
		}
		historyPath, err := cfg.ResolveHistoryPath()
		if err != nil {
			return err
		}
		mgr := history.NewManager(historyPath, cfg.HistorySize)
		if err := mgr.Load(); err != nil {
			return err
		}

		entries := mgr.Entries()
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[len(entries)-historyLimit:]
		}
		for _, entry := range entries {
			fmt.Println(entry)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved prompt history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configuration.Load()
		if err != nil {
			return err
		}
		historyPath, err := cfg.ResolveHistoryPath()
		if err != nil {
			return err
		}
		if err := os.Remove(historyPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the most recent N prompts")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
