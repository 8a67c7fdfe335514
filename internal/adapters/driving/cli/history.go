package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [user-id]",
	Short: "Show a user's recent searches",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	entries, err := store.QueryLog().Recent(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return fmt.Errorf("read query log: %w", err)
	}

	if len(entries) == 0 {
		cmd.Println("No searches recorded.")
		return nil
	}
	for _, entry := range entries {
		target := entry.DocumentID
		if target == "" {
			target = "all"
		}
		cmd.Printf("%s  %-30q  target=%s  hits=%d  %s\n",
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.QueryText, target, entry.ResultCount, entry.Duration)
	}
	return nil
}
