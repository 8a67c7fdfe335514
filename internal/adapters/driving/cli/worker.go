package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background job workers",
	Long: `Starts the worker pool and processes queued jobs until interrupted.
In-flight jobs run to completion before the process exits.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	cmd.Printf("Workers started (db: %s). Press Ctrl+C to stop.\n", store.Path())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case <-sigCh:
	}

	cmd.Println("Draining in-flight jobs...")
	return scheduler.Stop()
}
