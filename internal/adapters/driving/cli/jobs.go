package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect background jobs",
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show a job's state and result",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStatus,
}

func init() {
	jobsCmd.AddCommand(jobsStatusCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	status, err := scheduler.Poll(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Job:   %s\n", status.ID)
	cmd.Printf("State: %s\n", status.State)
	if status.Error != "" {
		cmd.Printf("Error: %s\n", status.Error)
	}
	if len(status.Result) > 0 {
		var pretty json.RawMessage = status.Result
		data, err := json.MarshalIndent(pretty, "", "  ")
		if err == nil {
			cmd.Printf("Result:\n%s\n", data)
		}
	}
	return nil
}
