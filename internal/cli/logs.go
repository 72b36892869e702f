package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	logsFollow bool
	logsTail   int
)

var logsCmd = &cobra.Command{
	Use:   "logs [execution-id]",
	Short: "Print logs from an execution",
	Long: `Logs prints the container logs of an execution. Without an execution id
it targets the most recently submitted execution of the configured job.

With --follow the command streams new log lines until the execution
finishes or the command is interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "stream logs until the execution ends")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 100, "number of trailing lines to print")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, needDocker)
	if err != nil {
		return err
	}
	defer app.Close()

	var id string
	if len(args) == 1 {
		id = args[0]
	}

	out := cmd.OutOrStdout()

	if logsFollow {
		stream, err := app.service.FollowLogs(ctx, id)
		if err != nil {
			return err
		}
		for entry := range stream.Entries() {
			fmt.Fprintln(out, entry.Text)
		}
		return stream.Err()
	}

	entries, err := app.service.Logs(ctx, id, logsTail)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fmt.Fprintln(out, entry.Text)
	}
	return nil
}
