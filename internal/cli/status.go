package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [execution-id]",
	Short: "Show the state of an execution",
	Long: `Status reports the remote state of an execution. Without an execution id
it reports the most recently submitted execution of the configured job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	exec, err := app.service.Status(ctx, id)
	if err != nil {
		return err
	}

	printExecution(cmd.OutOrStdout(), exec)
	return nil
}
