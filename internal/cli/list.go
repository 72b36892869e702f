package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent executions",
	Long: `List shows recent executions of the configured job, newest first.
Finished containers are kept by the execution backend, so past runs stay
visible until they are pruned.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "maximum number of executions to show")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, needDocker)
	if err != nil {
		return err
	}
	defer app.Close()

	executions, err := app.service.List(ctx, listLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(executions) == 0 {
		fmt.Fprintln(out, "No executions found.")
		return nil
	}

	printExecutionTable(out, executions)
	return nil
}
