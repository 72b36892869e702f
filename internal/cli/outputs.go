package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var outputsCmd = &cobra.Command{
	Use:   "outputs [job-name]",
	Short: "List output artifacts in the object store",
	Long: `Outputs lists the artifacts a job has uploaded to the object store,
ordered by creation time. Without a job name it targets the configured job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOutputs,
}

func init() {
	rootCmd.AddCommand(outputsCmd)
}

func runOutputs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, needStore)
	if err != nil {
		return err
	}
	defer app.Close()

	var jobName string
	if len(args) == 1 {
		jobName = args[0]
	}

	artifacts, err := app.service.Outputs(ctx, jobName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(artifacts) == 0 {
		fmt.Fprintln(out, "No outputs found.")
		return nil
	}

	printArtifactTable(out, artifacts)
	fmt.Fprintf(out, "\n%d artifacts\n", len(artifacts))
	return nil
}
