// Package cli implements the jobctl command tree.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "jobctl",
	Short: "Submit and track dataset generation jobs",
	Long: `jobctl submits declarative dataset generation jobs for remote execution,
tracks them to a terminal state, and retrieves their logs and output
artifacts.

A job is described by a YAML configuration. Submitting resolves the
configuration (rewriting placeholder endpoints), publishes it to the object
store, and starts a container execution. Track it with status and logs, and
fetch what it produced with outputs and download.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr,
				&slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

// Execute runs the root command with ctx controlling cancellation.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
