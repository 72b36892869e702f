package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jobctl/internal/job"
)

var (
	submitName    string
	submitWait    bool
	submitTimeout time.Duration
	submitCPU     float64
	submitMemory  int
)

var submitCmd = &cobra.Command{
	Use:   "submit <config>",
	Short: "Submit a job for execution",
	Long: `Submit resolves a job configuration and starts a container execution.

<config> is either a local YAML file, which is uploaded to the object store
first, or an existing store reference (a configs/ key). Placeholder service
endpoints in the configuration are rewritten to the configured service URL
before submission.

With --wait the command tracks the execution to a terminal state, streaming
state transitions to the log, and dispatches the outcome notification. The
exit code then reflects the outcome.

Examples:
  # Fire and forget
  jobctl submit dataset.yaml

  # Track to completion with a 2 hour limit
  jobctl submit dataset.yaml --wait --timeout 2h

  # Re-run a previously resolved configuration
  jobctl submit configs/seo-dataset-v1/20250601-120000/config.yaml --wait`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitName, "name", "", "override the configured job name")
	submitCmd.Flags().BoolVarP(&submitWait, "wait", "w", false, "track the execution to a terminal state")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 0, "local wait timeout (0 means none); implies cancellation on expiry")
	submitCmd.Flags().Float64Var(&submitCPU, "cpu", 0, "CPU cores for the execution (0 keeps the service default)")
	submitCmd.Flags().IntVar(&submitMemory, "memory", 0, "memory in MB for the execution (0 keeps the service default)")

	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, needDocker|needStore|needNotifier)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.store.EnsureBucket(ctx); err != nil {
		return err
	}

	ref := args[0]
	if !isStoreRef(ref) {
		if _, err := os.Stat(ref); err != nil {
			return fmt.Errorf("config file %s: %w", ref, err)
		}
		ref, err = app.service.UploadConfig(ctx, ref)
		if err != nil {
			return err
		}
	}

	result, runErr := app.service.Run(ctx, job.RunOptions{
		ConfigRef: ref,
		Name:      submitName,
		Wait:      submitWait,
		Timeout:   submitTimeout,
		Overrides: job.Overrides{
			Env:    app.runnerEnv(),
			CPU:    submitCPU,
			Memory: submitMemory,
		},
	})
	if result == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	exec := result.Execution
	fmt.Fprintf(out, "Execution %s submitted (job %s)\n", exec.ID, exec.JobName)
	fmt.Fprintf(out, "Config: %s\n", result.ResolvedRef)

	if result.Outcome != "" {
		fmt.Fprintf(out, "Outcome: %s after %s\n", result.Outcome, formatDuration(exec.Duration()))
	}
	return runErr
}

// isStoreRef reports whether arg names an already published configuration.
// Store references always live under the configs/ prefix; everything else is
// treated as a local file path.
func isStoreRef(arg string) bool {
	return strings.HasPrefix(arg, "configs/")
}
