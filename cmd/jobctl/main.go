// jobctl is the command line client for submitting and tracking dataset
// generation jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"jobctl/internal/cli"
	"jobctl/internal/exitcode"
)

func main() {
	// Logs go to stderr so command output on stdout stays scriptable.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted")
			os.Exit(exitcode.Cancelled)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitcode.FromError(err))
	}
}
