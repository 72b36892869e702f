// job-runner executes inside job containers: it fetches the job's config from
// the object store, runs the generation payload, and uploads its outputs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"jobctl/internal/config"
	"jobctl/internal/runner"
	miniostore "jobctl/internal/store/minio"
)

func main() {
	// Stdout belongs to the payload; runner logs go to stderr so the two
	// streams stay separable in container logs.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Forward the termination signal as this process's exit code so a
	// stopped container reports the conventional 128+signal status.
	var termSignal atomic.Int32
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		if num, ok := sig.(syscall.Signal); ok {
			termSignal.Store(int32(num))
		}
		cancel()
	}()

	err := run(ctx)
	if sig := termSignal.Load(); sig != 0 {
		os.Exit(128 + int(sig))
	}
	if err != nil {
		slog.Error("Runner failed", "error", err)

		// The payload's own exit code is the container's exit code.
		var payloadErr *runner.PayloadError
		if errors.As(err, &payloadErr) && payloadErr.ExitCode > 0 {
			os.Exit(payloadErr.ExitCode)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := runner.LoadConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := miniostore.New(miniostore.ConfigFromEnv(config.GetEnv("JOBCTL_BUCKET", "")), slog.Default())
	if err != nil {
		return err
	}

	r, err := runner.NewRunner(cfg, store, slog.Default())
	if err != nil {
		return err
	}

	return r.Run(ctx)
}
