// Package runner is the process that runs inside the job container: it
// fetches the resolved configuration, executes the payload command, and
// uploads the outputs the configuration promises.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"jobctl/internal/configdoc"
	"jobctl/internal/job"
	"jobctl/pkg/backoff"
)

// Keys naming the files the payload is expected to produce, relative to the
// work dir. The resolver guarantees both sections exist before submission.
var outputKeys = []string{"topics.save_as", "output.save_as"}

const (
	configFileName = "config.yaml"

	// uploadGrace bounds output uploads after the run context is cancelled.
	uploadGrace = 30 * time.Second
)

// Runner executes one payload assignment.
type Runner struct {
	config  *Config
	store   job.ObjectStore
	backoff backoff.Config
	log     *slog.Logger

	// Payload output is passed through untouched; it is the execution's log
	// stream. Overridable for tests.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a runner for a validated assignment.
func NewRunner(cfg *Config, store job.ObjectStore, log *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("object store is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		config:  cfg,
		store:   store,
		backoff: backoff.Config{Initial: 500 * time.Millisecond, Max: 5 * time.Second},
		log:     log,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, nil
}

// PayloadError reports a payload command that exited non-zero. The runner
// process exits with the same code so the execution service sees it.
type PayloadError struct {
	ExitCode int
	Err      error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("payload exited with code %d", e.ExitCode)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// Run executes the assignment:
//  1. Fetch the resolved config and write it to the work dir.
//  2. Read the expected output paths from the config.
//  3. Run the payload command with stdout/stderr passed through.
//  4. Upload every expected output that exists, warning about the rest.
//
// Outputs are uploaded even when the payload fails; partial results are
// worth keeping. The payload error still wins when both go wrong.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.log.With("jobName", r.config.JobName, "configRef", r.config.ConfigRef)
	logger.Info("Runner starting", "outputPrefix", r.config.OutputPrefix)

	data, err := r.store.Get(ctx, r.config.ConfigRef)
	if err != nil {
		return fmt.Errorf("fetch config %s: %w", r.config.ConfigRef, err)
	}

	if err := os.MkdirAll(r.config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	configPath := filepath.Join(r.config.WorkDir, configFileName)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	expected, missing, err := expectedOutputs(data)
	if err != nil {
		return fmt.Errorf("read expected outputs: %w", err)
	}
	for _, key := range missing {
		logger.Warn("Config names no output file", "key", key)
	}

	payloadErr := r.runPayload(ctx, configPath)
	if payloadErr != nil {
		logger.Warn("Payload failed", "error", payloadErr)
	}

	// A cancelled run still gets a bounded window to upload whatever the
	// payload produced before it was stopped.
	uploadCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), uploadGrace)
		defer cancel()
	}

	uploaded, failed := r.uploadOutputs(uploadCtx, logger, expected)
	logger.Info("Outputs processed", "uploaded", uploaded, "failed", failed, "expected", len(expected))

	if payloadErr != nil {
		return payloadErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(expected))
	}

	logger.Info("Runner completed")
	return nil
}

// runPayload executes the payload command in the work dir.
func (r *Runner) runPayload(ctx context.Context, configPath string) error {
	command := strings.ReplaceAll(r.config.Command, "{config}", configFileName)
	r.log.Info("Starting payload", "command", command)

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = r.config.WorkDir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &PayloadError{ExitCode: exitErr.ExitCode(), Err: err}
	}
	return fmt.Errorf("run payload: %w", err)
}

// uploadOutputs uploads each expected output that exists, retrying transient
// store failures per file.
func (r *Runner) uploadOutputs(ctx context.Context, logger *slog.Logger, expected []string) (uploaded, failed int) {
	for _, rel := range expected {
		local := filepath.Join(r.config.WorkDir, filepath.FromSlash(rel))
		if _, err := os.Stat(local); err != nil {
			logger.Warn("Expected output missing", "path", rel)
			continue
		}

		key := r.config.OutputPrefix + path.Clean(rel)
		if err := r.uploadOne(ctx, local, key); err != nil {
			logger.Warn("Upload failed", "path", rel, "key", key, "error", err)
			failed++
			continue
		}

		logger.Info("Output uploaded", "path", rel, "key", key)
		uploaded++
	}
	return uploaded, failed
}

func (r *Runner) uploadOne(ctx context.Context, local, key string) error {
	data, err := os.ReadFile(local)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := range r.config.UploadRetries + 1 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.backoff.Delay(attempt)):
			}
		}

		lastErr = r.store.Put(ctx, key, data, contentTypeFor(local))
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// expectedOutputs splits the configured output keys into the relative paths
// the config promises and the keys it leaves empty.
func expectedOutputs(data []byte) (outputs, missing []string, err error) {
	doc, err := configdoc.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	for _, key := range outputKeys {
		if value, ok := doc.Lookup(key); ok && value != "" {
			outputs = append(outputs, value)
		} else {
			missing = append(missing, key)
		}
	}
	return outputs, missing, nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}
