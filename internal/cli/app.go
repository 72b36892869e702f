package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"jobctl/internal/config"
	"jobctl/internal/debug"
	"jobctl/internal/execution/docker"
	"jobctl/internal/health"
	"jobctl/internal/job"
	"jobctl/internal/notify"
	"jobctl/internal/observability"
	miniostore "jobctl/internal/store/minio"
	"jobctl/pkg/backoff"
)

// need selects the providers a command requires. Commands request only what
// they touch, so a status query does not demand object store credentials.
type need uint8

const (
	needDocker need = 1 << iota
	needStore
	needNotifier
)

// app is the per-invocation dependency graph. Providers outside the
// requested needs stay nil; a command must only call service operations
// backed by what it asked for.
type app struct {
	cfg      *config.Config
	storeCfg miniostore.Config
	exec     *docker.Service
	store    *miniostore.Store
	service  *job.Service
	metrics  *observability.Metrics
	debugSrv *debug.Server
	log      *slog.Logger
}

// newApp loads configuration, builds the requested providers, and wires the
// job service over them. The debug listener is started when a metrics
// address is configured.
func newApp(ctx context.Context, needs need) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: slog.Default()}

	var metricsHandler http.Handler
	if cfg.MetricsAddr != "" {
		a.metrics, metricsHandler, err = observability.NewMetrics(ctx)
		if err != nil {
			return nil, fmt.Errorf("set up metrics: %w", err)
		}
	}

	if needs&needDocker != 0 {
		exec, err := docker.NewService(docker.LoadConfigFromEnv(), a.log)
		if err != nil {
			return nil, err
		}
		a.exec = exec
		if err := exec.Ready(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("docker daemon unreachable: %w", err)
		}
	}

	if needs&needStore != 0 {
		storeCfg := miniostore.ConfigFromEnv(cfg.Bucket)
		if storeCfg.Region == "" {
			storeCfg.Region = cfg.Region
		}
		store, err := miniostore.New(storeCfg, a.log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = store
		a.storeCfg = storeCfg
	}

	// Assign through locals so absent providers stay nil interfaces.
	var execSvc job.ExecutionService
	if a.exec != nil {
		execSvc = a.exec
	}
	var store job.ObjectStore
	if a.store != nil {
		store = a.store
	}
	var notifier job.Notifier
	if needs&needNotifier != 0 && cfg.WebhookURL != "" {
		notifier = notify.New(notify.LoadConfigFromEnv(cfg.WebhookURL), a.log)
	}

	a.service = job.NewService(execSvc, store, notifier, job.ServiceConfig{
		JobName:    cfg.JobName,
		ServiceURL: cfg.ServiceURL,
		Image:      cfg.Image,
		Poll: job.PollPolicy{
			Interval:      cfg.Poll.Interval,
			Backoff:       backoff.Config{Max: cfg.Poll.MaxInterval},
			FailureBudget: cfg.Poll.Budget,
		},
	}, nil, a.log, a.metrics)

	if cfg.MetricsAddr != "" {
		checks := make(map[string]health.ReadinessChecker)
		if a.exec != nil {
			checks["docker"] = a.exec
		}
		if a.store != nil {
			checks["store"] = a.store
		}
		router := debug.NewRouter(debug.RouterConfig{
			MetricsHandler: metricsHandler,
			Health:         health.NewChecker(checks),
		})
		a.debugSrv = debug.Serve(cfg.MetricsAddr, router, a.log)
	}

	return a, nil
}

// Close releases whatever newApp built.
func (a *app) Close() {
	if a.debugSrv != nil {
		a.debugSrv.Shutdown(context.Background())
	}
	if a.exec != nil {
		if err := a.exec.Close(); err != nil {
			a.log.Debug("Closing docker client failed", "error", err)
		}
	}
}

// runnerEnv propagates the store connection into the execution's container
// so the in-container runner can fetch its config and upload outputs.
func (a *app) runnerEnv() map[string]string {
	env := map[string]string{
		"JOBCTL_STORE_ENDPOINT":   a.storeCfg.Endpoint,
		"JOBCTL_STORE_ACCESS_KEY": a.storeCfg.AccessKey,
		"JOBCTL_STORE_SECRET_KEY": a.storeCfg.SecretKey,
		"JOBCTL_BUCKET":           a.storeCfg.Bucket,
	}
	if a.storeCfg.Secure {
		env["JOBCTL_STORE_SECURE"] = "true"
	}
	if a.storeCfg.Region != "" {
		env["JOBCTL_REGION"] = a.storeCfg.Region
	}
	return env
}
