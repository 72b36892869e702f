// Package config provides CLI configuration from the local config file and
// environment variables, with a clear load/validate/save boundary.
package config

import (
	"time"
)

// Defaults applied when neither the config file nor the environment sets a
// value.
const (
	DefaultJobName = "dataset-job"
	DefaultImage   = "dataset-job:latest"
)

// PollSettings tunes the execution tracker's polling loop.
type PollSettings struct {
	Interval    time.Duration // base interval between status polls
	MaxInterval time.Duration // backoff cap on transport errors
	Budget      int           // consecutive transport failures before tracking is lost
}

// withDefaults returns settings with zero values replaced by defaults.
func (s PollSettings) withDefaults() PollSettings {
	if s.Interval <= 0 {
		s.Interval = 2 * time.Second
	}
	if s.MaxInterval <= 0 {
		s.MaxInterval = 30 * time.Second
	}
	if s.Budget <= 0 {
		s.Budget = 5
	}
	return s
}

// Config is the resolved CLI configuration handed to component constructors.
// File values are overridden by environment variables, which are overridden
// by command-line flags at the CLI layer.
type Config struct {
	Project    string
	Region     string
	Bucket     string
	JobName    string
	ServiceURL string // remote service address substituted for placeholder endpoints
	WebhookURL string // outcome notification destination; empty disables notifications
	Image      string // container image executions run

	Poll        PollSettings
	MetricsAddr string // serve /metrics here when non-empty
}

// Load reads the config file at the default path and applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadAt(path)
}

// LoadAt is Load against an explicit file path.
func LoadAt(path string) (*Config, error) {
	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Project:    GetEnv("JOBCTL_PROJECT", file.Project),
		Region:     GetEnv("JOBCTL_REGION", file.Region),
		Bucket:     GetEnv("JOBCTL_BUCKET", file.Bucket),
		JobName:    GetEnv("JOBCTL_JOB_NAME", file.JobName),
		ServiceURL: GetEnv("JOBCTL_SERVICE_URL", file.ServiceURL),
		WebhookURL: GetEnv("JOBCTL_WEBHOOK_URL", file.WebhookURL),
		Image:      GetEnv("JOBCTL_IMAGE", file.Image),
		Poll: PollSettings{
			Interval:    GetDurationEnv("JOBCTL_POLL_INTERVAL", 0),
			MaxInterval: GetDurationEnv("JOBCTL_POLL_MAX_INTERVAL", 0),
			Budget:      GetIntEnv("JOBCTL_POLL_BUDGET", 0),
		}.withDefaults(),
		MetricsAddr: GetEnv("JOBCTL_METRICS_ADDR", ""),
	}

	if cfg.JobName == "" {
		cfg.JobName = DefaultJobName
	}
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	return cfg, nil
}
