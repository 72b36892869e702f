package runner

import (
	"errors"

	"jobctl/internal/config"
)

// DefaultCommand is the payload command template used when RUNNER_CMD is
// unset. The {config} token is replaced with the path of the fetched
// configuration document.
const DefaultCommand = "deepfabric generate {config}"

// Config holds the runner's in-container assignment, injected as environment
// variables by the submitter.
type Config struct {
	ConfigRef     string // store ref of the resolved config document
	JobName       string
	OutputPrefix  string // destination prefix for produced artifacts
	Command       string // payload command template; {config} is substituted
	WorkDir       string
	UploadRetries int
}

// LoadConfigFromEnv loads the runner assignment from environment variables.
func LoadConfigFromEnv() *Config {
	return &Config{
		ConfigRef:     config.GetEnv("CONFIG_PATH", ""),
		JobName:       config.GetEnv("JOB_NAME", ""),
		OutputPrefix:  config.GetEnv("OUTPUT_PREFIX", ""),
		Command:       config.GetEnv("RUNNER_CMD", DefaultCommand),
		WorkDir:       config.GetEnv("RUNNER_WORKDIR", "/workspace"),
		UploadRetries: config.GetIntEnv("UPLOAD_RETRIES", 3),
	}
}

// Validate reports the first missing required assignment field.
func (c *Config) Validate() error {
	if c.ConfigRef == "" {
		return errors.New("CONFIG_PATH is required")
	}
	if c.JobName == "" {
		return errors.New("JOB_NAME is required")
	}
	if c.OutputPrefix == "" {
		return errors.New("OUTPUT_PREFIX is required")
	}
	return nil
}
