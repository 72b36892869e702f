package minio

import (
	"errors"
	"fmt"
	"strings"

	"jobctl/internal/config"
)

// Config holds connection settings for the object store.
type Config struct {
	Endpoint  string // host:port, without scheme
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool   // use TLS when talking to the endpoint
	Bucket    string // single bucket holding configs/ and outputs/
}

// ConfigFromEnv builds a Config from JOBCTL_STORE_* environment variables.
// Credentials fall back to *_FILE secret paths for Docker and Kubernetes
// secret mounts. The bucket comes from the resolved CLI configuration rather
// than its own variable so that file and env configuration stay in one place.
func ConfigFromEnv(bucket string) Config {
	return Config{
		Endpoint:  config.GetEnv("JOBCTL_STORE_ENDPOINT", "localhost:9000"),
		AccessKey: config.GetEnv("JOBCTL_STORE_ACCESS_KEY", config.GetSecretFile(config.GetEnv("JOBCTL_STORE_ACCESS_KEY_FILE", ""))),
		SecretKey: config.GetEnv("JOBCTL_STORE_SECRET_KEY", config.GetSecretFile(config.GetEnv("JOBCTL_STORE_SECRET_KEY_FILE", ""))),
		Region:    config.GetEnv("JOBCTL_REGION", ""),
		Secure:    config.GetBoolEnv("JOBCTL_STORE_SECURE", false),
		Bucket:    bucket,
	}
}

// Validate reports the first configuration problem, if any. Region is
// optional; most S3-compatible deployments ignore it.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	return nil
}
