package docker

import (
	"strings"
	"time"

	"jobctl/internal/config"
)

// ServiceConfig holds configuration for the Docker execution service.
type ServiceConfig struct {
	Host        string        // Docker daemon address; empty uses DOCKER_HOST / the default socket
	StopTimeout time.Duration // grace period before a cancelled container is killed
	ExtraHosts  []string      // extra /etc/hosts entries for payload containers (e.g., ["minio.local:host-gateway"])
}

// LoadConfigFromEnv loads execution service configuration from environment
// variables.
func LoadConfigFromEnv() ServiceConfig {
	var extraHosts []string
	if hosts := config.GetEnv("JOBCTL_DOCKER_EXTRA_HOSTS", ""); hosts != "" {
		extraHosts = strings.Split(hosts, ",")
	}

	return ServiceConfig{
		Host:        config.GetEnv("JOBCTL_DOCKER_HOST", ""),
		StopTimeout: config.GetDurationEnv("JOBCTL_DOCKER_STOP_TIMEOUT", 10*time.Second),
		ExtraHosts:  extraHosts,
	}
}
