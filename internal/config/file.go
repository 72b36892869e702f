package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"jobctl/internal/apperrors"
)

// File holds the persisted defaults managed by `jobctl config`.
type File struct {
	Project    string `yaml:"project,omitempty"`
	Region     string `yaml:"region,omitempty"`
	Bucket     string `yaml:"bucket,omitempty"`
	JobName    string `yaml:"job_name,omitempty"`
	ServiceURL string `yaml:"service_url,omitempty"`
	WebhookURL string `yaml:"webhook_url,omitempty"`
	Image      string `yaml:"image,omitempty"`
}

// Keys lists the settable config file keys in display order.
func Keys() []string {
	return []string{"project", "region", "bucket", "job_name", "service_url", "webhook_url", "image"}
}

// DefaultPath returns the config file location under the user home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".jobctl", "config.yaml"), nil
}

// LoadFile reads the config file at path. A missing file yields an empty File.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.ConfigMalformed(path, err)
	}
	return &file, nil
}

// Save writes the config file to path, creating the directory if needed.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Set assigns a value to a known key.
func (f *File) Set(key, value string) error {
	field, ok := f.field(key)
	if !ok {
		return apperrors.Validation("key", fmt.Sprintf("unknown config key %q", key))
	}
	*field = value
	return nil
}

// Get returns the value for a known key.
func (f *File) Get(key string) (string, error) {
	field, ok := f.field(key)
	if !ok {
		return "", apperrors.Validation("key", fmt.Sprintf("unknown config key %q", key))
	}
	return *field, nil
}

func (f *File) field(key string) (*string, bool) {
	switch key {
	case "project":
		return &f.Project, true
	case "region":
		return &f.Region, true
	case "bucket":
		return &f.Bucket, true
	case "job_name":
		return &f.JobName, true
	case "service_url":
		return &f.ServiceURL, true
	case "webhook_url":
		return &f.WebhookURL, true
	case "image":
		return &f.Image, true
	default:
		return nil, false
	}
}
