// Package config provides 12-factor configuration for the backend.
//
// Settings are loaded from environment variables with sensible defaults.
// The three path variables (PROJECT_ROOT, USER_HOME, TEMP_DIR) are required
// by the path registry and are checked separately so the first missing one
// can be reported by name.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Paths      PathsConfig
	Logging    LogConfig
	Monitoring MonitoringConfig
	Batch      BatchConfig
	Inference  InferenceConfig
}

// PathsConfig holds path registry configuration.
type PathsConfig struct {
	LayoutFile    string `envconfig:"LAYOUT_FILE" default:"config/environment.yaml"`
	MaxPathLength int    `envconfig:"MAX_PATH_LENGTH" default:"4096"`
	DirMode       uint32 `envconfig:"DIR_MODE" default:"493"` // 0755
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MonitoringConfig holds metrics exposure configuration. An empty address
// disables the scrape endpoint.
type MonitoringConfig struct {
	Addr string `envconfig:"METRICS_ADDR" default:""`
}

// BatchConfig holds batch processor configuration.
type BatchConfig struct {
	IncludePatterns []string `envconfig:"BATCH_INCLUDE" default:"*.jpg,*.jpeg,*.png"`
	MaxImageBytes   int64    `envconfig:"BATCH_MAX_IMAGE_BYTES" default:"52428800"`
	Workers         int      `envconfig:"BATCH_WORKERS" default:"1"`
}

// InferenceConfig holds inference service client configuration.
type InferenceConfig struct {
	Endpoint          string        `envconfig:"INFERENCE_ENDPOINT" default:"http://localhost:8080/v1/extract"`
	Timeout           time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"120s"`
	RequestsPerSecond float64       `envconfig:"INFERENCE_RPS" default:"2"`
	MaxRetries        int           `envconfig:"INFERENCE_MAX_RETRIES" default:"3"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			LayoutFile:    "config/environment.yaml",
			MaxPathLength: 4096,
			DirMode:       0o755,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Monitoring: MonitoringConfig{
			Addr: "",
		},
		Batch: BatchConfig{
			IncludePatterns: []string{"*.jpg", "*.jpeg", "*.png"},
			MaxImageBytes:   50 * 1024 * 1024,
			Workers:         1,
		},
		Inference: InferenceConfig{
			Endpoint:          "http://localhost:8080/v1/extract",
			Timeout:           120 * time.Second,
			RequestsPerSecond: 2,
			MaxRetries:        3,
		},
	}
}
