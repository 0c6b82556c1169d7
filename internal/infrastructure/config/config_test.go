package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "config/environment.yaml", cfg.Paths.LayoutFile)
	assert.Equal(t, 4096, cfg.Paths.MaxPathLength)
	assert.Equal(t, uint32(0o755), cfg.Paths.DirMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Empty(t, cfg.Monitoring.Addr)
	assert.Equal(t, []string{"*.jpg", "*.jpeg", "*.png"}, cfg.Batch.IncludePatterns)
	assert.Equal(t, int64(50*1024*1024), cfg.Batch.MaxImageBytes)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, 120*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, 3, cfg.Inference.MaxRetries)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LAYOUT_FILE", "layouts/custom.yaml")
	t.Setenv("MAX_PATH_LENGTH", "1024")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("METRICS_ADDR", "127.0.0.1:9091")
	t.Setenv("BATCH_INCLUDE", "*.tiff,*.bmp")
	t.Setenv("BATCH_WORKERS", "4")
	t.Setenv("INFERENCE_ENDPOINT", "http://inference:9000/v1/extract")
	t.Setenv("INFERENCE_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "layouts/custom.yaml", cfg.Paths.LayoutFile)
	assert.Equal(t, 1024, cfg.Paths.MaxPathLength)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "127.0.0.1:9091", cfg.Monitoring.Addr)
	assert.Equal(t, []string{"*.tiff", "*.bmp"}, cfg.Batch.IncludePatterns)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "http://inference:9000/v1/extract", cfg.Inference.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Inference.Timeout)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("INFERENCE_TIMEOUT", "soon")

	cfg := LoadOrDefault()
	assert.Equal(t, 120*time.Second, cfg.Inference.Timeout)
}

func TestDefaultMatchesLoad(t *testing.T) {
	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}
