package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := GetDefaults()
	require.NoError(t, validateConfig(cfg))

	assert.Equal(t, []string{"all"}, cfg.Detection.Subtypes)
	assert.True(t, cfg.Detection.Classifier.Enabled)
	assert.Equal(t, 50, cfg.Detection.TruncateLength)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
detection:
  subtypes: [PHONE, PASSWORD]
  classifier:
    enabled: false
cache:
  default_ttl: 5m
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"PHONE", "PASSWORD"}, cfg.Detection.Subtypes)
	assert.False(t, cfg.Detection.Classifier.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched sections keep their defaults
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "/ws", cfg.WebSocket.Path)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("SENTINEL_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"log level", "logging:\n  level: trace\n"},
		{"log format", "logging:\n  format: xml\n"},
		{"output format", "batch:\n  output_format: parquet\n"},
		{"workers", "batch:\n  workers: 0\n"},
		{"database url", "database:\n  enabled: true\n  url: \"\"\n"},
		{"rate limit", "rate_limit:\n  enabled: true\n  burst: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
