package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.WithComponent("engine").WithRequestID("req-1").Info("hello")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestSetLevelPropagates(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)
	child := log.WithComponent("x")

	child.Debug("hidden")
	assert.Zero(t, buf.Len())

	require.NoError(t, log.SetLevel("debug"))
	child.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, "debug", log.Level())

	assert.Error(t, log.SetLevel("nope"))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	var buf bytes.Buffer

	log, err := New(Config{Level: "info", Format: "console", Output: &buf, File: &FileConfig{Enabled: true, Path: path}})
	require.NoError(t, err)
	log.Info("to file")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestSafeHeaders(t *testing.T) {
	got := SafeHeaders(map[string][]string{
		"Authorization": {"Bearer abc"},
		"X-Api-Key":     {"k"},
		"Content-Type":  {"application/json"},
		"Empty":         {},
	})

	assert.Equal(t, map[string]string{
		"Authorization": "[REDACTED]",
		"X-Api-Key":     "[REDACTED]",
		"Content-Type":  "application/json",
	}, got)
}
