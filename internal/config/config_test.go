package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "cosecha.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "America/Lima", cfg.DefaultTimezone)
	assert.Equal(t, 8, cfg.CheckinHour)
	assert.Equal(t, 6, cfg.ChatHistoryLimit)
	assert.Equal(t, 3, cfg.DailyLogLimit)
	assert.Equal(t, "http://localhost:11434", cfg.Oracle.Endpoint)
	assert.Equal(t, "qwen2.5:3b-instruct", cfg.Oracle.Model)
	assert.InDelta(t, 0.2, cfg.Oracle.Temperature, 0.001)
	assert.Equal(t, 2, cfg.Oracle.MaxRetries)
	assert.False(t, cfg.Plan.SupersedeActive)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
db_path: /tmp/test.db
listen_addr: ":9090"
checkin_hour: 10
oracle:
  model: llama3.2:1b
plan:
  supersede_active: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.CheckinHour)
	assert.Equal(t, "llama3.2:1b", cfg.Oracle.Model)
	assert.True(t, cfg.Plan.SupersedeActive)
	// Untouched keys keep their defaults.
	assert.Equal(t, "America/Lima", cfg.DefaultTimezone)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("COSECHA_LISTEN_ADDR", ":7070")
	t.Setenv("COSECHA_ORACLE_MODEL", "mistral:7b")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "mistral:7b", cfg.Oracle.Model)
}
