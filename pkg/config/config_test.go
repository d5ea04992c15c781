package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataDir: /var/lib/shardctl
logLevel: debug
tickInterval: 30s
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/shardctl", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, Default().ListenAddr, cfg.ListenAddr)
	assert.Equal(t, Default().ReconcileTimeout, cfg.ReconcileTimeout)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestDefault_IsInternallyConsistent(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.Greater(t, cfg.ReconcileTimeout, time.Duration(0))
}
