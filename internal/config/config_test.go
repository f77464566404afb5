package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:5000", cfg.ListenAddr)
	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, 128, cfg.BufferSize)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.False(t, cfg.Concurrent)
	assert.Zero(t, cfg.IdleTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictkv.yaml")
	data := `
listen_addr: 0.0.0.0:6000
backend: memory
write_log: true
concurrent: true
idle_timeout: 30s
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:6000", cfg.ListenAddr)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.True(t, cfg.WriteLog)
	assert.True(t, cfg.Concurrent)
	assert.Equal(t, Duration(30*time.Second), cfg.IdleTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched fields keep their defaults.
	assert.Equal(t, 128, cfg.BufferSize)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend = "redis"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.BufferSize = 2
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ListenAddr = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.WriteLog = true
	assert.Error(t, cfg.Validate(), "write log needs the memory backend")
	cfg.Backend = BackendMemory
	assert.NoError(t, cfg.Validate())
}
