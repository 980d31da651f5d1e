package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, LimiterNone, cfg.LimiterKind)
}

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ladderd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport:
  addr: ":7777"
  idleTimeout: 30
workerCount: 4
ingestRate: 5000
ingestBurst: 100
limiterKind: token
metricsAddr: ":9100"
log:
  logLevel: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Transport.Addr)
	assert.Equal(t, uint32(30), cfg.Transport.IdleTimeout)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 5000, cfg.IngestRate)
	assert.Equal(t, LimiterToken, cfg.LimiterKind)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	// Unset fields keep their defaults.
	assert.Equal(t, 1<<16, cfg.Transport.MaxBufferSize)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
}

func TestLoadRejectsBadLimiter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limiterKind: sieve\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadWorkerCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workerCount: 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
