package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	require.NoError(t, Init(t.TempDir()))

	c := Get()
	assert.Equal(t, "5050", c.Server.Port)
	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, 300*time.Millisecond, c.Calibration.Debounce())
	assert.Equal(t, time.Hour, c.Workspace.IdleTimeout())
}

func TestInitReadsFileAndEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	yaml := []byte("database:\n  driver: sqlite\n  path: /tmp/x.db\ncalibration:\n  debounce_ms: 150\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), yaml, 0o644))
	t.Setenv("GAZE_SERVER_PORT", "9090")

	require.NoError(t, Init(root))
	c := Get()
	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.Equal(t, "/tmp/x.db", c.Database.Path)
	assert.Equal(t, 150*time.Millisecond, c.Calibration.Debounce())
	assert.Equal(t, "9090", c.Server.Port)
}

func TestInitRejectsBrokenFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte("server: [\n"), 0o644))

	assert.Error(t, Init(root))
}
