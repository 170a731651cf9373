package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "stage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_valid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
log_level: debug
directory:
  buckets: 8
  bucket_hint: 16
mailbox:
  capacity: 100
  overflow: drop_oldest
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 8, cfg.Directory.Buckets)
	require.Equal(t, 100, cfg.Mailbox.Capacity)
	require.Equal(t, "drop_oldest", cfg.Mailbox.Overflow)
}

func TestLoad_partialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "log_level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, Default().Directory, cfg.Directory)
}

func TestLoad_invalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "log_level: loud\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "invalid log_level")
}

func TestWatcher_reload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log_level: info\n")

	w, err := NewWatcher(tCtx(t), path, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	changed := make(chan *Config, 1)
	w.OnChange(func(_, cfg *Config) { changed <- cfg })

	writeConfig(t, dir, "log_level: error\n")

	select {
	case cfg := <-changed:
		require.Equal(t, "error", cfg.LogLevel)
		require.Equal(t, "error", w.Config().LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcher_badReloadKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log_level: info\n")

	w, err := NewWatcher(tCtx(t), path, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	writeConfig(t, dir, "log_level: loud\n")

	time.Sleep(200 * time.Millisecond)
	require.Equal(t, "info", w.Config().LogLevel)
}
