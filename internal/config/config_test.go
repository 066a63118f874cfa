package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(dir), cfg)
	assert.FileExists(t, filepath.Join(dir, configFilename))

	// a second load reads the file back unchanged
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadValidates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, configFilename), "database: \"\"\n")

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, configFilename),
		"database: other.db\napi_url: https://pin.example/v1\nsync_interval: 1m\nlog_level: debug\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "other.db", cfg.DBName)
	assert.Equal(t, "https://pin.example/v1", cfg.APIURL)
	assert.Equal(t, Duration(time.Minute), cfg.SyncInterval)
	assert.Equal(t, filepath.Join(dir, "other.db"), cfg.DBPath())
}

func TestDataDirEnvOverride(t *testing.T) {
	t.Setenv(EnvHome, "/tmp/pinbook-test")

	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pinbook-test", dir)
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), stateFilename)

	s, err := OpenState(path)
	require.NoError(t, err)
	assert.Empty(t, s.Token())
	assert.True(t, s.LastUpdate().IsZero())

	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetToken("user:ABCDEF"))
	require.NoError(t, s.SetLastUpdate(when))

	reloaded, err := OpenState(path)
	require.NoError(t, err)
	assert.Equal(t, "user:ABCDEF", reloaded.Token())
	assert.True(t, when.Equal(reloaded.LastUpdate()))
}

func TestStateClears(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), stateFilename)

	s, err := OpenState(path)
	require.NoError(t, err)
	require.NoError(t, s.SetToken("user:ABCDEF"))
	require.NoError(t, s.SetToken(""))

	reloaded, err := OpenState(path)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Token())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
