package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.Relays)
	assert.NotEmpty(t, cfg.CacheDirectory)
	assert.True(t, cfg.UseKeyring)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Relays, cfg.Relays)
}

func TestLoad_ReadsYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"relays:\n  - wss://relay.one\n  - wss://relay.two\ncache_directory: /tmp/ngit-cache\nuse_keyring: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://relay.one", "wss://relay.two"}, cfg.Relays)
	assert.Equal(t, "/tmp/ngit-cache", cfg.CacheDirectory)
	assert.False(t, cfg.UseKeyring)
}

func TestWriteThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Relays = []string{"wss://only.example.com"}
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Relays, loaded.Relays)
	assert.Equal(t, cfg.CacheDirectory, loaded.CacheDirectory)
}

func TestRepoCachePath_SanitizesCoordinate(t *testing.T) {
	cfg := Default()
	path := cfg.RepoCachePath("30617:abcdef:my/repo")
	assert.Equal(t, filepath.Join(cfg.CacheDirectory, "30617_abcdef_my_repo.db"), path)
	assert.NotContains(t, filepath.Base(path), ":")
}
