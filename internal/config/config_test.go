package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.artifactsmmo.com", cfg.API.BaseURL)
	assert.Equal(t, 10000, cfg.Planner.MaxNodes)
	assert.Equal(t, 0.6, cfg.Goals.SafeHPRatio)
	assert.Equal(t, 30*time.Second, cfg.GetAPITimeout())
	assert.Equal(t, 300*time.Second, cfg.GetSaveInterval())
	assert.Equal(t, 60*time.Second, cfg.GetSnapshotTTL())
	// Unset prefix means the current working directory; unset runtime
	// bound means unbounded.
	assert.Empty(t, cfg.Data.Prefix)
	assert.Zero(t, cfg.GetMaxRuntime())
}

func TestGetMaxRuntime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Loop.MaxRuntime = "45m"
	assert.Equal(t, 45*time.Minute, cfg.GetMaxRuntime())

	cfg.Loop.MaxRuntime = "not-a-duration"
	assert.Zero(t, cfg.GetMaxRuntime())

	cfg.Loop.MaxRuntime = "-10s"
	assert.Zero(t, cfg.GetMaxRuntime())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grindbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://localhost:8080
loop:
  search_radius: 4
goals:
  target_item: copper_sword
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 4, cfg.Loop.SearchRadius)
	assert.Equal(t, "copper_sword", cfg.Goals.TargetItem)
	// Untouched sections keep their defaults.
	assert.Equal(t, "300s", cfg.Loop.SaveInterval)
	assert.Equal(t, 2, cfg.Knowledge.MinCombatResults)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grindbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not: a, mapping"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GRINDBOT_TOKEN", "env-token")
	t.Setenv("GRINDBOT_API_URL", "http://env.example")
	t.Setenv("DATA_PREFIX", "/tmp/grindbot-data")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.API.Token)
	assert.Equal(t, "http://env.example", cfg.API.BaseURL)
	assert.Equal(t, "/tmp/grindbot-data", cfg.Data.Prefix)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grindbot.yaml")

	cfg := DefaultConfig()
	cfg.Goals.TargetLevel = 15
	cfg.Planner.MaxNodes = 500
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15, loaded.Goals.TargetLevel)
	assert.Equal(t, 500, loaded.Planner.MaxNodes)
}

func TestResolveToken(t *testing.T) {
	t.Run("explicit token wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.API.Token = "direct"
		token, err := cfg.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "direct", token)
	})

	t.Run("token file fallback", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "TOKEN")
		require.NoError(t, os.WriteFile(path, []byte("  file-token\n"), 0o600))
		cfg := DefaultConfig()
		cfg.API.TokenFile = path
		token, err := cfg.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("empty token file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "TOKEN")
		require.NoError(t, os.WriteFile(path, []byte(" \n"), 0o600))
		cfg := DefaultConfig()
		cfg.API.TokenFile = path
		_, err := cfg.ResolveToken()
		assert.Error(t, err)
	})

	t.Run("nothing configured", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.API.TokenFile = ""
		_, err := cfg.ResolveToken()
		assert.Error(t, err)
	})
}

func TestCharacterDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.Prefix = "data"
	assert.Equal(t, filepath.Join("data", "alice"), cfg.CharacterDir("alice"))

	// An empty prefix resolves relative to the working directory.
	cfg.Data.Prefix = ""
	assert.Equal(t, "alice", cfg.CharacterDir("alice"))
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Timeout = "not-a-duration"
	cfg.Loop.SaveInterval = ""
	assert.Equal(t, 30*time.Second, cfg.GetAPITimeout())
	assert.Equal(t, 300*time.Second, cfg.GetSaveInterval())
}
