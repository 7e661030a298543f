package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"INTERNMATCH_ROOT", "INTERNMATCH_DB", "INTERNMATCH_CATALOG",
		"INTERNMATCH_MODEL", "INTERNMATCH_ADDR", "INTERNMATCH_LOG_LEVEL", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Recommend.BatchSize)
	assert.Equal(t, 0.2, cfg.Training.TestSize)
	assert.Equal(t, uint64(42), cfg.Training.Seed)
	assert.Equal(t, 1000, cfg.Training.MaxFeatures)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "internmatch.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":9090"
	cfg.Recommend.BatchSize = 3
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", loaded.Server.Addr)
	assert.Equal(t, 3, loaded.Recommend.BatchSize)
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	t.Setenv("INTERNMATCH_ROOT", root)
	t.Setenv("INTERNMATCH_DB", "custom.db")
	t.Setenv("PORT", "8081")
	t.Setenv("INTERNMATCH_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(root, "custom.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(root, "internships.csv"), cfg.CatalogPath())

	t.Setenv("INTERNMATCH_ADDR", "127.0.0.1:7000")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr, "INTERNMATCH_ADDR wins over PORT")
}

func TestConfig_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "http")
	_, err := Load("")
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad ttl", func(c *Config) { c.Server.SessionTTL = "soon" }},
		{"negative ttl", func(c *Config) { c.Server.SessionTTL = "-1h" }},
		{"zero batch", func(c *Config) { c.Recommend.BatchSize = 0 }},
		{"test size one", func(c *Config) { c.Training.TestSize = 1 }},
		{"unknown store", func(c *Config) { c.Server.Store = "redis" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolveBaseDir(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	t.Setenv("INTERNMATCH_ROOT", root)
	assert.Equal(t, root, ResolveBaseDir())

	t.Setenv("INTERNMATCH_ROOT", "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0755))
	sub := filepath.Join(root, "cmd")
	require.NoError(t, os.MkdirAll(sub, 0755))
	t.Chdir(sub)
	assert.Equal(t, root, ResolveBaseDir())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x.db"), ExpandHome("~/x.db"))
	assert.Equal(t, "/abs/x.db", ExpandHome("/abs/x.db"))
}
