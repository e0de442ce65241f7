package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Rules.EnableRuleV2)
	assert.Equal(t, 64, cfg.Rules.MaxGroupDepth)
	assert.Equal(t, "json", cfg.History.Backend)
	assert.Equal(t, 500, cfg.History.MaxEntries)
	assert.Equal(t, 2*time.Second, cfg.History.DuplicateWindow)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing vault path", func(c *Config) { c.Vault.Path = "" }, "vault.path"},
		{"missing settings file", func(c *Config) { c.Rules.SettingsFile = "" }, "settings_file"},
		{"bad group depth", func(c *Config) { c.Rules.MaxGroupDepth = 0 }, "max_group_depth"},
		{"bad backend", func(c *Config) { c.History.Backend = "postgres" }, "history backend"},
		{"bad max entries", func(c *Config) { c.History.MaxEntries = -1 }, "max_entries"},
		{"bad retention value", func(c *Config) { c.History.RetentionValue = 0 }, "retention_value"},
		{"bad retention unit", func(c *Config) { c.History.RetentionUnit = "years" }, "retention unit"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Rules.SettingsFile = filepath.Join(dir, "data", "rules.json")
	cfg.History.File = filepath.Join(dir, "data", "history.json")
	cfg.Log.File = filepath.Join(dir, "logs", "app.log")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, filepath.Join(dir, "data"))
	assert.DirExists(t, filepath.Join(dir, "logs"))
}

// chdirTemp changes into a fresh temp dir and restores the previous
// working directory when the test ends (t.Chdir needs Go 1.24+).
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoaderDefaultsWhenNoFile(t *testing.T) {
	// Run from an empty directory so no stray config file is found.
	chdirTemp(t)

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.History.Backend)
	assert.True(t, cfg.Rules.EnableRuleV2)
}

func TestLoaderExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notemover.json")
	content := `{
  "vault": {"path": "/vaults/main", "excludes": ["Templates/"]},
  "rules": {"enable_rule_v2": false},
  "history": {"backend": "sqlite", "max_entries": 100}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "/vaults/main", cfg.Vault.Path)
	assert.Equal(t, []string{"Templates/"}, cfg.Vault.Excludes)
	assert.False(t, cfg.Rules.EnableRuleV2)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, 100, cfg.History.MaxEntries)

	// Unset keys keep their defaults.
	assert.Equal(t, 64, cfg.Rules.MaxGroupDepth)
}

func TestLoaderEnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NOTEMOVER_HISTORY_MAX_ENTRIES", "42")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.History.MaxEntries)
}

func TestLoaderRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notemover.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"history": {"backend": "oracle"}}`), 0o600))

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}
