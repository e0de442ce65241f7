package client

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemover/notemover/internal/config"
	"github.com/notemover/notemover/internal/events"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	vaultDir := filepath.Join(dir, "vault")
	require.NoError(t, os.MkdirAll(vaultDir, 0o755))

	cfg := config.DefaultConfig()
	cfg.Vault.Path = vaultDir
	cfg.Rules.SettingsFile = filepath.Join(dir, "rules.json")
	cfg.History.File = filepath.Join(dir, "history.json")
	return cfg
}

func newTestClient(t *testing.T, cfg *config.Config) *Client {
	t.Helper()

	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	c, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientNew(t *testing.T) {
	cfg := testConfig(t)
	c := newTestClient(t, cfg)

	assert.NotNil(t, c.Organizer)
	assert.NotNil(t, c.Ledger)
	assert.NotNil(t, c.Rules)
	assert.NotNil(t, c.Settings)
	assert.Equal(t, 3, c.RetentionPolicy().Value)
}

func TestClientMigratesLegacyRulesOnLoad(t *testing.T) {
	cfg := testConfig(t)

	seed := `{"settings":{"rules":[{"criteria":"tag: #work","path":"Work"}],"rulesV2":[],"enableRuleV2":true}}`
	require.NoError(t, os.WriteFile(cfg.Rules.SettingsFile, []byte(seed), 0o600))

	c := newTestClient(t, cfg)

	loaded, err := c.Settings.Load()
	require.NoError(t, err)
	require.Len(t, loaded.RulesV2, 1, "migration persists on first load")
	assert.Equal(t, "tag: #work", loaded.RulesV2[0].Name)
	assert.True(t, loaded.RulesV2[0].Active)

	// The migrated rule is live in the matcher.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Vault.Path, "inbox"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Vault.Path, "inbox", "a.md"),
		[]byte("---\ntags: [work]\n---\nbody"), 0o644))

	result := c.Organizer.OrganizeFile(context.Background(), "inbox/a.md")
	assert.True(t, result.Moved)
	assert.Equal(t, "Work/a.md", result.NewPath)
}

func TestClientSkipsMigrationWhenV2Present(t *testing.T) {
	cfg := testConfig(t)

	seed := `{"settings":{
		"rules":[{"criteria":"tag: #work","path":"Work"}],
		"rulesV2":[{"name":"existing","destination":"Elsewhere","aggregation":"all",
			"triggers":[{"criteriaType":"tag","operator":"includes item","value":"#work"}],"active":true}],
		"enableRuleV2":true}}`
	require.NoError(t, os.WriteFile(cfg.Rules.SettingsFile, []byte(seed), 0o600))

	c := newTestClient(t, cfg)

	loaded, err := c.Settings.Load()
	require.NoError(t, err)
	require.Len(t, loaded.RulesV2, 1)
	assert.Equal(t, "existing", loaded.RulesV2[0].Name)
}

func TestClientLegacyTreeMatcher(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rules.EnableRuleV2 = false

	seed := `{"settings":{
		"rules":[],
		"ruleGroups":[{"rule":{"tag":"#book","path":"Reading"}}],
		"rulesV2":[{"name":"ignored","destination":"Nope","aggregation":"all",
			"triggers":[{"criteriaType":"tag","operator":"includes item","value":"#book"}],"active":true}],
		"enableRuleV2":false}}`
	require.NoError(t, os.WriteFile(cfg.Rules.SettingsFile, []byte(seed), 0o600))

	c := newTestClient(t, cfg)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Vault.Path, "note.md"),
		[]byte("---\ntags: [book]\n---\nbody"), 0o644))

	result := c.Organizer.OrganizeFile(context.Background(), "note.md")
	assert.True(t, result.Moved)
	assert.Equal(t, "Reading/note.md", result.NewPath, "legacy tree decides, not the V2 set")
}

func TestClientSQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Backend = "sqlite"
	cfg.History.File = filepath.Join(filepath.Dir(cfg.Rules.SettingsFile), "history.db")

	c := newTestClient(t, cfg)

	entry := c.Ledger.AddEntry("inbox/a.md", "Work/a.md", "a.md")
	require.NotNil(t, entry)
	assert.Len(t, c.Ledger.GetHistory(), 1)
}
