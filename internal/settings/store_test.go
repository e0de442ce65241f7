package settings

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.json")
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	store, err := NewStore(path, logger)
	require.NoError(t, err)
	return store, path
}

func TestStoreMissingFileYieldsDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Rules)
	assert.Empty(t, loaded.RulesV2)
	assert.Equal(t, 3, loaded.RetentionPolicy.Value)
	assert.Equal(t, models.RetentionMonths, loaded.RetentionPolicy.Unit)
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	in := DefaultSettings()
	in.Rules = append(in.Rules, &models.RuleV1{Criteria: "tag: #work", Path: "Work"})
	in.RulesV2 = append(in.RulesV2, models.RuleV2{
		Name:        "work notes",
		Destination: "Work",
		Aggregation: models.AggregateAll,
		Active:      true,
		Triggers: []models.Trigger{{
			CriteriaType: models.CriteriaTag,
			Operator:     models.OpIncludesItem,
			Value:        "#work",
		}},
	})
	in.RuleGroups = append(in.RuleGroups, &models.RuleNode{
		Group: &models.GroupRule{
			GroupType:   models.GroupOr,
			Destination: "Reading",
			Triggers:    []models.GroupTrigger{{Tag: "#book"}},
		},
	})
	in.EnableRuleV2 = true

	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	require.Len(t, out.Rules, 1)
	assert.Equal(t, "tag: #work", out.Rules[0].Criteria)
	require.Len(t, out.RulesV2, 1)
	assert.Equal(t, "work notes", out.RulesV2[0].Name)
	require.Len(t, out.RuleGroups, 1)
	require.NotNil(t, out.RuleGroups[0].Group)
	assert.Equal(t, models.GroupOr, out.RuleGroups[0].Group.GroupType)
	assert.True(t, out.EnableRuleV2)
}

func TestStoreWireShape(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Save(DefaultSettings()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"settings"`)
	assert.Contains(t, string(data), `"rulesV2"`)
	assert.Contains(t, string(data), `"retentionPolicy"`)
}

func TestStoreCorruptFile(t *testing.T) {
	t.Run("backup restores", func(t *testing.T) {
		store, path := newTestStore(t)

		in := DefaultSettings()
		in.Rules = append(in.Rules, &models.RuleV1{Criteria: "tag: #a", Path: "A"})
		require.NoError(t, store.Save(in))
		require.NoError(t, store.Save(in))
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

		out, err := store.Load()
		require.NoError(t, err)
		assert.Len(t, out.Rules, 1)
	})

	t.Run("no backup yields defaults", func(t *testing.T) {
		store, path := newTestStore(t)
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

		out, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, out.Rules)
		assert.NoError(t, out.RetentionPolicy.Validate())
	})
}

func TestStoreRepairOnLoad(t *testing.T) {
	store, path := newTestStore(t)

	// A minimal document missing collections and retention entirely.
	require.NoError(t, os.WriteFile(path, []byte(`{"settings":{"enableRuleV2":true}}`), 0600))

	out, err := store.Load()
	require.NoError(t, err)
	assert.NotNil(t, out.Rules)
	assert.NotNil(t, out.RulesV2)
	assert.NoError(t, out.RetentionPolicy.Validate())
	assert.True(t, out.EnableRuleV2)
}
