package rules

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
	"github.com/notemover/notemover/internal/vault"
)

func newManager(v vault.Vault, now time.Time) *Manager {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	return NewManager(v, NewEvaluatorAt(now), logger)
}

func activeRule(name, dest string, agg models.Aggregation, triggers ...models.Trigger) models.RuleV2 {
	return models.RuleV2{
		Name:        name,
		Destination: dest,
		Aggregation: agg,
		Triggers:    triggers,
		Active:      true,
	}
}

func TestManagerDestination(t *testing.T) {
	mock := vault.NewMockVault()
	mock.AddNote("inbox/meeting.md", "---\ntags: [work, meeting]\n---\n# Agenda\nnotes")
	mock.AddNote("inbox/journal.md", "---\ntags: [personal]\n---\ntoday was fine")
	m := newManager(mock, time.Now())

	tagWork := models.Trigger{CriteriaType: models.CriteriaTag, Operator: models.OpIncludesItem, Value: "#work"}
	nameMeet := models.Trigger{CriteriaType: models.CriteriaFileName, Operator: models.OpContains, Value: "meeting"}

	t.Run("first matching active rule wins", func(t *testing.T) {
		m.SetRules([]models.RuleV2{
			activeRule("meetings", "Work/Meetings", models.AggregateAll, tagWork, nameMeet),
			activeRule("all work", "Work", models.AggregateAll, tagWork),
		})

		dest, ok := m.Destination(&models.Note{Path: "inbox/meeting.md"})
		require.True(t, ok)
		assert.Equal(t, "Work/Meetings", dest)
	})

	t.Run("inactive rules are skipped", func(t *testing.T) {
		inactive := activeRule("meetings", "Work/Meetings", models.AggregateAll, tagWork)
		inactive.Active = false
		m.SetRules([]models.RuleV2{
			inactive,
			activeRule("all work", "Work", models.AggregateAll, tagWork),
		})

		dest, ok := m.Destination(&models.Note{Path: "inbox/meeting.md"})
		require.True(t, ok)
		assert.Equal(t, "Work", dest)
	})

	t.Run("no match", func(t *testing.T) {
		m.SetRules([]models.RuleV2{
			activeRule("all work", "Work", models.AggregateAll, tagWork),
		})
		_, ok := m.Destination(&models.Note{Path: "inbox/journal.md"})
		assert.False(t, ok)
	})

	t.Run("unreadable note fails closed", func(t *testing.T) {
		mock.Errs["inbox/meeting.md"] = assert.AnError
		defer delete(mock.Errs, "inbox/meeting.md")

		m.SetRules([]models.RuleV2{
			activeRule("all work", "Work", models.AggregateAll, tagWork),
		})
		_, ok := m.Destination(&models.Note{Path: "inbox/meeting.md"})
		assert.False(t, ok)
	})
}

func TestManagerAggregations(t *testing.T) {
	mock := vault.NewMockVault()
	mock.AddNote("inbox/note.md", "---\ntags: [work]\n---\nbody")
	m := newManager(mock, time.Now())
	note := &models.Note{Path: "inbox/note.md"}

	tagWork := models.Trigger{CriteriaType: models.CriteriaTag, Operator: models.OpIncludesItem, Value: "#work"}
	tagHome := models.Trigger{CriteriaType: models.CriteriaTag, Operator: models.OpIncludesItem, Value: "#home"}

	match := func(rule models.RuleV2) bool {
		m.SetRules([]models.RuleV2{rule})
		_, ok := m.Destination(note)
		return ok
	}

	t.Run("all", func(t *testing.T) {
		assert.True(t, match(activeRule("r", "X", models.AggregateAll, tagWork)))
		assert.False(t, match(activeRule("r", "X", models.AggregateAll, tagWork, tagHome)))
	})

	t.Run("any", func(t *testing.T) {
		assert.True(t, match(activeRule("r", "X", models.AggregateAny, tagHome, tagWork)))
		assert.False(t, match(activeRule("r", "X", models.AggregateAny, tagHome)))
	})

	t.Run("none", func(t *testing.T) {
		assert.True(t, match(activeRule("r", "X", models.AggregateNone, tagHome)))
		assert.False(t, match(activeRule("r", "X", models.AggregateNone, tagHome, tagWork)))
	})

	t.Run("zero triggers never match", func(t *testing.T) {
		assert.False(t, match(activeRule("r", "X", models.AggregateAll)))
		assert.False(t, match(activeRule("r", "X", models.AggregateNone)))
	})
}

func TestManagerHeadings(t *testing.T) {
	mock := vault.NewMockVault()
	mock.AddNote("inbox/note.md", "# Agenda\ntext\n## Action Items\nmore")
	m := newManager(mock, time.Now())
	note := &models.Note{Path: "inbox/note.md"}

	match := func(op models.Operator, value string) bool {
		m.SetRules([]models.RuleV2{activeRule("r", "X", models.AggregateAll, models.Trigger{
			CriteriaType: models.CriteriaHeadings, Operator: op, Value: value,
		})})
		_, ok := m.Destination(note)
		return ok
	}

	assert.True(t, match(models.OpContains, "Action"))
	assert.False(t, match(models.OpContains, "Minutes"))

	// Negated operators still quantify per heading: any heading not
	// containing the value satisfies the trigger.
	assert.True(t, match(models.OpNotContains, "Action"))
	assert.False(t, match(models.OpNotContains, "A"))
}

func TestManagerObservations(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := vault.NewMockVault()
	content := "---\nstatus: done\npriority: 3\n---\nSee [[Other Note]] and ![[diagram.png]]."
	mock.AddNote("projects/plan.md", content)
	mock.SetTimes("projects/plan.md", models.FileTimes{
		CreatedAt:  now.AddDate(0, 0, -20),
		ModifiedAt: now.AddDate(0, 0, -2),
	})
	m := newManager(mock, now)
	note := &models.Note{Path: "projects/plan.md"}

	match := func(trig models.Trigger) bool {
		m.SetRules([]models.RuleV2{activeRule("r", "X", models.AggregateAll, trig)})
		_, ok := m.Destination(note)
		return ok
	}

	t.Run("file name", func(t *testing.T) {
		assert.True(t, match(models.Trigger{CriteriaType: models.CriteriaFileName, Operator: models.OpIs, Value: "plan.md"}))
	})

	t.Run("folder", func(t *testing.T) {
		assert.True(t, match(models.Trigger{CriteriaType: models.CriteriaFolder, Operator: models.OpIs, Value: "projects"}))
	})

	t.Run("extension", func(t *testing.T) {
		assert.True(t, match(models.Trigger{CriteriaType: models.CriteriaExtension, Operator: models.OpIs, Value: "md"}))
	})

	t.Run("links", func(t *testing.T) {
		assert.True(t, match(models.Trigger{CriteriaType: models.CriteriaLinks, Operator: models.OpIncludesItem, Value: "Other Note"}))
	})

	t.Run("embeds", func(t *testing.T) {
		assert.True(t, match(models.Trigger{CriteriaType: models.CriteriaEmbeds, Operator: models.OpIncludesItem, Value: "diagram.png"}))
	})

	t.Run("created and modified", func(t *testing.T) {
		assert.True(t, match(models.Trigger{CriteriaType: models.CriteriaCreatedAt, Operator: models.OpOlderThanDays, Value: "7"}))
		assert.True(t, match(models.Trigger{CriteriaType: models.CriteriaModifiedAt, Operator: models.OpNewerThanDays, Value: "7"}))
	})

	t.Run("property", func(t *testing.T) {
		assert.True(t, match(models.Trigger{
			CriteriaType: models.CriteriaProperties,
			PropertyName: "status", PropertyType: models.PropertyText,
			Operator: models.OpIs, Value: "done",
		}))
		assert.True(t, match(models.Trigger{
			CriteriaType: models.CriteriaProperties,
			PropertyName: "priority", PropertyType: models.PropertyNumber,
			Operator: models.OpGreaterThan, Value: "2",
		}))
		assert.False(t, match(models.Trigger{
			CriteriaType: models.CriteriaProperties,
			PropertyName: "missing", PropertyType: models.PropertyText,
			Operator: models.OpHasAnyValue,
		}))
	})
}

func TestManagerExcluded(t *testing.T) {
	m := newManager(vault.NewMockVault(), time.Now())
	m.SetFilter([]string{"Templates/", "Archive", "*.excalidraw.md"})

	assert.True(t, m.Excluded("Templates/daily.md"))
	assert.True(t, m.Excluded("Archive/2023/old.md"))
	assert.True(t, m.Excluded("Archive"))
	assert.True(t, m.Excluded("sketch.excalidraw.md"))
	assert.False(t, m.Excluded("TemplatesBackup/daily.md"))
	assert.False(t, m.Excluded("inbox/note.md"))
}

func TestManagerExcludedBlocksMatch(t *testing.T) {
	mock := vault.NewMockVault()
	mock.AddNote("Templates/daily.md", "---\ntags: [work]\n---\nbody")
	m := newManager(mock, time.Now())
	m.SetRules([]models.RuleV2{activeRule("r", "Work", models.AggregateAll, models.Trigger{
		CriteriaType: models.CriteriaTag, Operator: models.OpIncludesItem, Value: "#work",
	})})
	m.SetFilter([]string{"Templates/"})

	_, ok := m.Destination(&models.Note{Path: "Templates/daily.md"})
	assert.False(t, ok)
}

func TestValidateRules(t *testing.T) {
	m := newManager(vault.NewMockVault(), time.Now())

	m.SetRules([]models.RuleV2{
		{Name: "", Destination: "X", Active: false},
		{Name: "no dest", Destination: "", Active: false},
		{Name: "no triggers", Destination: "X", Active: true},
		{Name: "bad operator", Destination: "X", Active: true, Triggers: []models.Trigger{
			{CriteriaType: models.CriteriaFileName, Operator: models.OpIncludesItem, Value: "x"},
		}},
		activeRule("fine", "X", models.AggregateAll, models.Trigger{
			CriteriaType: models.CriteriaTag, Operator: models.OpIncludesItem, Value: "#ok",
		}),
	})

	diags := m.ValidateRules()
	require.Len(t, diags, 4)
	assert.Contains(t, diags[0], "name is empty")
	assert.Contains(t, diags[1], "destination is empty")
	assert.Contains(t, diags[2], "no triggers")
	assert.Contains(t, diags[3], "trigger 1")
}
