package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperatorsFor(t *testing.T) {
	t.Run("text criteria", func(t *testing.T) {
		ops := OperatorsFor(CriteriaFileName, "")
		assert.Contains(t, ops, OpContains)
		assert.Contains(t, ops, OpMatchesRegex)
		assert.NotContains(t, ops, OpIncludesItem)
	})

	t.Run("list criteria", func(t *testing.T) {
		ops := OperatorsFor(CriteriaTag, "")
		assert.Contains(t, ops, OpIncludesItem)
		assert.Contains(t, ops, OpCountGreaterThan)
		assert.NotContains(t, ops, OpStartsWith)
	})

	t.Run("date criteria", func(t *testing.T) {
		ops := OperatorsFor(CriteriaCreatedAt, "")
		assert.Contains(t, ops, OpOlderThanDays)
		assert.Contains(t, ops, OpDayOfWeekIs)
	})

	t.Run("property type selects the set", func(t *testing.T) {
		assert.Contains(t, OperatorsFor(CriteriaProperties, PropertyNumber), OpDivisibleBy)
		assert.Contains(t, OperatorsFor(CriteriaProperties, PropertyCheckbox), OpIsTrue)
		assert.Contains(t, OperatorsFor(CriteriaProperties, PropertyText), OpHasAnyValue)
		assert.NotContains(t, OperatorsFor(CriteriaProperties, PropertyText), OpIsTrue)
	})

	t.Run("unknown criteria has no operators", func(t *testing.T) {
		assert.Empty(t, OperatorsFor(CriteriaType("bogus"), ""))
	})
}

func TestOperatorAllowed(t *testing.T) {
	assert.True(t, OperatorAllowed(CriteriaFileName, "", OpContains))
	assert.False(t, OperatorAllowed(CriteriaFileName, "", OpIncludesItem))
	assert.True(t, OperatorAllowed(CriteriaProperties, PropertyCheckbox, OpIsFalse))
	assert.False(t, OperatorAllowed(CriteriaProperties, PropertyCheckbox, OpContains))
}

func TestTriggerValidate(t *testing.T) {
	valid := Trigger{CriteriaType: CriteriaTag, Operator: OpIncludesItem, Value: "#x"}
	assert.NoError(t, valid.Validate())

	unknown := Trigger{CriteriaType: CriteriaType("bogus"), Operator: OpIs}
	assert.Error(t, unknown.Validate())

	mismatched := Trigger{CriteriaType: CriteriaFolder, Operator: OpOlderThanDays, Value: "7"}
	assert.Error(t, mismatched.Validate())
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", TruncateName("short", 30))
	assert.Equal(t, strings.Repeat("x", 30), TruncateName(strings.Repeat("x", 45), 30))
	assert.Len(t, TruncateName(strings.Repeat("x", 30), 30), 30)
}

func TestNoteAccessors(t *testing.T) {
	n := &Note{Path: "projects/plans/q3.md"}
	assert.Equal(t, "q3.md", n.Name())
	assert.Equal(t, "q3", n.BaseName())
	assert.Equal(t, "projects/plans", n.Folder())
	assert.Equal(t, "md", n.Extension())

	root := &Note{Path: "inbox.md"}
	assert.Equal(t, "", root.Folder())
}
