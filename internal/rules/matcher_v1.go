package rules

import (
	"strings"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
	"github.com/notemover/notemover/internal/vault"
)

// DefaultMaxGroupDepth bounds legacy tree traversal. The tree is acyclic by
// construction; the cap only guards against pathological authored nesting.
const DefaultMaxGroupDepth = 64

// TreeMatcher walks the legacy settings tree and returns the first match.
type TreeMatcher struct {
	vault    vault.Vault
	eval     *Evaluator
	logger   *events.Logger
	maxDepth int
}

// NewTreeMatcher creates a legacy tree matcher.
func NewTreeMatcher(v vault.Vault, eval *Evaluator, logger *events.Logger) *TreeMatcher {
	return &TreeMatcher{
		vault:    v,
		eval:     eval,
		logger:   logger.WithField("component", "tree_matcher"),
		maxDepth: DefaultMaxGroupDepth,
	}
}

// SetMaxDepth overrides the group nesting cap.
func (m *TreeMatcher) SetMaxDepth(depth int) {
	if depth > 0 {
		m.maxDepth = depth
	}
}

// EvaluateRules iterates rules in authored order and returns the first match,
// or nil. It never fails: any read or stat error makes the owning condition
// fail closed.
func (m *TreeMatcher) EvaluateRules(nodes []*models.RuleNode, tags []string, note *models.Note) *models.MatchedRule {
	for _, node := range nodes {
		switch {
		case node == nil:
			continue
		case node.Leaf != nil:
			if matched := m.matchLeaf(node.Leaf, tags, note); matched != nil {
				return matched
			}
		case node.Group != nil:
			if matched := m.matchGroupTree(node.Group, tags, note); matched != nil {
				return matched
			}
		}
	}
	return nil
}

// matchLeaf matches a single tag rule.
func (m *TreeMatcher) matchLeaf(leaf *models.LeafRule, tags []string, note *models.Note) *models.MatchedRule {
	if !containsTag(tags, leaf.Tag) {
		return nil
	}
	if leaf.Condition != nil && !m.evalCondition(leaf.Condition, note) {
		return nil
	}
	return &models.MatchedRule{
		Tag:       leaf.Tag,
		Path:      leaf.Path,
		Condition: leaf.Condition,
	}
}

// matchGroupTree walks a group and its subgroups depth-first in authored
// order, using an explicit stack rather than recursion so arbitrary nesting
// cannot grow the call stack.
func (m *TreeMatcher) matchGroupTree(root *models.GroupRule, tags []string, note *models.Note) *models.MatchedRule {
	type frame struct {
		group *models.GroupRule
		depth int
	}

	stack := []frame{{group: root, depth: 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.depth >= m.maxDepth {
			m.logger.WithField("depth", top.depth).Warn("Rule group nesting exceeds depth cap, skipping subtree")
			continue
		}

		if matched := m.matchGroupTriggers(top.group, tags, note); matched != nil {
			return matched
		}

		// Push subgroups in reverse so they pop in authored order.
		for i := len(top.group.Subgroups) - 1; i >= 0; i-- {
			if sub := top.group.Subgroups[i]; sub != nil {
				stack = append(stack, frame{group: sub, depth: top.depth + 1})
			}
		}
	}

	return nil
}

// matchGroupTriggers evaluates a group's direct triggers. A match synthesizes
// a result from the triggering tag, the group's own destination and that
// trigger's conditions.
func (m *TreeMatcher) matchGroupTriggers(group *models.GroupRule, tags []string, note *models.Note) *models.MatchedRule {
	if len(group.Triggers) == 0 {
		return nil
	}

	switch group.GroupType {
	case models.GroupAnd:
		for _, trigger := range group.Triggers {
			if !m.triggerPasses(trigger, tags, note) {
				return nil
			}
		}
		first := group.Triggers[0]
		return &models.MatchedRule{
			Tag:       first.Tag,
			Path:      group.Destination,
			Condition: first.Condition,
		}
	case models.GroupOr:
		for _, trigger := range group.Triggers {
			if m.triggerPasses(trigger, tags, note) {
				return &models.MatchedRule{
					Tag:       trigger.Tag,
					Path:      group.Destination,
					Condition: trigger.Condition,
				}
			}
		}
	}
	return nil
}

func (m *TreeMatcher) triggerPasses(trigger models.GroupTrigger, tags []string, note *models.Note) bool {
	if !containsTag(tags, trigger.Tag) {
		return false
	}
	if trigger.Condition == nil {
		return true
	}
	return m.evalCondition(trigger.Condition, note)
}

// evalCondition reads current file content and stats on demand; nothing is
// cached across conditions in the same pass. Any gateway failure fails the
// condition closed.
func (m *TreeMatcher) evalCondition(cond *models.RuleCondition, note *models.Note) bool {
	if cond.Date != nil {
		times, err := m.vault.Stat(note.Path)
		if err != nil {
			m.logger.WithError(err).WithField("note", note.Path).Debug("Stat failed, condition fails closed")
			return false
		}

		ts := times.ModifiedAt
		if cond.Date.Field == models.DateFieldCreated {
			ts = times.CreatedAt
		}
		if ts.IsZero() {
			return false
		}

		days := WholeDaysBetween(ts, m.eval.now())
		switch cond.Date.Mode {
		case models.DateOlderThan:
			if days <= cond.Date.Days {
				return false
			}
		case models.DateNewerThan:
			if days >= cond.Date.Days {
				return false
			}
		default:
			return false
		}
	}

	if cond.Content != nil {
		content, err := m.vault.ReadContent(note.Path)
		if err != nil {
			m.logger.WithError(err).WithField("note", note.Path).Debug("Read failed, condition fails closed")
			return false
		}
		if !strings.Contains(content, cond.Content.Contains) {
			return false
		}
	}

	return true
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
