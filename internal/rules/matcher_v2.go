package rules

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
	"github.com/notemover/notemover/internal/vault"
)

// Manager evaluates flat-trigger V2 rules against notes.
type Manager struct {
	vault  vault.Vault
	eval   *Evaluator
	logger *events.Logger

	mu       sync.RWMutex
	rules    []models.RuleV2
	excludes []string
}

// NewManager creates a V2 rule manager.
func NewManager(v vault.Vault, eval *Evaluator, logger *events.Logger) *Manager {
	return &Manager{
		vault:  v,
		eval:   eval,
		logger: logger.WithField("component", "rule_manager"),
	}
}

// SetRules replaces the active rule set. Structural defects are logged here,
// once at load time, and reported by ValidateRules.
func (m *Manager) SetRules(rules []models.RuleV2) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rules = rules

	for _, diag := range validateRules(rules) {
		m.logger.WithField("diagnostic", diag).Warn("Rule validation issue")
	}
}

// SetFilter replaces the exclusion expressions. A note whose path matches any
// expression (folder prefix or glob) is never moved.
func (m *Manager) SetFilter(exclusions []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.excludes = exclusions
}

// Excluded reports whether a path is filtered out.
func (m *Manager) Excluded(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := filepath.ToSlash(path)
	for _, expr := range m.excludes {
		expr = strings.TrimSuffix(filepath.ToSlash(expr), "/")
		if expr == "" {
			continue
		}
		if normalized == expr || strings.HasPrefix(normalized, expr+"/") {
			return true
		}
		if ok, err := filepath.Match(expr, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

// Destination returns the destination of the first matching active rule, in
// authored order, or ok=false when nothing matches. Internal failures resolve
// to no-match, never an error.
func (m *Manager) Destination(note *models.Note) (string, bool) {
	m.mu.RLock()
	rules := m.rules
	m.mu.RUnlock()

	if m.Excluded(note.Path) {
		return "", false
	}

	for i := range rules {
		rule := &rules[i]
		if !rule.Active {
			continue
		}
		if m.ruleMatches(rule, note) {
			m.logger.WithFields(map[string]interface{}{
				"rule": rule.Name,
				"note": note.Path,
				"dest": rule.Destination,
			}).Debug("Rule matched")
			return rule.Destination, true
		}
	}
	return "", false
}

// ruleMatches applies the rule's aggregation over its triggers in order,
// stopping as soon as the outcome is determined.
func (m *Manager) ruleMatches(rule *models.RuleV2, note *models.Note) bool {
	if len(rule.Triggers) == 0 {
		return false
	}

	switch rule.Aggregation {
	case models.AggregateAll:
		for _, trigger := range rule.Triggers {
			if !m.evalTrigger(trigger, note) {
				return false
			}
		}
		return true
	case models.AggregateAny:
		for _, trigger := range rule.Triggers {
			if m.evalTrigger(trigger, note) {
				return true
			}
		}
		return false
	case models.AggregateNone:
		for _, trigger := range rule.Triggers {
			if m.evalTrigger(trigger, note) {
				return false
			}
		}
		return true
	}
	return false
}

// evalTrigger gathers the observation for the trigger's criteria type and
// delegates the predicate to the evaluator. Gateway failures observe missing.
func (m *Manager) evalTrigger(trigger models.Trigger, note *models.Note) bool {
	// Headings are matched one at a time: the trigger passes when any
	// heading satisfies the operator.
	if trigger.CriteriaType == models.CriteriaHeadings {
		headings, err := m.vault.Headings(note.Path)
		if err != nil {
			m.missing(note, "headings", err)
			return false
		}
		for _, h := range headings {
			if m.eval.Evaluate(trigger, TextObservation(h)) {
				return true
			}
		}
		return false
	}

	return m.eval.Evaluate(trigger, m.observe(trigger, note))
}

func (m *Manager) observe(trigger models.Trigger, note *models.Note) Observation {
	switch trigger.CriteriaType {
	case models.CriteriaFileName:
		return TextObservation(note.Name())
	case models.CriteriaFolder:
		return TextObservation(note.Folder())
	case models.CriteriaExtension:
		return TextObservation(note.Extension())
	case models.CriteriaTag:
		tags, err := m.vault.ListTags(note.Path)
		if err != nil {
			return m.missing(note, "tags", err)
		}
		return ListObservation(tags)
	case models.CriteriaLinks:
		links, err := m.vault.Links(note.Path)
		if err != nil {
			return m.missing(note, "links", err)
		}
		return ListObservation(links)
	case models.CriteriaEmbeds:
		embeds, err := m.vault.Embeds(note.Path)
		if err != nil {
			return m.missing(note, "embeds", err)
		}
		return ListObservation(embeds)
	case models.CriteriaCreatedAt, models.CriteriaModifiedAt:
		times, err := m.vault.Stat(note.Path)
		if err != nil {
			return m.missing(note, "stat", err)
		}
		if trigger.CriteriaType == models.CriteriaCreatedAt {
			return TimeObservation(times.CreatedAt)
		}
		return TimeObservation(times.ModifiedAt)
	case models.CriteriaProperties:
		value, present, err := m.vault.Property(note.Path, trigger.PropertyName)
		if err != nil {
			return m.missing(note, "property", err)
		}
		return PropertyObservation(value, present)
	}
	return MissingObservation()
}

func (m *Manager) missing(note *models.Note, what string, err error) Observation {
	m.logger.WithError(err).WithFields(map[string]interface{}{
		"note": note.Path,
		"what": what,
	}).Debug("Observation unavailable, trigger fails closed")
	return MissingObservation()
}

// ValidateRules returns one diagnostic string per structural defect. Inactive
// rules are exempt from the at-least-one-trigger requirement.
func (m *Manager) ValidateRules() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return validateRules(m.rules)
}

func validateRules(rules []models.RuleV2) []string {
	var diags []string

	for i := range rules {
		rule := &rules[i]
		label := rule.Name
		if label == "" {
			label = fmt.Sprintf("rule %d", i+1)
		}

		if strings.TrimSpace(rule.Name) == "" {
			diags = append(diags, fmt.Sprintf("%s: name is empty", label))
		}
		if strings.TrimSpace(rule.Destination) == "" {
			diags = append(diags, fmt.Sprintf("%s: destination is empty", label))
		}
		if rule.Active && len(rule.Triggers) == 0 {
			diags = append(diags, fmt.Sprintf("%s: active rule has no triggers", label))
		}

		for j := range rule.Triggers {
			if err := rule.Triggers[j].Validate(); err != nil {
				diags = append(diags, fmt.Sprintf("%s: trigger %d: %v", label, j+1, err))
			}
		}
	}

	return diags
}
