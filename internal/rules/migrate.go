package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
)

// criteriaPattern splits a legacy "<type>: <value>" criteria string.
var criteriaPattern = regexp.MustCompile(`^([a-zA-Z_]+):\s*(.*)$`)

// maxRuleNameLen caps generated rule names.
const maxRuleNameLen = 30

// MigrationService converts legacy single-criterion rules into the
// multi-trigger schema. Rules that cannot be converted become disabled
// placeholders so nothing is silently dropped.
type MigrationService struct {
	logger *events.Logger
}

// NewMigrationService creates a migration service.
func NewMigrationService(logger *events.Logger) *MigrationService {
	return &MigrationService{
		logger: logger.WithField("component", "rule_migration"),
	}
}

// ShouldMigrate returns true only when there are legacy rules and no V2 rules
// yet. Migration is one-directional and never overwrites a non-empty V2 set.
func (s *MigrationService) ShouldMigrate(v1 []*models.RuleV1, v2 []models.RuleV2) bool {
	return len(v1) > 0 && len(v2) == 0
}

// MigrateRules converts each legacy rule in order. Nil or malformed input
// slots are skipped entirely; parseable-but-unsupported rules are preserved
// as disabled placeholders.
func (s *MigrationService) MigrateRules(v1 []*models.RuleV1) []models.RuleV2 {
	out := make([]models.RuleV2, 0, len(v1))

	for i, rule := range v1 {
		if rule == nil {
			continue
		}
		n := i + 1

		m := criteriaPattern.FindStringSubmatch(rule.Criteria)
		if m == nil {
			s.logger.WithField("criteria", rule.Criteria).Warn("Unparseable legacy rule, migrating disabled")
			out = append(out, disabledRule(fmt.Sprintf("Rule %d (Invalid format)", n), rule.Path))
			continue
		}

		criteriaType, value := m[1], m[2]

		trigger, ok := convertTrigger(criteriaType, value)
		if !ok {
			s.logger.WithField("type", criteriaType).Warn("Unsupported legacy criteria type, migrating disabled")
			out = append(out, disabledRule(fmt.Sprintf("Rule %d (Unsupported: %s)", n, criteriaType), rule.Path))
			continue
		}

		out = append(out, models.RuleV2{
			Name:        migratedName(criteriaType, value),
			Destination: rule.Path,
			Aggregation: models.AggregateAll,
			Triggers:    []models.Trigger{trigger},
			Active:      true,
		})
	}

	s.logger.WithField("count", len(out)).Info("Migrated legacy rules")
	return out
}

// convertTrigger maps a supported legacy criteria type onto exactly one trigger.
func convertTrigger(criteriaType, value string) (models.Trigger, bool) {
	switch criteriaType {
	case "tag":
		return models.Trigger{
			CriteriaType: models.CriteriaTag,
			Operator:     models.OpIncludesItem,
			Value:        value,
		}, true
	case "fileName":
		return models.Trigger{
			CriteriaType: models.CriteriaFileName,
			Operator:     models.OpContains,
			Value:        value,
		}, true
	case "path":
		return models.Trigger{
			CriteriaType: models.CriteriaFolder,
			Operator:     models.OpStartsWith,
			Value:        value,
		}, true
	case "created_at":
		return models.Trigger{
			CriteriaType: models.CriteriaCreatedAt,
			Operator:     models.OpDateIs,
			Value:        value,
		}, true
	case "updated_at":
		return models.Trigger{
			CriteriaType: models.CriteriaModifiedAt,
			Operator:     models.OpDateIs,
			Value:        value,
		}, true
	case "property":
		return convertPropertyTrigger(value), true
	}
	return models.Trigger{}, false
}

// convertPropertyTrigger splits "name:value" into a contains check; a bare
// name becomes an existence check.
func convertPropertyTrigger(value string) models.Trigger {
	if idx := strings.Index(value, ":"); idx >= 0 {
		return models.Trigger{
			CriteriaType: models.CriteriaProperties,
			Operator:     models.OpContains,
			Value:        strings.TrimSpace(value[idx+1:]),
			PropertyName: value[:idx],
			PropertyType: models.PropertyText,
		}
	}
	return models.Trigger{
		CriteriaType: models.CriteriaProperties,
		Operator:     models.OpHasAnyValue,
		Value:        "",
		PropertyName: value,
		PropertyType: models.PropertyText,
	}
}

// disabledRule builds an inactive placeholder with a single tag trigger.
func disabledRule(name, destination string) models.RuleV2 {
	return models.RuleV2{
		Name:        name,
		Destination: destination,
		Aggregation: models.AggregateAll,
		Triggers: []models.Trigger{{
			CriteriaType: models.CriteriaTag,
			Operator:     models.OpIncludesItem,
			Value:        "",
		}},
		Active: false,
	}
}

// migratedName derives a human-readable name from the legacy type and value.
func migratedName(criteriaType, value string) string {
	name := fmt.Sprintf("%s: %s", criteriaType, strings.TrimSpace(value))
	return models.TruncateName(name, maxRuleNameLen)
}
