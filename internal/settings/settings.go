package settings

import (
	"github.com/notemover/notemover/internal/models"
)

// Settings is the persisted rules document. Its wire shape must round-trip
// exactly: rules (V1), ruleGroups (legacy tree), rulesV2, enableRuleV2 and
// retentionPolicy all live under a top-level "settings" key.
type Settings struct {
	Rules           []*models.RuleV1       `json:"rules"`
	RuleGroups      []*models.RuleNode     `json:"ruleGroups,omitempty"`
	RulesV2         []models.RuleV2        `json:"rulesV2"`
	EnableRuleV2    bool                   `json:"enableRuleV2"`
	RetentionPolicy models.RetentionPolicy `json:"retentionPolicy"`
}

// DefaultSettings returns an empty, valid settings document.
func DefaultSettings() *Settings {
	return &Settings{
		Rules:   []*models.RuleV1{},
		RulesV2: []models.RuleV2{},
		RetentionPolicy: models.RetentionPolicy{
			Value: 3,
			Unit:  models.RetentionMonths,
		},
	}
}

// Repair fills in any nested structure a corrupt or older settings blob is
// missing, so rule and history logic never sees nils or nonsense values.
func (s *Settings) Repair() {
	if s.Rules == nil {
		s.Rules = []*models.RuleV1{}
	}
	if s.RulesV2 == nil {
		s.RulesV2 = []models.RuleV2{}
	}
	if s.RetentionPolicy.Validate() != nil {
		s.RetentionPolicy = models.RetentionPolicy{
			Value: 3,
			Unit:  models.RetentionMonths,
		}
	}
}
