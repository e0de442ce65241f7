package models

// CriteriaType identifies what part of a note a trigger inspects.
type CriteriaType string

const (
	CriteriaTag        CriteriaType = "tag"
	CriteriaFileName   CriteriaType = "fileName"
	CriteriaFolder     CriteriaType = "folder"
	CriteriaCreatedAt  CriteriaType = "created_at"
	CriteriaModifiedAt CriteriaType = "modified_at"
	CriteriaExtension  CriteriaType = "extension"
	CriteriaLinks      CriteriaType = "links"
	CriteriaEmbeds     CriteriaType = "embeds"
	CriteriaProperties CriteriaType = "properties"
	CriteriaHeadings   CriteriaType = "headings"
)

// PropertyType identifies the declared type of a frontmatter property.
type PropertyType string

const (
	PropertyText     PropertyType = "text"
	PropertyNumber   PropertyType = "number"
	PropertyCheckbox PropertyType = "checkbox"
	PropertyDate     PropertyType = "date"
	PropertyList     PropertyType = "list"
)

// Operator is a comparison applied between a trigger's value and an observation.
type Operator string

// Text operators compare a single string observation case-sensitively.
const (
	OpIs              Operator = "is"
	OpIsNot           Operator = "is not"
	OpContains        Operator = "contains"
	OpNotContains     Operator = "does not contain"
	OpStartsWith      Operator = "starts with"
	OpNotStartsWith   Operator = "does not start with"
	OpEndsWith        Operator = "ends with"
	OpNotEndsWith     Operator = "does not end with"
	OpMatchesRegex    Operator = "matches regex"
	OpNotMatchesRegex Operator = "does not match regex"
)

// List operators work over a sequence observation (tags, links, embeds).
const (
	OpIncludesItem     Operator = "includes item"
	OpNotIncludesItem  Operator = "does not include item"
	OpAllAre           Operator = "all are"
	OpAllStartWith     Operator = "all start with"
	OpAllEndWith       Operator = "all end with"
	OpAnyContain       Operator = "any contain"
	OpNoneContain      Operator = "none contain"
	OpCountIs          Operator = "count is"
	OpCountLessThan    Operator = "count is less than"
	OpCountGreaterThan Operator = "count is greater than"
)

// Date operators compare a file timestamp against a relative or absolute value.
const (
	OpDateIs        Operator = "date is"
	OpDateBefore    Operator = "date is before"
	OpDateAfter     Operator = "date is after"
	OpDateToday     Operator = "date is today"
	OpOlderThanDays Operator = "is over days ago"
	OpNewerThanDays Operator = "is under days ago"
	OpDayOfWeekIs   Operator = "day of week is"
)

// Property operators. The base set applies to any property type and needs no value.
const (
	OpHasAnyValue Operator = "has any value"
	OpHasNoValue  Operator = "has no value"

	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "does not equal"
	OpGreaterThan Operator = "greater than"
	OpLessThan    Operator = "less than"
	OpDivisibleBy Operator = "divisible by"

	OpIsTrue  Operator = "is true"
	OpIsFalse Operator = "is false"
)

// Operator families, in the order they are presented to rule authors.
var (
	TextOperators = []Operator{
		OpIs, OpIsNot, OpContains, OpNotContains,
		OpStartsWith, OpNotStartsWith, OpEndsWith, OpNotEndsWith,
		OpMatchesRegex, OpNotMatchesRegex,
	}

	ListOperators = []Operator{
		OpIncludesItem, OpNotIncludesItem, OpAllAre,
		OpAllStartWith, OpAllEndWith, OpAnyContain, OpNoneContain,
		OpCountIs, OpCountLessThan, OpCountGreaterThan,
	}

	DateOperators = []Operator{
		OpDateIs, OpDateBefore, OpDateAfter, OpDateToday,
		OpOlderThanDays, OpNewerThanDays, OpDayOfWeekIs,
	}

	PropertyBaseOperators = []Operator{OpHasAnyValue, OpHasNoValue}

	NumberOperators = []Operator{
		OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpDivisibleBy,
	}

	CheckboxOperators = []Operator{OpIsTrue, OpIsFalse}
)

// operatorsForCriteria maps each criteria type to its legal operator set.
// Built once; shared by rule validation and runtime evaluation.
var operatorsForCriteria = map[CriteriaType][]Operator{
	CriteriaTag:        ListOperators,
	CriteriaFileName:   TextOperators,
	CriteriaFolder:     TextOperators,
	CriteriaExtension:  TextOperators,
	CriteriaHeadings:   TextOperators,
	CriteriaLinks:      ListOperators,
	CriteriaEmbeds:     ListOperators,
	CriteriaCreatedAt:  DateOperators,
	CriteriaModifiedAt: DateOperators,
}

// operatorsForProperty maps each property type to its legal operator set.
var operatorsForProperty = map[PropertyType][]Operator{
	PropertyText:     append(append([]Operator{}, PropertyBaseOperators...), TextOperators...),
	PropertyNumber:   append(append([]Operator{}, PropertyBaseOperators...), NumberOperators...),
	PropertyCheckbox: append(append([]Operator{}, PropertyBaseOperators...), CheckboxOperators...),
	PropertyDate:     append(append([]Operator{}, PropertyBaseOperators...), DateOperators...),
	PropertyList:     append(append([]Operator{}, PropertyBaseOperators...), ListOperators...),
}

// OperatorsFor returns the legal operators for a criteria type. For the
// properties criteria the set depends on the property type instead.
func OperatorsFor(criteria CriteriaType, property PropertyType) []Operator {
	if criteria == CriteriaProperties {
		return operatorsForProperty[property]
	}
	return operatorsForCriteria[criteria]
}

// OperatorAllowed reports whether an operator is legal for the given
// criteria type (or property type when criteria is "properties").
func OperatorAllowed(criteria CriteriaType, property PropertyType, op Operator) bool {
	for _, allowed := range OperatorsFor(criteria, property) {
		if allowed == op {
			return true
		}
	}
	return false
}

// KnownCriteriaType reports whether the criteria type is one this engine understands.
func KnownCriteriaType(c CriteriaType) bool {
	if c == CriteriaProperties {
		return true
	}
	_, ok := operatorsForCriteria[c]
	return ok
}

// Trigger is one atomic matching condition inside a V2 rule.
type Trigger struct {
	CriteriaType CriteriaType `json:"criteriaType"`
	Operator     Operator     `json:"operator"`
	Value        string       `json:"value"`

	// Only meaningful when CriteriaType is "properties".
	PropertyName string       `json:"propertyName,omitempty"`
	PropertyType PropertyType `json:"propertyType,omitempty"`
}

// Validate checks the trigger's operator against the compatibility tables.
func (t *Trigger) Validate() error {
	if !KnownCriteriaType(t.CriteriaType) {
		return &RuleError{Reason: "unknown criteria type: " + string(t.CriteriaType)}
	}
	if !OperatorAllowed(t.CriteriaType, t.PropertyType, t.Operator) {
		return &RuleError{Reason: "operator " + string(t.Operator) + " not valid for " + string(t.CriteriaType)}
	}
	return nil
}

// Aggregation combines trigger outcomes within one rule.
type Aggregation string

const (
	AggregateAll  Aggregation = "all"  // AND
	AggregateAny  Aggregation = "any"  // OR
	AggregateNone Aggregation = "none" // NOR
)

// RuleV2 is a multi-trigger rule with explicit aggregation and active flag.
type RuleV2 struct {
	Name        string      `json:"name"`
	Destination string      `json:"destination"`
	Aggregation Aggregation `json:"aggregation"`
	Triggers    []Trigger   `json:"triggers"`
	Active      bool        `json:"active"`
}

// RuleV1 is the legacy single-string-criteria rule format: "<type>: <value>".
type RuleV1 struct {
	Criteria string `json:"criteria"`
	Path     string `json:"path"`
}

// GroupType combines triggers within a legacy rule group.
type GroupType string

const (
	GroupAnd GroupType = "and"
	GroupOr  GroupType = "or"
)

// RuleNode is one node of the legacy settings tree: exactly one of Leaf or
// Group is set. The tree is built by the authoring surface and carries no
// back-references, so it is acyclic by construction.
type RuleNode struct {
	Leaf  *LeafRule  `json:"rule,omitempty"`
	Group *GroupRule `json:"group,omitempty"`
}

// LeafRule moves notes carrying a tag, optionally gated by conditions.
type LeafRule struct {
	Tag       string         `json:"tag"`
	Path      string         `json:"path"`
	Condition *RuleCondition `json:"condition,omitempty"`
}

// GroupRule combines tag triggers and nested subgroups under one destination.
type GroupRule struct {
	GroupType   GroupType      `json:"groupType"`
	Destination string         `json:"destination"`
	Triggers    []GroupTrigger `json:"triggers"`
	Subgroups   []*GroupRule   `json:"subgroups,omitempty"`
}

// GroupTrigger is one tag trigger inside a group.
type GroupTrigger struct {
	Tag       string         `json:"tag"`
	Condition *RuleCondition `json:"condition,omitempty"`
}

// RuleCondition gates a legacy rule or trigger on file age and/or content.
type RuleCondition struct {
	Date    *DateCondition    `json:"date,omitempty"`
	Content *ContentCondition `json:"content,omitempty"`
}

// DateField selects which file timestamp a date condition inspects.
type DateField string

const (
	DateFieldCreated  DateField = "created"
	DateFieldModified DateField = "modified"
)

// DateMode selects the direction of a relative age comparison.
type DateMode string

const (
	DateOlderThan DateMode = "olderThan"
	DateNewerThan DateMode = "newerThan"
)

// DateCondition matches files whose age in whole days is strictly beyond
// (olderThan) or within (newerThan) the given count.
type DateCondition struct {
	Field DateField `json:"field"`
	Mode  DateMode  `json:"mode"`
	Days  int       `json:"days"`
}

// ContentCondition matches files whose body contains a substring.
type ContentCondition struct {
	Contains string `json:"contains"`
}

// MatchedRule is the result of a legacy tree match: the triggering tag, the
// destination it resolved to, and the trigger's own conditions.
type MatchedRule struct {
	Tag       string         `json:"tag"`
	Path      string         `json:"path"`
	Condition *RuleCondition `json:"condition,omitempty"`
}

// TruncateName shortens a rule name for display, keeping it stable for tests.
func TruncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return name[:max]
}
