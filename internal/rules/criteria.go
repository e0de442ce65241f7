package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/notemover/notemover/internal/models"
)

// Observation carries the observed values for one trigger evaluation. Exactly
// one family field is meaningful, selected by the trigger's criteria type.
type Observation struct {
	Text    string      // fileName, folder, extension, headings
	List    []string    // tags, links, embeds
	Time    time.Time   // created_at, modified_at
	Value   interface{} // frontmatter property value
	Present bool        // property exists in frontmatter

	// Missing marks an observation that could not be gathered (unreadable
	// file, failed stat). A missing observation never matches.
	Missing bool
}

// TextObservation wraps a single string.
func TextObservation(s string) Observation { return Observation{Text: s} }

// ListObservation wraps a sequence.
func ListObservation(items []string) Observation { return Observation{List: items} }

// TimeObservation wraps a timestamp.
func TimeObservation(t time.Time) Observation { return Observation{Time: t} }

// PropertyObservation wraps a frontmatter value.
func PropertyObservation(v interface{}, present bool) Observation {
	return Observation{Value: v, Present: present}
}

// MissingObservation marks unobtainable data.
func MissingObservation() Observation { return Observation{Missing: true} }

// Evaluator applies trigger predicates to observations. It is stateless apart
// from the clock, which tests override.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator creates an evaluator using the wall clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// NewEvaluatorAt creates an evaluator with a fixed clock, for tests.
func NewEvaluatorAt(now time.Time) *Evaluator {
	return &Evaluator{now: func() time.Time { return now }}
}

// Evaluate applies one trigger to an observation. It never panics for
// well-typed input and returns false conservatively on missing data, unknown
// operators and invalid patterns.
func (e *Evaluator) Evaluate(t models.Trigger, obs Observation) bool {
	if obs.Missing {
		return false
	}
	if !models.OperatorAllowed(t.CriteriaType, t.PropertyType, t.Operator) {
		return false
	}

	switch t.CriteriaType {
	case models.CriteriaFileName, models.CriteriaFolder, models.CriteriaExtension, models.CriteriaHeadings:
		return e.evalText(t.Operator, t.Value, obs.Text)
	case models.CriteriaTag, models.CriteriaLinks, models.CriteriaEmbeds:
		return e.evalList(t.Operator, t.Value, obs.List)
	case models.CriteriaCreatedAt, models.CriteriaModifiedAt:
		return e.evalDate(t.Operator, t.Value, obs.Time)
	case models.CriteriaProperties:
		return e.evalProperty(t, obs)
	}
	return false
}

// evalText compares a single string observation case-sensitively.
func (e *Evaluator) evalText(op models.Operator, expected, observed string) bool {
	switch op {
	case models.OpIs:
		return observed == expected
	case models.OpIsNot:
		return observed != expected
	case models.OpContains:
		return strings.Contains(observed, expected)
	case models.OpNotContains:
		return !strings.Contains(observed, expected)
	case models.OpStartsWith:
		return strings.HasPrefix(observed, expected)
	case models.OpNotStartsWith:
		return !strings.HasPrefix(observed, expected)
	case models.OpEndsWith:
		return strings.HasSuffix(observed, expected)
	case models.OpNotEndsWith:
		return !strings.HasSuffix(observed, expected)
	case models.OpMatchesRegex:
		re, err := regexp.Compile(expected)
		if err != nil {
			return false
		}
		return re.MatchString(observed)
	case models.OpNotMatchesRegex:
		re, err := regexp.Compile(expected)
		if err != nil {
			// Invalid pattern is a non-match, not a fatal error.
			return false
		}
		return !re.MatchString(observed)
	}
	return false
}

// evalList works over a sequence observation. Membership tests short-circuit
// on first hit; "all" quantifiers fail fast on first non-matching element.
func (e *Evaluator) evalList(op models.Operator, expected string, observed []string) bool {
	switch op {
	case models.OpIncludesItem:
		for _, item := range observed {
			if item == expected {
				return true
			}
		}
		return false
	case models.OpNotIncludesItem:
		for _, item := range observed {
			if item == expected {
				return false
			}
		}
		return true
	case models.OpAllAre:
		if len(observed) == 0 {
			return false
		}
		for _, item := range observed {
			if item != expected {
				return false
			}
		}
		return true
	case models.OpAllStartWith:
		if len(observed) == 0 {
			return false
		}
		for _, item := range observed {
			if !strings.HasPrefix(item, expected) {
				return false
			}
		}
		return true
	case models.OpAllEndWith:
		if len(observed) == 0 {
			return false
		}
		for _, item := range observed {
			if !strings.HasSuffix(item, expected) {
				return false
			}
		}
		return true
	case models.OpAnyContain:
		for _, item := range observed {
			if strings.Contains(item, expected) {
				return true
			}
		}
		return false
	case models.OpNoneContain:
		for _, item := range observed {
			if strings.Contains(item, expected) {
				return false
			}
		}
		return true
	case models.OpCountIs, models.OpCountLessThan, models.OpCountGreaterThan:
		n, err := strconv.Atoi(strings.TrimSpace(expected))
		if err != nil {
			return false
		}
		switch op {
		case models.OpCountIs:
			return len(observed) == n
		case models.OpCountLessThan:
			return len(observed) < n
		default:
			return len(observed) > n
		}
	}
	return false
}

// evalDate compares a file timestamp against a relative or absolute value.
func (e *Evaluator) evalDate(op models.Operator, expected string, ts time.Time) bool {
	if ts.IsZero() {
		return false
	}

	now := e.now()

	switch op {
	case models.OpDateIs:
		want, err := parseDay(expected)
		if err != nil {
			return false
		}
		return sameDay(ts, want)
	case models.OpDateBefore:
		want, err := parseDay(expected)
		if err != nil {
			return false
		}
		return dayStart(ts).Before(dayStart(want))
	case models.OpDateAfter:
		want, err := parseDay(expected)
		if err != nil {
			return false
		}
		return dayStart(ts).After(dayStart(want))
	case models.OpDateToday:
		return sameDay(ts, now)
	case models.OpOlderThanDays, models.OpNewerThanDays:
		n, err := strconv.Atoi(strings.TrimSpace(expected))
		if err != nil {
			return false
		}
		days := WholeDaysBetween(ts, now)
		if op == models.OpOlderThanDays {
			return days > n
		}
		return days < n
	case models.OpDayOfWeekIs:
		return strings.EqualFold(ts.Weekday().String(), strings.TrimSpace(expected))
	}
	return false
}

// evalProperty branches on the declared property type.
func (e *Evaluator) evalProperty(t models.Trigger, obs Observation) bool {
	// Base operators apply to any type and need no value.
	switch t.Operator {
	case models.OpHasAnyValue:
		return obs.Present && !emptyValue(obs.Value)
	case models.OpHasNoValue:
		return !obs.Present || emptyValue(obs.Value)
	}

	if !obs.Present {
		return false
	}

	switch t.PropertyType {
	case models.PropertyNumber:
		return e.evalNumber(t.Operator, t.Value, obs.Value)
	case models.PropertyCheckbox:
		return e.evalCheckbox(t.Operator, obs.Value)
	case models.PropertyText:
		return e.evalText(t.Operator, t.Value, stringValue(obs.Value))
	case models.PropertyDate:
		ts, err := parseDay(stringValue(obs.Value))
		if err != nil {
			return false
		}
		return e.evalDate(t.Operator, t.Value, ts)
	case models.PropertyList:
		return e.evalList(t.Operator, t.Value, listValue(obs.Value))
	}
	return false
}

func (e *Evaluator) evalNumber(op models.Operator, expected string, value interface{}) bool {
	observed, ok := numberValue(value)
	if !ok {
		return false
	}
	want, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if err != nil {
		return false
	}

	switch op {
	case models.OpEquals:
		return observed == want
	case models.OpNotEquals:
		return observed != want
	case models.OpGreaterThan:
		return observed > want
	case models.OpLessThan:
		return observed < want
	case models.OpDivisibleBy:
		divisor := int64(want)
		dividend := int64(observed)
		if divisor == 0 || float64(dividend) != observed || float64(divisor) != want {
			return false
		}
		return dividend%divisor == 0
	}
	return false
}

func (e *Evaluator) evalCheckbox(op models.Operator, value interface{}) bool {
	b, ok := boolValue(value)
	if !ok {
		return false
	}
	switch op {
	case models.OpIsTrue:
		return b
	case models.OpIsFalse:
		return !b
	}
	return false
}

// WholeDaysBetween returns the age in whole days, floored, between a file
// timestamp and now. Pinned boundary: a file exactly 8 days old is over 7
// days ago; exactly 6 days old is not.
func WholeDaysBetween(ts, now time.Time) int {
	diff := now.Sub(ts)
	days := int(diff.Hours() / 24)
	if diff < 0 && diff.Hours()/24 != float64(days) {
		days--
	}
	return days
}

// Value coercion helpers. Frontmatter values arrive as whatever YAML decoded.

func emptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	}
	return false
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func listValue(v interface{}) []string {
	switch val := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringValue(item))
		}
		return out
	case []string:
		return val
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return []string{val}
	}
	return nil
}

func numberValue(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func boolValue(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", s)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// sameDay compares calendar days, retrying in UTC so date-only values parsed
// as UTC midnight still match local timestamps.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay == by && am == bm && ad == bd {
		return true
	}
	ay, am, ad = a.UTC().Date()
	by, bm, bd = b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
