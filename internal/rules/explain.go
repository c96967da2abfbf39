package rules

import "github.com/ignite/inbox-agent/internal/domain"

// ConditionTrace records whether one condition of a rule matched, for the
// `rules test ID --against FILE` CLI command (SPEC_FULL §10, grounded on
// original_source's RulesEngine.test_rule/_test_condition).
type ConditionTrace struct {
	Index    int
	Field    domain.ConditionField
	Operator domain.ConditionOperator
	Value    string
	Matches  bool
}

// ExplainResult is the detailed per-condition breakdown of evaluating one
// rule against one message, independent of rule priority/ordering.
type ExplainResult struct {
	RuleID     string
	RuleName   string
	Applies    bool
	Conditions []ConditionTrace
}

// Explain evaluates r's conditions against m individually and reports
// which ones matched, regardless of whether r is enabled — this lets an
// operator test a disabled or draft rule before enabling it.
func Explain(r domain.Rule, m *domain.Message) ExplainResult {
	cr := Compile(r)
	out := ExplainResult{RuleID: r.ID, RuleName: r.Name, Conditions: make([]ConditionTrace, 0, len(cr.conditions))}

	applies := len(cr.conditions) > 0
	for i, c := range cr.conditions {
		matched := conditionMatches(c, m)
		out.Conditions = append(out.Conditions, ConditionTrace{
			Index: i, Field: c.Field, Operator: c.Operator, Value: c.Value, Matches: matched,
		})
		if !matched {
			applies = false
		}
	}
	out.Applies = applies
	return out
}
