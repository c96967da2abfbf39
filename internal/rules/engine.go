// Package rules implements the deterministic, ordered rule evaluation
// pipeline (§4.2). Compilation never panics: a bad regex disables its rule
// with a recorded reason rather than aborting the pass (Design Notes:
// "Exception-for-control-flow in rule parsing" replaced with a
// success-or-reason compile result).
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ignite/inbox-agent/internal/domain"
)

// CompiledRule pairs a domain.Rule with its pre-compiled regex conditions
// (compiled once per rule, not per message, per §4.2 "regex compiles once
// per rule").
type CompiledRule struct {
	Rule       domain.Rule
	conditions []compiledCondition
}

type compiledCondition struct {
	domain.Condition
	re *regexp.Regexp
}

// Compile builds a CompiledRule from r. If any condition fails to compile
// (currently only possible for the regex operator), it returns a
// CompiledRule whose Rule.CompileError is set and Rule.Enabled is forced to
// false — the caller is expected to persist that back via Store.PutRule so
// Store.ListRules reports the disabled reason (§7 RuleCompileError).
func Compile(r domain.Rule) CompiledRule {
	cr := CompiledRule{Rule: r, conditions: make([]compiledCondition, 0, len(r.Conditions))}
	for _, c := range r.Conditions {
		cc := compiledCondition{Condition: c}
		if c.Operator == domain.OpRegex {
			re, err := regexp.Compile(c.Value)
			if err != nil {
				cr.Rule.Enabled = false
				cr.Rule.CompileError = fmt.Sprintf("condition on %s: invalid regex %q: %v", c.Field, c.Value, err)
				return cr
			}
			cc.re = re
		}
		cr.conditions = append(cr.conditions, cc)
	}
	return cr
}

// Engine applies an ordered, enabled rule set to messages.
type Engine struct {
	rules []CompiledRule // sorted ascending by Rule.Priority
}

// NewEngine compiles and sorts the given rules. Disabled rules (including
// ones that failed to compile) are kept out of evaluation but are not
// discarded — callers that need the disabled-with-reason list should read
// them from Store directly.
func NewEngine(rs []domain.Rule) *Engine {
	compiled := make([]CompiledRule, 0, len(rs))
	for _, r := range rs {
		cr := Compile(r)
		if cr.Rule.Enabled {
			compiled = append(compiled, cr)
		}
	}
	for i := 1; i < len(compiled); i++ {
		for j := i; j > 0 && compiled[j].Rule.Priority < compiled[j-1].Rule.Priority; j-- {
			compiled[j], compiled[j-1] = compiled[j-1], compiled[j]
		}
	}
	return &Engine{rules: compiled}
}

// Apply evaluates every enabled rule against m in priority order, mutating
// m with each matching rule's actions, and returns the ordered list of
// fired rule IDs for audit (§4.2 "Output").
//
// A rule whose evaluation panics or errors is treated as a non-match; it
// never aborts the rest of the pass (P3 rule isolation).
func (e *Engine) Apply(m *domain.Message) (firedRuleIDs []string) {
	for _, cr := range e.rules {
		if !evaluateSafely(cr, m) {
			continue
		}
		applyActions(cr.Rule.Actions, m)
		firedRuleIDs = append(firedRuleIDs, cr.Rule.ID)
	}
	return firedRuleIDs
}

func evaluateSafely(cr CompiledRule, m *domain.Message) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return evaluate(cr, m)
}

// evaluate ANDs all of a rule's conditions together (§4.2 "Evaluation").
func evaluate(cr CompiledRule, m *domain.Message) bool {
	if len(cr.conditions) == 0 {
		return false
	}
	for _, c := range cr.conditions {
		if !conditionMatches(c, m) {
			return false
		}
	}
	return true
}

func conditionMatches(c compiledCondition, m *domain.Message) bool {
	switch c.Field {
	case domain.FieldSubject:
		return compareString(c, m.Subject)
	case domain.FieldSenderAddress:
		return compareString(c, m.Sender.Address)
	case domain.FieldSenderDomain:
		return compareString(c, m.SenderDomain())
	case domain.FieldBodyText:
		return compareString(c, m.BodyText)
	case domain.FieldHasAttachments:
		return compareBool(c, m.HasAttachments)
	case domain.FieldAttachmentCount:
		return compareInt(c, m.AttachmentCount)
	case domain.FieldRecipients:
		for _, r := range m.Recipients {
			if compareString(c, r.Address) {
				return true
			}
		}
		return false
	case domain.FieldCategory:
		return compareString(c, string(m.Category))
	case domain.FieldPriority:
		return compareString(c, string(m.Priority))
	case domain.FieldTags:
		for t := range m.Tags {
			if compareString(c, t) {
				return true
			}
		}
		return false
	default:
		// Unknown field -> condition false (§4.2 "Unknown field/operator -> condition false").
		return false
	}
}

func compareString(c compiledCondition, actual string) bool {
	normalize := func(s string) string {
		if c.CaseSensitive {
			return s
		}
		return strings.ToLower(s)
	}
	actualN, valueN := normalize(actual), normalize(c.Value)

	switch c.Operator {
	case domain.OpEquals:
		return actualN == valueN
	case domain.OpNotEquals:
		return actualN != valueN
	case domain.OpContains:
		return strings.Contains(actualN, valueN)
	case domain.OpNotContains:
		return !strings.Contains(actualN, valueN)
	case domain.OpStartsWith:
		return strings.HasPrefix(actualN, valueN)
	case domain.OpEndsWith:
		return strings.HasSuffix(actualN, valueN)
	case domain.OpRegex:
		if c.re == nil {
			return false
		}
		return c.re.MatchString(actual)
	default:
		return false
	}
}

func compareBool(c compiledCondition, actual bool) bool {
	want, err := strconv.ParseBool(c.Value)
	if err != nil {
		return false
	}
	switch c.Operator {
	case domain.OpEquals:
		return actual == want
	case domain.OpNotEquals:
		return actual != want
	default:
		return false
	}
}

func compareInt(c compiledCondition, actual int) bool {
	want, err := strconv.Atoi(c.Value)
	if err != nil {
		return false
	}
	switch c.Operator {
	case domain.OpEquals:
		return actual == want
	case domain.OpNotEquals:
		return actual != want
	default:
		return false
	}
}

// applyActions mutates m per a matched rule's actions (§4.2 "Actions").
// Last-writer-wins on SetCategory/SetPriority across successive matching
// rules (P2); AddTags/RemoveTags are unioned/differenced.
func applyActions(a domain.Actions, m *domain.Message) {
	if a.SetCategory != nil && a.SetCategory.Valid() {
		m.Category = *a.SetCategory
		m.CategoryInferred = false
	}
	if a.SetPriority != nil && a.SetPriority.Valid() {
		m.Priority = *a.SetPriority
	}
	if len(a.AddTags) > 0 {
		m.AddTags(a.AddTags...)
	}
	if len(a.RemoveTags) > 0 {
		m.RemoveTags(a.RemoveTags...)
	}
	if a.MarkRead != nil {
		m.IsRead = *a.MarkRead
	}
	if a.MarkFlagged != nil {
		m.IsFlagged = *a.MarkFlagged
	}
}
