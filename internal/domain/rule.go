package domain

import "time"

// Condition is one clause of a Rule. All of a Rule's conditions are
// AND-combined (§4.2).
type Condition struct {
	Field         ConditionField    `json:"field" db:"field"`
	Operator      ConditionOperator `json:"operator" db:"operator"`
	Value         string            `json:"value" db:"value"`
	CaseSensitive bool              `json:"case_sensitive" db:"case_sensitive"`
}

// Actions is the set of mutations a Rule applies to a Message on match.
// Pointer fields are applied only when non-nil, so a rule can leave a field
// untouched instead of forcing it to a zero value.
type Actions struct {
	SetCategory  *Category `json:"set_category,omitempty"`
	SetPriority  *Priority `json:"set_priority,omitempty"`
	AddTags      []string  `json:"add_tags,omitempty"`
	RemoveTags   []string  `json:"remove_tags,omitempty"`
	MarkRead     *bool     `json:"mark_read,omitempty"`
	MarkFlagged  *bool     `json:"mark_flagged,omitempty"`
}

// Rule is a deterministic, user-editable (or learner-synthesized) predicate
// over a Message. Rules never delete messages.
type Rule struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Enabled  bool   `json:"enabled" db:"enabled"`
	Priority int    `json:"priority" db:"priority"` // lower = evaluated first

	Conditions []Condition `json:"conditions" db:"-"`
	Actions    Actions     `json:"actions" db:"-"`

	// CompileError is set when a condition (typically a regex) failed to
	// compile; the rule is stored disabled with the reason recorded here
	// instead of panicking during evaluation (Design Notes: exceptions
	// replaced with a success-or-reason compile result).
	CompileError string `json:"compile_error,omitempty" db:"compile_error"`

	// Learner-synthesized rules (§4.6) track provenance.
	SourcePatternKey string `json:"source_pattern_key,omitempty" db:"source_pattern_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RulePerformance tracks how often a rule's predicted attribute agreed with
// the final Decision (§4.6 "Rule performance tracking").
type RulePerformance struct {
	RuleID   string  `json:"rule_id" db:"rule_id"`
	Matches  int     `json:"matches" db:"matches"`
	Accuracy float64 `json:"accuracy" db:"accuracy"`
}

// SuggestDisable reports whether accuracy has fallen low enough, over enough
// matches, that §4.6 suggests disabling the rule.
func (p RulePerformance) SuggestDisable() bool {
	return p.Matches >= 10 && p.Accuracy < 0.6
}

// SuggestEnable reports whether a disabled rule has shown high enough
// accuracy to suggest re-enabling it.
func (p RulePerformance) SuggestEnable() bool {
	return p.Accuracy > 0.9
}
