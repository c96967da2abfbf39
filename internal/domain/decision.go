package domain

import "time"

// Conflict records one disagreement detected among a message's Assessments
// (§4.5 "Conflict detection").
type Conflict struct {
	Kind        string  `json:"kind"` // "score_spread" | "urgency_spread" | "confident_disagreement"
	Description string  `json:"description"`
	Spread      float64 `json:"spread,omitempty"`
}

// Decision is the Collaborator's reconciliation of a message's Assessments
// into one routing outcome. At most one current Decision exists per
// (messageId, policyVersion).
type Decision struct {
	MessageID      string     `json:"message_id" db:"message_id"`
	PolicyVersion  int        `json:"policy_version" db:"policy_version"`
	Bucket         Bucket     `json:"bucket" db:"bucket"`
	FinalScore     float64    `json:"final_score" db:"final_score"` // [0,1]
	Confidence     float64    `json:"confidence" db:"confidence"`   // [0.1,1]
	AppliedLabels  []string   `json:"applied_labels" db:"applied_labels"`
	Urgency        Urgency    `json:"urgency" db:"urgency"`
	Rationale      string     `json:"rationale" db:"rationale"`
	Conflicts      []Conflict `json:"conflicts" db:"conflicts"`
	ShouldEscalate bool       `json:"should_escalate" db:"should_escalate"`
	FollowUps      []string   `json:"follow_ups,omitempty" db:"follow_ups"`
	DecidedAt      time.Time  `json:"decided_at" db:"decided_at"`

	// DegradedAnalyzers names analyzers that fell back to a low-confidence
	// assessment (LLM unavailable, index miss) — surfaced to the CLI per §7
	// "CLI output marks degraded decisions explicitly".
	DegradedAnalyzers []string `json:"degraded_analyzers,omitempty" db:"degraded_analyzers"`

	// FiredRuleIDs is the ordered list of rules.Engine.Apply's matches for
	// this message, carried onto the Decision for audit (§4.2 "Output: the
	// ordered list of fired rule IDs") and so feedback can later attribute a
	// correction back to the rules that contributed to it.
	FiredRuleIDs []string `json:"fired_rule_ids,omitempty" db:"fired_rule_ids"`
}

// Degraded reports whether this decision carries the low-confidence marker
// §7 assigns to analysis that ran with a missing capability.
func (d Decision) Degraded() bool { return d.Confidence < 0.5 }

// Feedback is an append-only record of a user correction to a Decision.
// Feedback is never deleted (Design Notes: "Feedback store ... append-only").
type Feedback struct {
	ID               string    `json:"id" db:"id"`
	MessageID        string    `json:"message_id" db:"message_id"`
	OriginalDecision Bucket    `json:"original_decision" db:"original_decision"`
	CorrectedBucket  Bucket    `json:"corrected_bucket" db:"corrected_bucket"`
	UserNote         string    `json:"user_note,omitempty" db:"user_note"`
	StampedAt        time.Time `json:"stamped_at" db:"stamped_at"`
}

// LearnedPattern is a sender-/keyword-/content-/temporal-indexed observation
// the feedback learner promotes once it clears sample-size and confidence
// thresholds (§4.6).
type LearnedPattern struct {
	Kind              PatternKind `json:"kind" db:"kind"`
	Key               string      `json:"key" db:"key"`
	PredictedAttribute string     `json:"predicted_attribute" db:"predicted_attribute"`
	PredictedValue    string      `json:"predicted_value" db:"predicted_value"`
	Confidence        float64     `json:"confidence" db:"confidence"` // mostCommonCount / totalCount
	SampleSize        int         `json:"sample_size" db:"sample_size"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// sample-size thresholds for pattern promotion (§4.6).
const (
	senderSampleThreshold  = 5
	keywordSampleThreshold = 5
	contentSampleThreshold = 3

	defaultPatternConfidenceThreshold = 0.7
	ruleAutoPromoteConfidence         = 0.8
	ruleAutoEnableConfidence          = 0.9
)

// SampleThresholdFor returns the minimum sample size required before a
// pattern of this kind may be emitted at all.
func SampleThresholdFor(kind PatternKind) int {
	switch kind {
	case PatternSenderCategory:
		return senderSampleThreshold
	case PatternSubjectKeywordCategory, PatternSubjectKeywordPriority:
		return keywordSampleThreshold
	case PatternContentFeature, PatternTemporal:
		return contentSampleThreshold
	default:
		return contentSampleThreshold
	}
}

// EligibleForPromotion reports whether a pattern clears the sample-size and
// confidence bars to be emitted as a LearnedPattern.
func (p LearnedPattern) EligibleForPromotion() bool {
	return p.SampleSize >= SampleThresholdFor(p.Kind) && p.Confidence >= defaultPatternConfidenceThreshold
}

// ShouldBecomeRule reports whether this pattern's confidence is high enough
// to be promoted into a Rule (§4.6: confidence >= 0.8).
func (p LearnedPattern) ShouldBecomeRule() bool {
	return p.EligibleForPromotion() && p.Confidence >= ruleAutoPromoteConfidence
}

// ShouldAutoEnable reports whether a promoted rule should start enabled
// (§4.6: confidence >= 0.9).
func (p LearnedPattern) ShouldAutoEnable() bool {
	return p.Confidence >= ruleAutoEnableConfidence
}

// RulePriorityFor returns the fixed priority band a learner-synthesized rule
// is assigned, keyed by the pattern kind it was promoted from (§4.6).
func RulePriorityFor(kind PatternKind) int {
	switch kind {
	case PatternSenderCategory:
		return 100
	case PatternSubjectKeywordCategory, PatternSubjectKeywordPriority:
		return 101
	default:
		return 102
	}
}
