package learner

import (
	"context"
	"sort"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

// Observation pairs a message with the Decision reconciled for it, the
// minimal input §4.6's "periodic rule synthesis" scans over.
type Observation struct {
	Message  domain.Message
	Decision domain.Decision
}

type tally struct {
	total  int
	counts map[string]int
}

func (t *tally) add(value string) {
	if t.counts == nil {
		t.counts = map[string]int{}
	}
	t.counts[value]++
	t.total++
}

// dominant returns the most frequent value and its fraction of total.
func (t *tally) dominant() (string, float64) {
	var best string
	var bestCount int
	keys := make([]string, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // stable tie-break
	for _, k := range keys {
		if t.counts[k] > bestCount {
			best, bestCount = k, t.counts[k]
		}
	}
	if t.total == 0 {
		return "", 0
	}
	return best, float64(bestCount) / float64(t.total)
}

// SynthesizePatterns implements §4.6's "Periodic rule synthesis": scan a
// window of (message, decision) observations for stable sender->category
// and subject-keyword->category/priority associations,
// and emit a LearnedPattern wherever sample size and dominance both clear
// their thresholds. Patterns clearing the rule-promotion bar are also
// turned into a Rule and persisted (auto-enabled if confidence is high
// enough), matching the priority bands RulePriorityFor assigns.
func (l *Learner) SynthesizePatterns(ctx context.Context, observations []Observation) ([]domain.LearnedPattern, error) {
	senderCategory := map[string]*tally{}
	keywordCategory := map[string]*tally{}
	keywordPriority := map[string]*tally{}

	for _, obs := range observations {
		addr := obs.Message.Sender.Address
		if addr != "" {
			t, ok := senderCategory[addr]
			if !ok {
				t = &tally{}
				senderCategory[addr] = t
			}
			t.add(string(obs.Message.Category))
		}

		for _, tok := range tokenize(obs.Message.Subject) {
			if ct, ok := keywordCategory[tok]; ok {
				ct.add(string(obs.Message.Category))
			} else {
				nt := &tally{}
				nt.add(string(obs.Message.Category))
				keywordCategory[tok] = nt
			}
			if pt, ok := keywordPriority[tok]; ok {
				pt.add(string(obs.Message.Priority))
			} else {
				nt := &tally{}
				nt.add(string(obs.Message.Priority))
				keywordPriority[tok] = nt
			}
		}
	}

	var patterns []domain.LearnedPattern
	now := time.Now().UTC()

	for key, t := range senderCategory {
		if p, ok := buildPattern(domain.PatternSenderCategory, key, "category", t, now); ok {
			patterns = append(patterns, p)
		}
	}
	for key, t := range keywordCategory {
		if p, ok := buildPattern(domain.PatternSubjectKeywordCategory, key, "category", t, now); ok {
			patterns = append(patterns, p)
		}
	}
	for key, t := range keywordPriority {
		if p, ok := buildPattern(domain.PatternSubjectKeywordPriority, key, "priority", t, now); ok {
			patterns = append(patterns, p)
		}
	}

	for _, p := range patterns {
		if err := l.store.PutPattern(ctx, &p); err != nil {
			return nil, err
		}
		if p.ShouldBecomeRule() {
			if err := l.store.PutRule(ctx, ruleFromPattern(p)); err != nil {
				return nil, err
			}
		}
	}

	return patterns, nil
}

func buildPattern(kind domain.PatternKind, key, attribute string, t *tally, now time.Time) (domain.LearnedPattern, bool) {
	value, fraction := t.dominant()
	p := domain.LearnedPattern{
		Kind:               kind,
		Key:                key,
		PredictedAttribute: attribute,
		PredictedValue:     value,
		Confidence:         fraction,
		SampleSize:         t.total,
		UpdatedAt:          now,
	}
	return p, p.EligibleForPromotion()
}

// ruleFromPattern builds the learner-synthesized Rule §4.6 describes: one
// condition matching the pattern's key, one action setting the predicted
// attribute, enabled only when the pattern clears ShouldAutoEnable.
func ruleFromPattern(p domain.LearnedPattern) *domain.Rule {
	rule := &domain.Rule{
		Name:             "learned: " + string(p.Kind) + " " + p.Key,
		Enabled:          p.ShouldAutoEnable(),
		Priority:         domain.RulePriorityFor(p.Kind),
		SourcePatternKey: p.Key,
		CreatedAt:        p.UpdatedAt,
		UpdatedAt:        p.UpdatedAt,
	}

	switch p.Kind {
	case domain.PatternSenderCategory:
		rule.Conditions = []domain.Condition{{Field: domain.FieldSenderAddress, Operator: domain.OpEquals, Value: p.Key}}
	default:
		rule.Conditions = []domain.Condition{{Field: domain.FieldSubject, Operator: domain.OpContains, Value: p.Key}}
	}

	switch p.PredictedAttribute {
	case "category":
		category := domain.Category(p.PredictedValue)
		rule.Actions.SetCategory = &category
	case "priority":
		priority := domain.Priority(p.PredictedValue)
		rule.Actions.SetPriority = &priority
	}

	return rule
}
