package learner

import (
	"context"
	"errors"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// TrackRuleMatch implements §4.6's "Rule performance tracking": each time a
// rule fires on a message, record whether its predicted attribute (the
// category/priority it set) agreed with the message's final Decision, and
// update the rule's rolling accuracy.
func (l *Learner) TrackRuleMatch(ctx context.Context, ruleID string, predictedAttributeCorrect bool) (domain.RulePerformance, error) {
	perf, err := l.store.GetRulePerformance(ctx, ruleID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.RulePerformance{}, err
		}
		perf = &domain.RulePerformance{RuleID: ruleID}
	}

	correctSoFar := perf.Accuracy * float64(perf.Matches)
	if predictedAttributeCorrect {
		correctSoFar++
	}
	perf.Matches++
	perf.Accuracy = correctSoFar / float64(perf.Matches)

	if err := l.store.PutRulePerformance(ctx, perf); err != nil {
		return domain.RulePerformance{}, err
	}
	return *perf, nil
}
