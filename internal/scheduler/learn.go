package scheduler

import (
	"context"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/learner"
	"github.com/ignite/inbox-agent/internal/store"
)

// learnWindowLimit bounds how many recently-analyzed messages a single
// synthesis pass scans; generous enough for a day's volume without an
// unbounded query against a growing table.
const learnWindowLimit = 5000

// runLearnLoop implements §4.6's "periodic rule synthesis" as a fifth
// pipeline phase, shaped like runBriefLoop's poll-and-gate ticker: every
// LearnInterval, gather the messages received since the last pass that
// already carry the analyzed stamp, pair them with their Decisions, and
// hand them to the FeedbackLearner. A message not yet analyzed when its
// window is scanned is not picked up by a later pass.
func (s *Scheduler) runLearnLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.learner == nil || s.cfg.LearnInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.cfg.LearnInterval)
	defer ticker.Stop()

	since := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			since = s.runLearnPass(ctx, since)
		}
	}
}

// runLearnPass synthesizes patterns over the analyzed messages among those
// received between since and now, and returns the cutoff the next pass
// should resume from.
func (s *Scheduler) runLearnPass(ctx context.Context, since time.Time) time.Time {
	now := time.Now()

	messages, err := s.store.QueryMessages(ctx, store.MessageFilter{
		Since: since,
		Until: now,
	}, store.Pagination{Limit: learnWindowLimit})
	if err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "learn", "", 1, err)
		return since
	}

	observations := make([]learner.Observation, 0, len(messages))
	for _, m := range messages {
		if !m.HasStamp(domain.StampAnalyzed) {
			continue
		}
		d, err := s.store.GetDecision(ctx, m.ID)
		if err != nil {
			continue // no reconciled decision yet, skip rather than fail the whole pass
		}
		observations = append(observations, learner.Observation{Message: m, Decision: *d})
	}

	if len(observations) == 0 {
		return now
	}

	if _, err := s.learner.SynthesizePatterns(ctx, observations); err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "learn", "", 1, err)
		return since
	}
	return now
}
