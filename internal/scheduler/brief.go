package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// ErrBriefNotReady is returned by BriefForDate when the requested date's
// messages aren't all analyzed yet (§5 "brief worker ... otherwise it
// waits" applies to an explicit CLI request too).
var ErrBriefNotReady = errors.New("scheduler: brief not ready, not every message for this date is analyzed yet")

// briefPollInterval is how often the brief phase checks whether today's
// cutoff has passed. A full ticker per minute is cheap and avoids drift
// from sleeping until an exact wall-clock instant.
const briefPollInterval = time.Minute

// runBriefLoop implements §4.7/§4.8's brief phase: once per local day, after
// BriefCutoffHourLocal, assemble the day's messages and generate a brief —
// but only once every message received that day carries the analyzed stamp
// (§5 "brief worker ... otherwise it waits").
func (s *Scheduler) runBriefLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(briefPollInterval)
	defer ticker.Stop()

	var lastBriefed string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lastBriefed = s.maybeRunBrief(ctx, lastBriefed)
		}
	}
}

// maybeRunBrief generates today's brief once the cutoff hour has passed and
// it hasn't already been generated, returning the date it last succeeded on.
func (s *Scheduler) maybeRunBrief(ctx context.Context, lastBriefed string) string {
	now := time.Now()
	if now.Hour() < s.cfg.BriefCutoffHourLocal {
		return lastBriefed
	}

	dateUTC := now.UTC().Format("2006-01-02")
	if dateUTC == lastBriefed {
		return lastBriefed
	}

	_, generated, err := s.generateBriefForDate(ctx, dateUTC, true)
	if err != nil || !generated {
		return lastBriefed
	}
	return dateUTC
}

// BriefForDate implements the `brief --date` CLI subcommand: generate (and
// persist/export) the brief for an explicitly requested date, still gated
// on every message in that date's window carrying the analyzed stamp.
func (s *Scheduler) BriefForDate(ctx context.Context, dateUTC string) (domain.DailyBrief, error) {
	b, generated, err := s.generateBriefForDate(ctx, dateUTC, true)
	if err != nil {
		return domain.DailyBrief{}, err
	}
	if !generated {
		return domain.DailyBrief{}, ErrBriefNotReady
	}
	return b, nil
}

// briefQueryLimit is generous enough that a single inbox's daily volume
// never gets truncated; QueryMessages treats Limit<=0 as a 100-row default
// rather than "unlimited".
const briefQueryLimit = 10000

func (s *Scheduler) generateBriefForDate(ctx context.Context, dateUTC string, requireAnalyzed bool) (domain.DailyBrief, bool, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", dateUTC, time.UTC)
	if err != nil {
		return domain.DailyBrief{}, false, err
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	messages, err := s.store.QueryMessages(ctx, store.MessageFilter{
		Since: dayStart,
		Until: dayEnd,
	}, store.Pagination{Limit: briefQueryLimit})
	if err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "brief", "", 1, err)
		return domain.DailyBrief{}, false, err
	}

	if requireAnalyzed {
		for i := range messages {
			if !messages[i].HasStamp(domain.StampAnalyzed) {
				return domain.DailyBrief{}, false, nil // still waiting on analysis
			}
		}
	}

	b, err := s.brief.Generate(ctx, dateUTC, messages)
	if err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "brief", "", 1, err)
		return domain.DailyBrief{}, false, err
	}

	if err := s.store.PutBrief(ctx, &b); err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "brief", "", 1, err)
		return domain.DailyBrief{}, false, err
	}

	if s.briefExport != nil {
		if err := s.briefExport.Export(ctx, b); err != nil {
			s.recordError(ctx, domain.ErrKindConnectorTransient, "brief", "", 1, err)
		}
	}

	return b, true, nil
}
