package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/inbox-agent/internal/connector"
	"github.com/ignite/inbox-agent/internal/domain"
)

// runPullLoop implements §4.7's pull phase: invoke the Connector with
// since=lastSuccessfulPullAt, persist every returned message, and advance
// the watermark only after persistence succeeds. A Connector auth error
// ends the loop.
func (s *Scheduler) runPullLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PullInterval)
	defer ticker.Stop()

	if _, err := s.pullOnce(ctx); errors.Is(err, connector.ErrAuth) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.pullBackoffActive() {
				continue
			}
			if _, err := s.pullOnce(ctx); errors.Is(err, connector.ErrAuth) {
				return
			}
		}
	}
}

func (s *Scheduler) pullBackoffActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().Before(s.backoffUntil)
}

// pullOnce runs one pull cycle. The returned error is also logged via
// recordError/Store.RecordError as it's discovered, so the background loop
// can ignore the return value; the PullOnce CLI entry point uses it to pick
// an exit code.
func (s *Scheduler) pullOnce(ctx context.Context) (int, error) {
	since, err := s.store.GetWatermark(ctx, s.cfg.ConnectorName)
	if err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "pull", "", 1, err)
		return 0, err
	}

	messages, next, err := s.connector.Pull(ctx, since)
	if err != nil {
		s.handlePullError(ctx, err)
		return 0, err
	}
	s.clearPullBackoff()

	if len(messages) == 0 {
		return 0, nil
	}

	for start := 0; start < len(messages); start += s.batchSize() {
		end := start + s.batchSize()
		if end > len(messages) {
			end = len(messages)
		}
		s.persistPullBatch(ctx, messages[start:end])
	}

	if err := s.store.SetWatermark(ctx, s.cfg.ConnectorName, next); err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "pull", "", 1, err)
		return len(messages), err
	}
	return len(messages), nil
}

// PullOnce implements the `pull` CLI subcommand: run a single pull cycle
// and report how many messages were persisted.
func (s *Scheduler) PullOnce(ctx context.Context) (int, error) {
	return s.pullOnce(ctx)
}

func (s *Scheduler) batchSize() int {
	if s.cfg.PullBatchSize <= 0 {
		return 100
	}
	return s.cfg.PullBatchSize
}

// persistPullBatch upserts a batch and refreshes the IntelligenceIndex with
// it, then enqueues each message for analysis. Backpressure: if the analyze
// queue is full, this call parks until capacity frees (§5 "Backpressure").
func (s *Scheduler) persistPullBatch(ctx context.Context, batch []domain.Message) {
	persisted := make([]domain.Message, 0, len(batch))
	for i := range batch {
		id, err := s.store.UpsertMessage(ctx, &batch[i])
		if err != nil {
			s.recordError(ctx, domain.ErrKindStorage, "pull", batch[i].ExternalID, 1, err)
			continue
		}
		batch[i].ID = id
		persisted = append(persisted, batch[i])
	}

	if len(persisted) == 0 {
		return
	}

	if err := s.index.Refresh(ctx, persisted); err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "pull", "", 1, err)
	}

	for _, m := range persisted {
		select {
		case s.analyzeQueue <- m.ID:
		case <-ctx.Done():
			return
		}
	}
}

// handlePullError applies §5/§7's Connector failure policy: auth errors
// halt the pull worker for this connector; rate-limit and transient errors
// back off exponentially and leave the watermark unchanged.
func (s *Scheduler) handlePullError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, connector.ErrAuth):
		s.recordError(ctx, domain.ErrKindConnectorAuth, "pull", "", 1, err)
	case errors.Is(err, connector.ErrPermanent):
		s.recordError(ctx, domain.ErrKindValidation, "pull", "", 1, err)
	default:
		s.recordError(ctx, domain.ErrKindConnectorLimit, "pull", "", s.nextBackoffAttempt(), err)
		s.applyPullBackoff()
	}
}

func (s *Scheduler) nextBackoffAttempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backoffAttempt + 1
}

func (s *Scheduler) applyPullBackoff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backoffAttempt++
	delay := s.cfg.backoffPolicy().Delay(s.backoffAttempt)
	s.backoffUntil = time.Now().Add(delay)
}

func (s *Scheduler) clearPullBackoff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backoffAttempt = 0
	s.backoffUntil = time.Time{}
}
