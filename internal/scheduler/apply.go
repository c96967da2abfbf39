package scheduler

import (
	"context"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// runApplyLoop implements §4.7's apply phase: decided messages whose
// decision hasn't been pushed to the Connector yet get their labels and
// read/archive state applied, ticking every ApplyInterval.
func (s *Scheduler) runApplyLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ApplyInterval)
	defer ticker.Stop()

	s.applyOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.applyOnce(ctx)
		}
	}
}

func (s *Scheduler) applyOnce(ctx context.Context) {
	pending, err := s.store.QueryMessages(ctx, store.MessageFilter{
		MissingStamp:    domain.StampLabelsPushed,
		HasMissingStamp: true,
	}, store.Pagination{Limit: s.batchSize()})
	if err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "apply", "", 1, err)
		return
	}

	for i := range pending {
		s.applyDecision(ctx, &pending[i])
	}
}

func (s *Scheduler) applyDecision(ctx context.Context, m *domain.Message) {
	if !m.HasStamp(domain.StampDecided) {
		return // apply phase only handles messages the analyze phase has decided
	}

	decision, err := s.store.GetDecision(ctx, m.ID)
	if err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "apply", m.ID, 1, err)
		return
	}

	if len(decision.AppliedLabels) > 0 {
		if err := s.connector.ApplyLabels(ctx, m.ExternalID, decision.AppliedLabels, nil); err != nil {
			s.recordError(ctx, domain.ErrKindConnectorTransient, "apply", m.ID, 1, err)
			return
		}
	}

	switch decision.Bucket {
	case domain.BucketAutoArchive, domain.BucketSpamFolder:
		if err := s.connector.Archive(ctx, m.ExternalID); err != nil {
			s.recordError(ctx, domain.ErrKindConnectorTransient, "apply", m.ID, 1, err)
			return
		}
	case domain.BucketPriorityInbox:
		if err := s.connector.MarkRead(ctx, m.ExternalID, false); err != nil {
			s.recordError(ctx, domain.ErrKindConnectorTransient, "apply", m.ID, 1, err)
			return
		}
	}

	m.Stamp(domain.StampLabelsPushed)
	if _, err := s.store.UpsertMessage(ctx, m); err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "apply", m.ID, 1, err)
	}
}
