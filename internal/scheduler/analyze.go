package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// runAnalyzeLoop implements §4.7's analyze phase: a pool of AnalyzePoolSize
// workers drain analyzeQueue, run the current Rules engine then all
// Analyzers, and reconcile the result into a Decision via the Collaborator.
func (s *Scheduler) runAnalyzeLoop(ctx context.Context) {
	defer s.wg.Done()

	poolSize := s.cfg.AnalyzePoolSize
	if poolSize <= 0 {
		poolSize = 1
	}

	var workers sync.WaitGroup
	workers.Add(poolSize)
	for i := 0; i < poolSize; i++ {
		go func() {
			defer workers.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id, ok := <-s.analyzeQueue:
					if !ok {
						return
					}
					s.analyzeOne(ctx, id)
				}
			}
		}()
	}
	workers.Wait()
}

// analyzeOne runs one message through Rules then Analyzers then the
// Collaborator, persisting the resulting Decision and advancing its
// processing stamps.
func (s *Scheduler) analyzeOne(ctx context.Context, messageID string) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "analyze", messageID, 1, err)
		return
	}

	if _, err := s.analyzeMessage(ctx, m, true); err != nil {
		s.recordError(ctx, domain.ErrKindStorage, "analyze", messageID, 1, err)
	}
}

// analyzeMessage runs one message through Rules, Analyzers and the
// Collaborator. When persist is true, the Decision and the message's
// advanced stamps are written back to the Store; dry-run CLI callers pass
// persist=false to preview a Decision without mutating anything.
func (s *Scheduler) analyzeMessage(ctx context.Context, m *domain.Message, persist bool) (domain.Decision, error) {
	var firedRuleIDs []string
	engine := s.rulesProv.Current()
	if engine != nil {
		firedRuleIDs = engine.Apply(m)
	}
	m.Stamp(domain.StampRulesApplied)

	assessments := make([]domain.Assessment, 0, len(s.analyzers))
	degraded := make([]string, 0)
	for _, a := range s.analyzers {
		assessment := a.Assess(ctx, m, s.index)
		assessments = append(assessments, assessment)
		if assessment.Confidence < 0.5 {
			degraded = append(degraded, a.Name())
		}
	}
	m.Stamp(domain.StampAnalyzed)

	decision := s.collaborator.Reconcile(m.ID, s.policyVersion, m.Category, assessments, degraded)
	decision.DecidedAt = time.Now()
	decision.FiredRuleIDs = firedRuleIDs

	if !persist {
		return decision, nil
	}

	if err := s.store.PutDecision(ctx, &decision); err != nil {
		return decision, err
	}
	m.Stamp(domain.StampDecided)

	if _, err := s.store.UpsertMessage(ctx, m); err != nil {
		return decision, err
	}
	return decision, nil
}

// TriageBatch implements the `triage` CLI subcommand: it analyzes up to
// limit messages still missing the analyzed stamp and returns their
// Decisions. With dryRun, nothing is persisted — callers get a preview.
func (s *Scheduler) TriageBatch(ctx context.Context, limit int, dryRun bool) ([]domain.Decision, error) {
	if limit <= 0 {
		limit = 100
	}

	pending, err := s.store.QueryMessages(ctx, store.MessageFilter{
		MissingStamp:    domain.StampAnalyzed,
		HasMissingStamp: true,
	}, store.Pagination{Limit: limit})
	if err != nil {
		return nil, err
	}

	decisions := make([]domain.Decision, 0, len(pending))
	for i := range pending {
		d, err := s.analyzeMessage(ctx, &pending[i], !dryRun)
		if err != nil {
			return decisions, err
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}
