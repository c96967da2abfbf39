package learner

import (
	"context"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// fakeStore is a minimal store.Store double covering only what the learner
// touches (PutPattern, PutRule, GetRulePerformance, PutRulePerformance);
// every other method panics if called.
type fakeStore struct {
	patterns     []domain.LearnedPattern
	rules        []domain.Rule
	perf         map[string]domain.RulePerformance
	perfNotFound bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{perf: map[string]domain.RulePerformance{}}
}

func (s *fakeStore) UpsertMessage(ctx context.Context, m *domain.Message) (string, error) { panic("not used") }
func (s *fakeStore) GetMessage(ctx context.Context, id string) (*domain.Message, error)    { panic("not used") }
func (s *fakeStore) QueryMessages(ctx context.Context, filter store.MessageFilter, page store.Pagination) ([]domain.Message, error) {
	panic("not used")
}

func (s *fakeStore) PutRule(ctx context.Context, r *domain.Rule) error {
	s.rules = append(s.rules, *r)
	return nil
}
func (s *fakeStore) DeleteRule(ctx context.Context, id string) error { panic("not used") }
func (s *fakeStore) GetRule(ctx context.Context, id string) (*domain.Rule, error) {
	panic("not used")
}
func (s *fakeStore) ListRules(ctx context.Context, enabledOnly bool) ([]domain.Rule, error) {
	panic("not used")
}

func (s *fakeStore) PutDecision(ctx context.Context, d *domain.Decision) error { panic("not used") }
func (s *fakeStore) GetDecision(ctx context.Context, messageID string) (*domain.Decision, error) {
	panic("not used")
}

func (s *fakeStore) RecordFeedback(ctx context.Context, f *domain.Feedback) error { panic("not used") }
func (s *fakeStore) ListFeedback(ctx context.Context, since time.Time) ([]domain.Feedback, error) {
	panic("not used")
}

func (s *fakeStore) PutPattern(ctx context.Context, p *domain.LearnedPattern) error {
	s.patterns = append(s.patterns, *p)
	return nil
}
func (s *fakeStore) ListPatterns(ctx context.Context, kind domain.PatternKind) ([]domain.LearnedPattern, error) {
	panic("not used")
}

func (s *fakeStore) PutBrief(ctx context.Context, b *domain.DailyBrief) error { panic("not used") }
func (s *fakeStore) GetBrief(ctx context.Context, dateUTC string) (*domain.DailyBrief, error) {
	panic("not used")
}

func (s *fakeStore) PutSenderProfile(ctx context.Context, p *domain.SenderProfile) error {
	panic("not used")
}
func (s *fakeStore) GetSenderProfile(ctx context.Context, address string) (*domain.SenderProfile, error) {
	panic("not used")
}
func (s *fakeStore) PutThreadProfile(ctx context.Context, p *domain.ThreadProfile) error {
	panic("not used")
}
func (s *fakeStore) GetThreadProfile(ctx context.Context, threadID string) (*domain.ThreadProfile, error) {
	panic("not used")
}

func (s *fakeStore) PutRulePerformance(ctx context.Context, p *domain.RulePerformance) error {
	s.perf[p.RuleID] = *p
	return nil
}
func (s *fakeStore) GetRulePerformance(ctx context.Context, ruleID string) (*domain.RulePerformance, error) {
	if s.perfNotFound {
		return nil, store.ErrNotFound
	}
	p, ok := s.perf[ruleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *fakeStore) RecordError(ctx context.Context, e *domain.ErrorLogEntry) error {
	panic("not used")
}
func (s *fakeStore) ListErrors(ctx context.Context, since time.Time) ([]domain.ErrorLogEntry, error) {
	panic("not used")
}

func (s *fakeStore) GetWatermark(ctx context.Context, connectorName string) (time.Time, error) {
	panic("not used")
}
func (s *fakeStore) SetWatermark(ctx context.Context, connectorName string, t time.Time) error {
	panic("not used")
}

func (s *fakeStore) Stats(ctx context.Context) (store.Stats, error) { panic("not used") }
func (s *fakeStore) Close() error                                   { return nil }
