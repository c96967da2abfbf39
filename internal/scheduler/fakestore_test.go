package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// memStore is an in-memory store.Store implementing the methods the
// Scheduler's five phases call; the remaining methods panic if called.
type memStore struct {
	mu         sync.Mutex
	messages   map[string]domain.Message
	decisions  map[string]domain.Decision
	briefs     map[string]domain.DailyBrief
	watermarks map[string]time.Time
	errors     []domain.ErrorLogEntry
	nextID     int
}

func newMemStore() *memStore {
	return &memStore{
		messages:   map[string]domain.Message{},
		decisions:  map[string]domain.Decision{},
		briefs:     map[string]domain.DailyBrief{},
		watermarks: map[string]time.Time{},
	}
}

func (s *memStore) UpsertMessage(ctx context.Context, m *domain.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		s.nextID++
		m.ID = strconv.Itoa(s.nextID)
	}
	s.messages[m.ID] = *m
	return m.ID, nil
}

func (s *memStore) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *memStore) QueryMessages(ctx context.Context, filter store.MessageFilter, page store.Pagination) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if filter.HasMissingStamp && m.HasStamp(filter.MissingStamp) {
			continue
		}
		if !filter.Since.IsZero() && m.ReceivedAt.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !m.ReceivedAt.Before(filter.Until) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *memStore) PutRule(ctx context.Context, r *domain.Rule) error         { panic("not used") }
func (s *memStore) DeleteRule(ctx context.Context, id string) error          { panic("not used") }
func (s *memStore) GetRule(ctx context.Context, id string) (*domain.Rule, error) {
	panic("not used")
}
func (s *memStore) ListRules(ctx context.Context, enabledOnly bool) ([]domain.Rule, error) {
	panic("not used")
}

func (s *memStore) PutDecision(ctx context.Context, d *domain.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[d.MessageID] = *d
	return nil
}
func (s *memStore) GetDecision(ctx context.Context, messageID string) (*domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decisions[messageID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (s *memStore) RecordFeedback(ctx context.Context, f *domain.Feedback) error { panic("not used") }
func (s *memStore) ListFeedback(ctx context.Context, since time.Time) ([]domain.Feedback, error) {
	panic("not used")
}

func (s *memStore) PutPattern(ctx context.Context, p *domain.LearnedPattern) error {
	panic("not used")
}
func (s *memStore) ListPatterns(ctx context.Context, kind domain.PatternKind) ([]domain.LearnedPattern, error) {
	panic("not used")
}

func (s *memStore) PutBrief(ctx context.Context, b *domain.DailyBrief) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.briefs[b.DateUTC] = *b
	return nil
}
func (s *memStore) GetBrief(ctx context.Context, dateUTC string) (*domain.DailyBrief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.briefs[dateUTC]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *memStore) PutSenderProfile(ctx context.Context, p *domain.SenderProfile) error { return nil }
func (s *memStore) GetSenderProfile(ctx context.Context, address string) (*domain.SenderProfile, error) {
	return nil, store.ErrNotFound
}
func (s *memStore) PutThreadProfile(ctx context.Context, p *domain.ThreadProfile) error { return nil }
func (s *memStore) GetThreadProfile(ctx context.Context, threadID string) (*domain.ThreadProfile, error) {
	return nil, store.ErrNotFound
}

func (s *memStore) PutRulePerformance(ctx context.Context, p *domain.RulePerformance) error {
	panic("not used")
}
func (s *memStore) GetRulePerformance(ctx context.Context, ruleID string) (*domain.RulePerformance, error) {
	panic("not used")
}

func (s *memStore) RecordError(ctx context.Context, e *domain.ErrorLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, *e)
	return nil
}
func (s *memStore) ListErrors(ctx context.Context, since time.Time) ([]domain.ErrorLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ErrorLogEntry(nil), s.errors...), nil
}

func (s *memStore) GetWatermark(ctx context.Context, connectorName string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermarks[connectorName], nil
}
func (s *memStore) SetWatermark(ctx context.Context, connectorName string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermarks[connectorName] = t
	return nil
}

func (s *memStore) Stats(ctx context.Context) (store.Stats, error) { panic("not used") }
func (s *memStore) Close() error                                   { return nil }

// alwaysAcquireLock grants the IntelligenceIndex refresh lock unconditionally.
type alwaysAcquireLock struct{}

func (alwaysAcquireLock) Acquire(ctx context.Context) (bool, error) { return true, nil }
func (alwaysAcquireLock) Release(ctx context.Context) error         { return nil }
