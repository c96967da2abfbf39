package main

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// memStore is a minimal in-memory store.Store covering only the methods
// the CLI's composition root and subcommands actually call, mirroring the
// scheduler package's own memStore test double.
type memStore struct {
	mu        sync.Mutex
	messages  map[string]domain.Message
	decisions map[string]domain.Decision
	rules     map[string]domain.Rule
	feedback  []domain.Feedback
	nextID    int
}

func newMemStore() *memStore {
	return &memStore{
		messages:  map[string]domain.Message{},
		decisions: map[string]domain.Decision{},
		rules:     map[string]domain.Rule{},
	}
}

func (s *memStore) UpsertMessage(ctx context.Context, m *domain.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		s.nextID++
		m.ID = "m" + strconv.Itoa(s.nextID)
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
	return nil, nil
}

func (s *memStore) PutRule(ctx context.Context, r *domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		s.nextID++
		r.ID = "r" + strconv.Itoa(s.nextID)
	}
	s.rules[r.ID] = *r
	return nil
}

func (s *memStore) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *memStore) GetRule(ctx context.Context, id string) (*domain.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *memStore) ListRules(ctx context.Context, enabledOnly bool) ([]domain.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Rule
	for _, r := range s.rules {
		if enabledOnly && !r.Enabled {
			continue
		}
		out = append(out, r)
	}
	return out, nil
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

func (s *memStore) RecordFeedback(ctx context.Context, f *domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, *f)
	return nil
}

func (s *memStore) ListFeedback(ctx context.Context, since time.Time) ([]domain.Feedback, error) {
	return s.feedback, nil
}

func (s *memStore) PutPattern(ctx context.Context, p *domain.LearnedPattern) error { return nil }
func (s *memStore) ListPatterns(ctx context.Context, kind domain.PatternKind) ([]domain.LearnedPattern, error) {
	return nil, nil
}

func (s *memStore) PutBrief(ctx context.Context, b *domain.DailyBrief) error { return nil }
func (s *memStore) GetBrief(ctx context.Context, dateUTC string) (*domain.DailyBrief, error) {
	return nil, store.ErrNotFound
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
	return nil
}
func (s *memStore) GetRulePerformance(ctx context.Context, ruleID string) (*domain.RulePerformance, error) {
	return nil, store.ErrNotFound
}

func (s *memStore) RecordError(ctx context.Context, e *domain.ErrorLogEntry) error { return nil }
func (s *memStore) ListErrors(ctx context.Context, since time.Time) ([]domain.ErrorLogEntry, error) {
	return nil, nil
}

func (s *memStore) GetWatermark(ctx context.Context, connectorName string) (time.Time, error) {
	return time.Time{}, nil
}
func (s *memStore) SetWatermark(ctx context.Context, connectorName string, t time.Time) error {
	return nil
}

func (s *memStore) Stats(ctx context.Context) (store.Stats, error) { return store.Stats{}, nil }
func (s *memStore) Close() error                                   { return nil }
