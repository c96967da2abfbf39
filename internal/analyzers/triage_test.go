package analyzers

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

func TestTriageAnalyzer_UrgentKeywordAndRecentPrimaryScoresHigh(t *testing.T) {
	a := &TriageAnalyzer{}
	m := domain.NewMessage()
	m.Category = domain.CategoryPrimary
	m.Subject = "URGENT: need your sign-off"
	m.ReceivedAt = time.Now().Add(-10 * time.Minute)

	got := a.Assess(context.Background(), &m, newFakeIndex())
	if got.PriorityScore < 0.5 {
		t.Fatalf("expected a high attention score, got %v", got.PriorityScore)
	}
	if got.Urgency != domain.UrgencyCritical {
		t.Fatalf("expected CRITICAL urgency from 'urgent' keyword, got %v", got.Urgency)
	}
}

func TestTriageAnalyzer_StrategicBoostRaisesScore(t *testing.T) {
	idx := newFakeIndex()
	idx.senders["vip@company.com"] = domain.SenderProfile{ImportanceScore: 50, StrategicClass: domain.StrategicCritical}
	a := &TriageAnalyzer{}

	withoutBoost := domain.NewMessage()
	withoutBoost.Sender = domain.Address{Address: "nobody@nowhere.com"}
	withoutBoost.ReceivedAt = time.Now()

	withBoost := domain.NewMessage()
	withBoost.Sender = domain.Address{Address: "vip@company.com"}
	withBoost.ReceivedAt = time.Now()

	scoreWithout := a.Assess(context.Background(), &withoutBoost, idx).PriorityScore
	scoreWith := a.Assess(context.Background(), &withBoost, idx).PriorityScore

	if scoreWith <= scoreWithout {
		t.Fatalf("expected strategic boost to raise score: without=%v with=%v", scoreWithout, scoreWith)
	}
}

func TestTriageAnalyzer_RecencyDecaysOverTime(t *testing.T) {
	a := &TriageAnalyzer{}

	recent := domain.NewMessage()
	recent.ReceivedAt = time.Now().Add(-30 * time.Minute)

	old := domain.NewMessage()
	old.ReceivedAt = time.Now().Add(-10 * 24 * time.Hour)

	idx := newFakeIndex()
	recentScore := a.Assess(context.Background(), &recent, idx).PriorityScore
	oldScore := a.Assess(context.Background(), &old, idx).PriorityScore

	if recentScore <= oldScore {
		t.Fatalf("expected recent message to score higher: recent=%v old=%v", recentScore, oldScore)
	}
}

func TestTriageAnalyzer_SenderWeightOverrideTakesPrecedence(t *testing.T) {
	idx := newFakeIndex()
	idx.senders["x@y.com"] = domain.SenderProfile{ImportanceScore: 10}
	idx.overrides["x@y.com"] = 0.95
	a := &TriageAnalyzer{}
	m := domain.NewMessage()
	m.Sender = domain.Address{Address: "x@y.com"}
	m.ReceivedAt = time.Now()

	got := a.Assess(context.Background(), &m, idx)
	if got.PriorityScore < 0.2 {
		t.Fatalf("expected the override weight to dominate the low profile score, got %v", got.PriorityScore)
	}
}
