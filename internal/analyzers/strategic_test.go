package analyzers

import (
	"context"
	"testing"

	"github.com/ignite/inbox-agent/internal/domain"
)

func TestStrategicAnalyzer_NoProfileIsLowConfidence(t *testing.T) {
	a := &StrategicAnalyzer{}
	m := domain.NewMessage()
	m.Sender = domain.Address{Address: "stranger@nowhere.com"}

	got := a.Assess(context.Background(), &m, newFakeIndex())
	if got.Confidence >= 0.5 {
		t.Fatalf("expected low confidence on missing profile, got %v", got.Confidence)
	}
}

func TestStrategicAnalyzer_CriticalClassYieldsVeryHighConfidence(t *testing.T) {
	idx := newFakeIndex()
	idx.senders["ceo@company.com"] = domain.SenderProfile{
		Address: "ceo@company.com", ImportanceScore: 90, StrategicClass: domain.StrategicCritical, TotalMessages: 50,
	}
	a := &StrategicAnalyzer{}
	m := domain.NewMessage()
	m.Sender = domain.Address{Address: "ceo@company.com"}

	got := a.Assess(context.Background(), &m, idx)
	if got.Confidence != 0.95 {
		t.Fatalf("expected 0.95 confidence for CRITICAL class, got %v", got.Confidence)
	}
	if got.PriorityScore <= 0.9 {
		t.Fatalf("expected a nudged-up score near 0.9+importanceScore, got %v", got.PriorityScore)
	}
}

func TestStrategicAnalyzer_LLMUnavailableFallsBackToProfileOnlyAssessment(t *testing.T) {
	idx := newFakeIndex()
	idx.senders["vip@company.com"] = domain.SenderProfile{
		Address: "vip@company.com", ImportanceScore: 70, StrategicClass: domain.StrategicHigh, TotalMessages: 8,
	}
	a := &StrategicAnalyzer{LLM: &erroringLLM{}}
	m := domain.NewMessage()
	m.Sender = domain.Address{Address: "vip@company.com"}

	got := a.Assess(context.Background(), &m, idx)
	if got.PriorityScore <= 0 {
		t.Fatal("expected a non-zero score even when the LLM errors")
	}
}
