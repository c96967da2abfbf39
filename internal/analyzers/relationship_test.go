package analyzers

import (
	"context"
	"testing"

	"github.com/ignite/inbox-agent/internal/domain"
)

func TestRelationshipAnalyzer_UsesProfileClassWhenKnown(t *testing.T) {
	idx := newFakeIndex()
	idx.senders["founder@startup.com"] = domain.SenderProfile{RelationshipClass: domain.RelationshipFounder}
	a := &RelationshipAnalyzer{}
	m := domain.NewMessage()
	m.Sender = domain.Address{Address: "founder@startup.com"}

	got := a.Assess(context.Background(), &m, idx)
	if got.PriorityScore != 0.98 {
		t.Fatalf("expected FOUNDER score 0.98, got %v", got.PriorityScore)
	}
}

func TestRelationshipAnalyzer_FallsBackToStrategicDomainMap(t *testing.T) {
	a := &RelationshipAnalyzer{StrategicDomains: map[string]domain.RelationshipClass{
		"bigcustomer.com": domain.RelationshipCustomer,
	}}
	m := domain.NewMessage()
	m.Sender = domain.Address{Address: "new-contact@bigcustomer.com"}

	got := a.Assess(context.Background(), &m, newFakeIndex())
	if got.PriorityScore != relationshipScores[domain.RelationshipCustomer] {
		t.Fatalf("expected CUSTOMER score from domain fallback, got %v", got.PriorityScore)
	}
}

func TestRelationshipAnalyzer_UnknownWhenNeitherAvailable(t *testing.T) {
	a := &RelationshipAnalyzer{}
	m := domain.NewMessage()
	m.Sender = domain.Address{Address: "stranger@example.com"}

	got := a.Assess(context.Background(), &m, newFakeIndex())
	if got.PriorityScore != relationshipScores[domain.RelationshipUnknown] {
		t.Fatalf("expected UNKNOWN score, got %v", got.PriorityScore)
	}
}
