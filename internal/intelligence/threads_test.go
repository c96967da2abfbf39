package intelligence

import (
	"testing"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

func threadMsg(threadID, subject, body string, receivedAt time.Time) domain.Message {
	m := domain.NewMessage()
	m.ThreadID = threadID
	m.Sender = domain.Address{Address: "a@x.com"}
	m.Subject = subject
	m.BodyText = body
	m.SentAt = receivedAt
	m.ReceivedAt = receivedAt
	return m
}

func TestFoldThreads_DeduplicatesSubjectEvolutionStrippingReplyPrefixes(t *testing.T) {
	next := emptySnapshot()
	now := time.Now()
	batch := []domain.Message{
		threadMsg("t1", "Launch plan", "", now),
		threadMsg("t1", "Re: Launch plan", "", now.Add(time.Hour)),
		threadMsg("t1", "Fwd: RE: Launch plan", "", now.Add(2*time.Hour)),
	}
	foldThreads(next, batch)

	p := next.Threads["t1"]
	if len(p.SubjectEvolution) != 1 || p.SubjectEvolution[0] != "Launch plan" {
		t.Fatalf("expected subject evolution deduplicated to 1 entry, got %v", p.SubjectEvolution)
	}
}

func TestFoldThreads_ClassifiesDecisionType(t *testing.T) {
	next := emptySnapshot()
	now := time.Now()
	batch := []domain.Message{
		threadMsg("t1", "Need approval to decide on vendor, sign-off needed", "", now),
	}
	foldThreads(next, batch)

	if next.Threads["t1"].ThreadType != domain.ThreadDecision {
		t.Fatalf("expected DECISION type, got %v", next.Threads["t1"].ThreadType)
	}
}

func TestClassifyThreadType_TieBreaksDeterministically(t *testing.T) {
	// "decide"/"sign-off" (DECISION) and "escalate"/"urgent" (ESCALATION)
	// each hit twice: a genuine tie that must resolve the same way on every
	// call, not depend on map iteration order.
	text := "we need to decide and sign-off, this is escalating and urgent"
	for i := 0; i < 20; i++ {
		if got := classifyThreadType(text); got != domain.ThreadDecision {
			t.Fatalf("run %d: expected a tied DECISION/ESCALATION hit count to resolve to DECISION, got %v", i, got)
		}
	}
}

func TestFoldThreads_RecentMessageIsActiveStatus(t *testing.T) {
	next := emptySnapshot()
	batch := []domain.Message{threadMsg("t1", "quick note", "", time.Now())}
	foldThreads(next, batch)

	if next.Threads["t1"].Status != domain.ThreadActive {
		t.Fatalf("expected ACTIVE status, got %v", next.Threads["t1"].Status)
	}
}

func TestFoldThreads_OldMessageIsStalledStatus(t *testing.T) {
	next := emptySnapshot()
	batch := []domain.Message{threadMsg("t1", "quick note", "", time.Now().Add(-30*24*time.Hour))}
	foldThreads(next, batch)

	if next.Threads["t1"].Status != domain.ThreadStalled {
		t.Fatalf("expected STALLED status, got %v", next.Threads["t1"].Status)
	}
}

func TestFoldThreads_ExplicitResolvedMarkerOverridesRecency(t *testing.T) {
	next := emptySnapshot()
	batch := []domain.Message{threadMsg("t1", "This is resolved now, thanks", "", time.Now())}
	foldThreads(next, batch)

	if next.Threads["t1"].Status != domain.ThreadResolved {
		t.Fatalf("expected RESOLVED status from explicit marker, got %v", next.Threads["t1"].Status)
	}
}

func TestFoldThreads_ExtractsDecisionsOpenActionsAndWaitingFor(t *testing.T) {
	next := emptySnapshot()
	body := "Decision: go with vendor B\nAction Item: send contract\nWaiting on: legal sign-off"
	batch := []domain.Message{threadMsg("t1", "status", body, time.Now())}
	foldThreads(next, batch)

	p := next.Threads["t1"]
	if len(p.Decisions) != 1 || p.Decisions[0] != "go with vendor B" {
		t.Fatalf("expected decision extracted, got %v", p.Decisions)
	}
	if len(p.OpenActions) != 1 || p.OpenActions[0] != "send contract" {
		t.Fatalf("expected open action extracted, got %v", p.OpenActions)
	}
	if len(p.WaitingFor) != 1 || p.WaitingFor[0] != "legal sign-off" {
		t.Fatalf("expected waiting-for extracted, got %v", p.WaitingFor)
	}
}

func TestFoldThreads_AccumulatesParticipantsAcrossCalls(t *testing.T) {
	next := emptySnapshot()
	m1 := threadMsg("t1", "hi", "", time.Now())
	m1.Sender = domain.Address{Address: "a@x.com"}
	m2 := threadMsg("t1", "reply", "", time.Now().Add(time.Hour))
	m2.Sender = domain.Address{Address: "b@x.com"}

	foldThreads(next, []domain.Message{m1})
	foldThreads(next, []domain.Message{m2})

	p := next.Threads["t1"]
	if len(p.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %v", p.Participants)
	}
}

func TestResponseRhythmFor_FastMedianGapIsFastRhythm(t *testing.T) {
	gaps := []time.Duration{2 * time.Hour, 3 * time.Hour, 4 * time.Hour}
	if got := responseRhythmFor(gaps); got != domain.RhythmFast {
		t.Fatalf("expected FAST, got %v", got)
	}
}

func TestResponseRhythmFor_NoGapsIsNormal(t *testing.T) {
	if got := responseRhythmFor(nil); got != domain.RhythmNormal {
		t.Fatalf("expected NORMAL default, got %v", got)
	}
}
