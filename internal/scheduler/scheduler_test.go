package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/inbox-agent/internal/analyzers"
	"github.com/ignite/inbox-agent/internal/brief"
	"github.com/ignite/inbox-agent/internal/collaborator"
	"github.com/ignite/inbox-agent/internal/connector"
	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/intelligence"
	"github.com/ignite/inbox-agent/internal/learner"
	"github.com/ignite/inbox-agent/internal/rules"
)

// fakeConnector is a minimal connector.Connector double for exercising the
// pull/apply phases without a real fixture file.
type fakeConnector struct {
	pullMessages []domain.Message
	pullNext     time.Time
	pullErr      error

	markedRead map[string]bool
	archived   map[string]bool
	labels     map[string][]string
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		markedRead: map[string]bool{},
		archived:   map[string]bool{},
		labels:     map[string][]string{},
	}
}

func (c *fakeConnector) Authenticate(ctx context.Context) error { return nil }
func (c *fakeConnector) Pull(ctx context.Context, since time.Time) ([]domain.Message, time.Time, error) {
	if c.pullErr != nil {
		return nil, time.Time{}, c.pullErr
	}
	return c.pullMessages, c.pullNext, nil
}
func (c *fakeConnector) GetMessage(ctx context.Context, externalID string) (domain.Message, error) {
	return domain.Message{}, connector.ErrNotFound
}
func (c *fakeConnector) MarkRead(ctx context.Context, externalID string, read bool) error {
	c.markedRead[externalID] = read
	return nil
}
func (c *fakeConnector) Archive(ctx context.Context, externalID string) error {
	c.archived[externalID] = true
	return nil
}
func (c *fakeConnector) ApplyLabels(ctx context.Context, externalID string, addLabels, removeLabels []string) error {
	c.labels[externalID] = append(c.labels[externalID], addLabels...)
	return nil
}
func (c *fakeConnector) ListLabels(ctx context.Context) ([]string, error) { return nil, nil }
func (c *fakeConnector) Capabilities() connector.Capabilities {
	return connector.Capabilities{SupportsPush: false, SupportsLabels: true}
}

// fakeAnalyzer returns a fixed Assessment regardless of input.
type fakeAnalyzer struct {
	name       string
	assessment domain.Assessment
}

func (a *fakeAnalyzer) Name() string { return a.name }
func (a *fakeAnalyzer) Assess(ctx context.Context, m *domain.Message, idx analyzers.IndexReader) domain.Assessment {
	return a.assessment
}

// fixedRulesProvider always returns the same Engine.
type fixedRulesProvider struct{ engine *rules.Engine }

func (p fixedRulesProvider) Current() *rules.Engine { return p.engine }

func newTestIndex(s *memStore) *intelligence.Index {
	return intelligence.NewIndex(s, alwaysAcquireLock{}, nil, intelligence.Config{})
}

func testConfig() Config {
	return Config{
		ConnectorName:              "fixture",
		PullInterval:               time.Hour,
		PullBatchSize:              100,
		AnalyzePoolSize:            2,
		AnalyzeQueueMultiple:       4,
		ApplyInterval:              time.Hour,
		BriefCutoffHourLocal:       20,
		ShutdownGrace:              time.Second,
		RateLimitBackoffSeconds:    30,
		RateLimitBackoffCapSeconds: 600,
	}
}

func newTestScheduler(st *memStore, conn *fakeConnector, a []analyzers.Analyzer) *Scheduler {
	idx := newTestIndex(st)
	collab := collaborator.New(collaborator.Policy{
		PriorityThreshold:   0.7,
		ArchiveThreshold:    0.4,
		EscalationThreshold: 0.7,
	})
	briefGen := &brief.Generator{}
	return New(testConfig(), st, conn, idx, fixedRulesProvider{engine: rules.NewEngine(nil)}, a, collab, nil, briefGen, nil)
}

func TestPullOnce_PersistsMessagesAndAdvancesWatermark(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	base := time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC)
	conn.pullMessages = []domain.Message{
		{ExternalID: "ext-1", Sender: domain.Address{Address: "a@x.com"}, SentAt: base, ReceivedAt: base,
			Category: domain.CategoryPrimary, Priority: domain.PriorityNormal},
	}
	conn.pullNext = base

	s := newTestScheduler(st, conn, nil)
	s.pullOnce(context.Background())

	if len(st.messages) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(st.messages))
	}
	wm, _ := st.GetWatermark(context.Background(), "fixture")
	if !wm.Equal(base) {
		t.Fatalf("expected watermark advanced to %v, got %v", base, wm)
	}
	select {
	case id := <-s.analyzeQueue:
		if id == "" {
			t.Fatal("expected a non-empty queued message ID")
		}
	default:
		t.Fatal("expected the persisted message to be queued for analysis")
	}
}

func TestPullOnce_AuthErrorDoesNotAdvanceWatermark(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	conn.pullErr = connector.ErrAuth

	s := newTestScheduler(st, conn, nil)
	s.pullOnce(context.Background())

	wm, _ := st.GetWatermark(context.Background(), "fixture")
	if !wm.IsZero() {
		t.Fatalf("expected watermark to stay zero on auth error, got %v", wm)
	}
	if len(st.errors) != 1 || st.errors[0].Kind != domain.ErrKindConnectorAuth {
		t.Fatalf("expected one ConnectorAuthError log entry, got %+v", st.errors)
	}
}

func TestPullOnce_TransientErrorAppliesBackoff(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	conn.pullErr = errors.New("rate limited")

	s := newTestScheduler(st, conn, nil)
	s.pullOnce(context.Background())

	if !s.pullBackoffActive() {
		t.Fatal("expected backoff to be active after a transient pull error")
	}
}

func TestAnalyzeOne_PersistsDecisionAndStampsMessage(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	a := []analyzers.Analyzer{
		&fakeAnalyzer{name: "strategic", assessment: domain.Assessment{AnalyzerName: "strategic", PriorityScore: 0.8, Confidence: 0.9, Urgency: domain.UrgencyHigh}},
	}
	s := newTestScheduler(st, conn, a)

	m := domain.NewMessage()
	m.ExternalID = "ext-1"
	id, _ := st.UpsertMessage(context.Background(), &m)

	s.analyzeOne(context.Background(), id)

	stored, err := st.GetMessage(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.HasStamp(domain.StampAnalyzed) || !stored.HasStamp(domain.StampDecided) || !stored.HasStamp(domain.StampRulesApplied) {
		t.Fatalf("expected all three pipeline stamps set, got %+v", stored.ProcessingStamps)
	}
	if _, err := st.GetDecision(context.Background(), id); err != nil {
		t.Fatalf("expected a persisted decision: %v", err)
	}
}

func TestAnalyzeOne_RecordsFiredRuleIDsOnDecision(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	engine := rules.NewEngine([]domain.Rule{
		{
			ID: "urgent-subject", Name: "urgent subject", Enabled: true, Priority: 1,
			Conditions: []domain.Condition{{Field: domain.FieldSubject, Operator: domain.OpContains, Value: "urgent"}},
		},
	})
	idx := newTestIndex(st)
	collab := collaborator.New(collaborator.Policy{PriorityThreshold: 0.7, ArchiveThreshold: 0.4, EscalationThreshold: 0.7})
	s := New(testConfig(), st, conn, idx, fixedRulesProvider{engine: engine}, nil, collab, nil, &brief.Generator{}, nil)

	m := domain.NewMessage()
	m.ExternalID = "ext-1"
	m.Subject = "urgent: please review"
	id, _ := st.UpsertMessage(context.Background(), &m)

	s.analyzeOne(context.Background(), id)

	decision, err := st.GetDecision(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.FiredRuleIDs) != 1 || decision.FiredRuleIDs[0] != "urgent-subject" {
		t.Fatalf("expected FiredRuleIDs=[urgent-subject], got %v", decision.FiredRuleIDs)
	}
}

func TestRunLearnPass_GathersAnalyzedObservationsAndAdvancesCutoff(t *testing.T) {
	st := newMemStore()
	since := time.Now().Add(-time.Hour)

	m := domain.NewMessage()
	m.Sender = domain.Address{Address: "a@x.com"}
	m.ReceivedAt = time.Now()
	m.Stamp(domain.StampAnalyzed)
	id, err := st.UpsertMessage(context.Background(), &m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.ID = id
	if err := st.PutDecision(context.Background(), &domain.Decision{MessageID: id, Bucket: domain.BucketRegularInbox}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := &Scheduler{store: st, learner: learner.New(st)}
	got := s.runLearnPass(context.Background(), since)

	if !got.After(since) {
		t.Fatalf("expected the cutoff to advance past %v, got %v", since, got)
	}
}

func TestApplyDecision_ArchivesAutoArchiveBucketAndStampsMessage(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	s := newTestScheduler(st, conn, nil)

	m := domain.NewMessage()
	m.ExternalID = "ext-2"
	m.Stamp(domain.StampDecided)
	id, _ := st.UpsertMessage(context.Background(), &m)

	decision := domain.Decision{MessageID: id, Bucket: domain.BucketAutoArchive, AppliedLabels: []string{"Archived"}}
	_ = st.PutDecision(context.Background(), &decision)

	stored, _ := st.GetMessage(context.Background(), id)
	s.applyDecision(context.Background(), stored)

	if !conn.archived["ext-2"] {
		t.Fatal("expected the message to be archived via the connector")
	}
	if len(conn.labels["ext-2"]) != 1 {
		t.Fatalf("expected the applied label to be pushed, got %+v", conn.labels)
	}
	after, _ := st.GetMessage(context.Background(), id)
	if !after.HasStamp(domain.StampLabelsPushed) {
		t.Fatal("expected labelsPushed stamp after a successful apply")
	}
}

func TestApplyDecision_SkipsMessagesNotYetDecided(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	s := newTestScheduler(st, conn, nil)

	m := domain.NewMessage()
	m.ExternalID = "ext-3"
	id, _ := st.UpsertMessage(context.Background(), &m)
	stored, _ := st.GetMessage(context.Background(), id)

	s.applyDecision(context.Background(), stored)

	if conn.archived["ext-3"] || len(conn.labels["ext-3"]) != 0 {
		t.Fatal("expected no connector calls for an undecided message")
	}
}

func TestMaybeRunBrief_WaitsUntilAllMessagesAnalyzed(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	s := newTestScheduler(st, conn, nil)

	today := time.Now().UTC()
	m := domain.NewMessage()
	m.ExternalID = "ext-4"
	m.ReceivedAt = today
	// not stamped analyzed
	_, _ = st.UpsertMessage(context.Background(), &m)

	result := s.maybeRunBrief(context.Background(), "")
	if result != "" {
		t.Fatalf("expected brief to wait on unanalyzed messages, got %q", result)
	}
	if len(st.briefs) != 0 {
		t.Fatal("expected no brief to be persisted yet")
	}
}

func TestMaybeRunBrief_GeneratesOnceAllMessagesAnalyzed(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	s := newTestScheduler(st, conn, nil)

	today := time.Now().UTC()
	m := domain.NewMessage()
	m.ExternalID = "ext-5"
	m.ReceivedAt = today
	m.Stamp(domain.StampAnalyzed)
	_, _ = st.UpsertMessage(context.Background(), &m)

	s.cfg.BriefCutoffHourLocal = 0
	result := s.maybeRunBrief(context.Background(), "")
	if result == "" {
		t.Fatal("expected a brief to be generated once all messages are analyzed")
	}
	if len(st.briefs) != 1 {
		t.Fatalf("expected one persisted brief, got %d", len(st.briefs))
	}
}

func TestMaybeRunBrief_DoesNotRegenerateSameDay(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	s := newTestScheduler(st, conn, nil)
	s.cfg.BriefCutoffHourLocal = 0

	dateUTC := time.Now().UTC().Format("2006-01-02")
	result := s.maybeRunBrief(context.Background(), dateUTC)
	if result != dateUTC {
		t.Fatalf("expected maybeRunBrief to no-op for an already-briefed date, got %q", result)
	}
}

func TestBriefForDate_ReturnsErrBriefNotReadyWhenMessagesUnanalyzed(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	s := newTestScheduler(st, conn, nil)

	m := domain.NewMessage()
	m.ExternalID = "ext-6"
	m.ReceivedAt = time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC)
	_, _ = st.UpsertMessage(context.Background(), &m)

	_, err := s.BriefForDate(context.Background(), "2026-07-20")
	if !errors.Is(err, ErrBriefNotReady) {
		t.Fatalf("expected ErrBriefNotReady, got %v", err)
	}
}

func TestBriefForDate_GeneratesWhenAllMessagesAnalyzed(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	s := newTestScheduler(st, conn, nil)

	m := domain.NewMessage()
	m.ExternalID = "ext-7"
	m.ReceivedAt = time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC)
	m.Stamp(domain.StampAnalyzed)
	_, _ = st.UpsertMessage(context.Background(), &m)

	b, err := s.BriefForDate(context.Background(), "2026-07-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.DateUTC != "2026-07-20" {
		t.Fatalf("expected brief for requested date, got %q", b.DateUTC)
	}
}

func TestTriageBatch_DryRunDoesNotPersistDecisionsOrStamps(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	a := []analyzers.Analyzer{
		&fakeAnalyzer{name: "strategic", assessment: domain.Assessment{AnalyzerName: "strategic", PriorityScore: 0.8, Confidence: 0.9, Urgency: domain.UrgencyHigh}},
	}
	s := newTestScheduler(st, conn, a)

	m := domain.NewMessage()
	m.ExternalID = "ext-8"
	id, _ := st.UpsertMessage(context.Background(), &m)

	decisions, err := s.TriageBatch(context.Background(), 10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected 1 previewed decision, got %d", len(decisions))
	}

	stored, _ := st.GetMessage(context.Background(), id)
	if stored.HasStamp(domain.StampAnalyzed) {
		t.Fatal("expected dry-run triage to leave the message unstamped")
	}
	if _, err := st.GetDecision(context.Background(), id); err == nil {
		t.Fatal("expected dry-run triage to leave no persisted decision")
	}
}

func TestTriageBatch_PersistsWhenNotDryRun(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	a := []analyzers.Analyzer{
		&fakeAnalyzer{name: "strategic", assessment: domain.Assessment{AnalyzerName: "strategic", PriorityScore: 0.8, Confidence: 0.9, Urgency: domain.UrgencyHigh}},
	}
	s := newTestScheduler(st, conn, a)

	m := domain.NewMessage()
	m.ExternalID = "ext-9"
	id, _ := st.UpsertMessage(context.Background(), &m)

	decisions, err := s.TriageBatch(context.Background(), 10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(decisions))
	}

	stored, _ := st.GetMessage(context.Background(), id)
	if !stored.HasStamp(domain.StampAnalyzed) {
		t.Fatal("expected a non-dry-run triage to stamp the message analyzed")
	}
	if _, err := st.GetDecision(context.Background(), id); err != nil {
		t.Fatalf("expected a persisted decision: %v", err)
	}
}

func TestPullOnce_ReturnsCountOfPersistedMessages(t *testing.T) {
	st := newMemStore()
	conn := newFakeConnector()
	base := time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC)
	conn.pullMessages = []domain.Message{
		{ExternalID: "ext-10", Sender: domain.Address{Address: "a@x.com"}, SentAt: base, ReceivedAt: base,
			Category: domain.CategoryPrimary, Priority: domain.PriorityNormal},
	}
	conn.pullNext = base

	s := newTestScheduler(st, conn, nil)
	n, err := s.PullOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 message persisted, got %d", n)
	}
}
