// Package scheduler is the composition root (§4.7, §5): it owns the
// Connector, Store, IntelligenceIndex, RulesEngine, Analyzers, Collaborator
// and FeedbackLearner, and drives the pull → analyze → apply → brief →
// learn pipeline phases as independent, cancellable worker loops —
// grounded on the teacher's internal/automation.FlowEngine ticker-driven
// Start/Stop shape, generalized from one flow-execution loop to five
// pipeline phases.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/inbox-agent/internal/analyzers"
	"github.com/ignite/inbox-agent/internal/brief"
	"github.com/ignite/inbox-agent/internal/collaborator"
	"github.com/ignite/inbox-agent/internal/connector"
	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/intelligence"
	"github.com/ignite/inbox-agent/internal/learner"
	"github.com/ignite/inbox-agent/internal/pkg/backoff"
	"github.com/ignite/inbox-agent/internal/pkg/logger"
	"github.com/ignite/inbox-agent/internal/rules"
	"github.com/ignite/inbox-agent/internal/store"
)

// Config holds the phase tunables from config.SchedulerConfig plus the
// connector name used as the watermark key.
type Config struct {
	ConnectorName              string
	PullInterval               time.Duration
	PullBatchSize              int
	AnalyzePoolSize            int
	AnalyzeQueueMultiple       int
	ApplyInterval              time.Duration
	BriefCutoffHourLocal       int
	LearnInterval              time.Duration
	ShutdownGrace              time.Duration
	RateLimitBackoffSeconds    int
	RateLimitBackoffCapSeconds int
}

func (c Config) analyzeQueueBound() int {
	poolSize := c.AnalyzePoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	multiple := c.AnalyzeQueueMultiple
	if multiple <= 0 {
		multiple = 4
	}
	return poolSize * multiple
}

func (c Config) backoffPolicy() backoff.Policy {
	base := time.Duration(c.RateLimitBackoffSeconds) * time.Second
	maxDelay := time.Duration(c.RateLimitBackoffCapSeconds) * time.Second
	if base <= 0 {
		base = backoff.DefaultPolicy.BaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = backoff.DefaultPolicy.MaxDelay
	}
	return backoff.Policy{BaseDelay: base, MaxDelay: maxDelay}
}

// RulesEngineProvider returns the current versioned rule-evaluation handle
// (§5 "Rule list is read under a versioned handle; edits produce a new
// version"). internal/rules.Engine is immutable once built, so "a new
// version" means the provider swaps to a freshly built Engine rather than
// the Scheduler mutating one in place.
type RulesEngineProvider interface {
	Current() *rules.Engine
}

// Scheduler orchestrates the pull/analyze/apply/brief phases (§4.7).
type Scheduler struct {
	cfg          Config
	store        store.Store
	connector    connector.Connector
	index        *intelligence.Index
	rulesProv    RulesEngineProvider
	analyzers    []analyzers.Analyzer
	collaborator *collaborator.Collaborator
	learner      *learner.Learner
	brief        *brief.Generator
	briefExport  briefExporter
	policyVersion int

	cancel context.CancelFunc
	wg     sync.WaitGroup

	analyzeQueue chan string // message IDs awaiting analysis

	mu             sync.Mutex
	backoffUntil   time.Time
	backoffAttempt int
}

// briefExporter is the narrow interface brief.S3Exporter satisfies, kept
// local so this package doesn't force an S3 dependency on callers that
// disable export (config.BriefExportConfig.Enabled=false).
type briefExporter interface {
	Export(ctx context.Context, b domain.DailyBrief) error
}

// New builds a Scheduler. analyzers and the learner/collaborator/brief
// generator are constructed by the caller (cmd/ composition) and passed in
// fully wired, per the teacher's "dependencies received explicitly" style.
func New(
	cfg Config,
	s store.Store,
	c connector.Connector,
	idx *intelligence.Index,
	rulesProv RulesEngineProvider,
	analyzerList []analyzers.Analyzer,
	collab *collaborator.Collaborator,
	l *learner.Learner,
	briefGen *brief.Generator,
	briefExp briefExporter,
) *Scheduler {
	return &Scheduler{
		cfg:           cfg,
		store:         s,
		connector:     c,
		index:         idx,
		rulesProv:     rulesProv,
		analyzers:     analyzerList,
		collaborator:  collab,
		learner:       l,
		brief:         briefGen,
		briefExport:   briefExp,
		policyVersion: 1,
		analyzeQueue:  make(chan string, cfg.analyzeQueueBound()),
	}
}

// Start launches the five phase loops and returns immediately; call Stop to
// drain and cancel them.
func (s *Scheduler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.wg.Add(5)
	go s.runPullLoop(ctx)
	go s.runAnalyzeLoop(ctx)
	go s.runApplyLoop(ctx)
	go s.runBriefLoop(ctx)
	go s.runLearnLoop(ctx)
}

// Stop cancels all phase loops and waits up to ShutdownGrace for in-flight
// work to drain (§5 "A shutdown signal drains in-flight work up to a grace
// period, then cancels").
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownGrace):
		logger.Warn("scheduler shutdown grace period elapsed, cancelling in-flight work")
	}
	s.cancel()
	<-done
}

func (s *Scheduler) recordError(ctx context.Context, kind domain.ErrorKind, phase, messageID string, attempt int, err error) {
	logger.Error("pipeline error", "kind", string(kind), "phase", phase, "message_id", messageID, "attempt", attempt, "error", err.Error())
	entry := domain.ErrorLogEntry{
		Kind:       kind,
		Phase:      phase,
		MessageID:  messageID,
		Attempt:    attempt,
		Detail:     err.Error(),
		OccurredAt: time.Now(),
	}
	if recErr := s.store.RecordError(ctx, &entry); recErr != nil {
		logger.Error("failed to record structured error log entry", "error", recErr.Error())
	}
}
