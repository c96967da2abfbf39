package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/inbox-agent/internal/analyzers"
	"github.com/ignite/inbox-agent/internal/brief"
	"github.com/ignite/inbox-agent/internal/collaborator"
	"github.com/ignite/inbox-agent/internal/config"
	"github.com/ignite/inbox-agent/internal/connector/fixture"
	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/intelligence"
	"github.com/ignite/inbox-agent/internal/learner"
	"github.com/ignite/inbox-agent/internal/llm"
	"github.com/ignite/inbox-agent/internal/pkg/distlock"
	"github.com/ignite/inbox-agent/internal/pkg/logger"
	"github.com/ignite/inbox-agent/internal/rules"
	"github.com/ignite/inbox-agent/internal/scheduler"
	"github.com/ignite/inbox-agent/internal/store"
	"github.com/ignite/inbox-agent/internal/store/postgres"
)

// storeRulesProvider satisfies scheduler.RulesEngineProvider by rebuilding
// an immutable rules.Engine from the Store's current rule set on every
// Reload, then replacing the cur pointer with a plain field assignment (no
// lock is taken). This is the concrete "versioned handle" the scheduler's
// provider interface assumes.
type storeRulesProvider struct {
	s   store.Store
	cur *rules.Engine
}

func newStoreRulesProvider(ctx context.Context, s store.Store) (*storeRulesProvider, error) {
	p := &storeRulesProvider{s: s}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *storeRulesProvider) Current() *rules.Engine { return p.cur }

// Reload rebuilds the engine from the Store's rule set, seeding built-ins on
// a first run where the Store has none yet (§4.2 "ships with a fixed set of
// built-in rules").
func (p *storeRulesProvider) Reload(ctx context.Context) error {
	rs, err := p.s.ListRules(ctx, false)
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	if len(rs) == 0 {
		rs = rules.Builtins()
		for i := range rs {
			if err := p.s.PutRule(ctx, &rs[i]); err != nil {
				return fmt.Errorf("seed builtin rule %s: %w", rs[i].ID, err)
			}
		}
	}
	p.cur = rules.NewEngine(rs)
	return nil
}

// app is the composition root: every long-lived dependency the CLI's
// subcommands need, wired once from config.Config (teacher's cmd/worker
// builds its dependency graph the same explicit, no-DI-framework way).
type app struct {
	cfg *config.Config

	store     store.Store
	connector *fixture.Fixture
	index     *intelligence.Index
	rulesProv *storeRulesProvider
	collab    *collaborator.Collaborator
	learner   *learner.Learner
	briefGen  *brief.Generator
	sched     *scheduler.Scheduler
}

// newApp wires the full dependency graph from cfg. The LLM capability and
// brief export are optional: when Bedrock/BriefExport are disabled in
// config, their slots stay nil and the code they back degrades per §7
// (LLMUnavailable) rather than failing startup.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger.SetLevel(levelFromString(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.RedactPII)

	st, err := postgres.Open(cfg.Store.DatabaseURL, cfg.Store.MigrationsPath, cfg.Store.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	conn, err := fixture.Load(cfg.Connector.FixturePath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load connector fixture: %w", err)
	}

	var cache *intelligence.RedisCache
	var lock distlock.DistLock = distlock.NewLock(nil, st.DB(), "inbox-agent:index", cfg.Cache.SnapshotTTL())
	if cfg.Cache.Enabled && cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		cache = intelligence.NewRedisCache(client, "inbox-agent:index:snapshot")
		lock = distlock.NewLock(client, st.DB(), "inbox-agent:index", cfg.Cache.SnapshotTTL())
	}

	idx := intelligence.NewIndex(st, lock, cache, intelligence.Config{
		VIPAddresses:     cfg.Policy.VIPAddresses,
		StrategicDomains: cfg.Policy.StrategicDomains,
		InternalDomains:  cfg.Policy.InternalDomains,
	})
	if !idx.WarmFromCache(ctx) {
		if err := idx.FullRecompute(ctx); err != nil {
			logger.Warn("index full recompute failed, starting from an empty index", "error", err.Error())
		}
	}

	rulesProv, err := newStoreRulesProvider(ctx, st)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load rules: %w", err)
	}

	strategicDomains := relationshipDomainMap(cfg.Policy.StrategicDomains)

	var capability llm.Capability
	if cfg.Bedrock.Enabled {
		b, err := llm.NewBedrock(ctx, cfg.Bedrock.Region, cfg.Bedrock.ModelID)
		if err != nil {
			logger.Warn("bedrock capability unavailable, analyzers/brief will degrade", "error", err.Error())
		} else {
			capability = b
		}
	}

	analyzerList := []analyzers.Analyzer{
		&analyzers.StrategicAnalyzer{LLM: capability},
		&analyzers.TriageAnalyzer{LLM: capability, StrategicDomains: strategicDomains},
		&analyzers.RelationshipAnalyzer{StrategicDomains: strategicDomains},
		&analyzers.SpamFilter{},
		&analyzers.ThreadAnalyzer{},
	}

	collab := collaborator.New(collaborator.Policy{
		PriorityThreshold:     cfg.Policy.PriorityThreshold,
		ArchiveThreshold:      cfg.Policy.ArchiveThreshold,
		EscalationThreshold:   cfg.Policy.EscalationThreshold,
		AutoArchiveCategories: categoriesFromStrings(cfg.Policy.AutoArchiveCategories),
	})

	lrn := learner.New(st)

	briefGen := &brief.Generator{LLM: capability}

	var briefExp *brief.S3Exporter
	if cfg.BriefExport.Enabled {
		exp, err := brief.NewS3Exporter(ctx, cfg.BriefExport.Region, cfg.BriefExport.Bucket, cfg.BriefExport.Prefix)
		if err != nil {
			logger.Warn("brief export unavailable, briefs will only be stored locally", "error", err.Error())
		} else {
			briefExp = exp
		}
	}

	schedCfg := scheduler.Config{
		ConnectorName:              "fixture",
		PullInterval:               cfg.Scheduler.PullInterval(),
		PullBatchSize:              cfg.Scheduler.PullBatchSize,
		AnalyzePoolSize:            cfg.Analyzers.PoolSize,
		AnalyzeQueueMultiple:       cfg.Scheduler.AnalyzeQueueMultiple,
		ApplyInterval:              cfg.Scheduler.ApplyInterval(),
		BriefCutoffHourLocal:       cfg.Scheduler.BriefCutoffHourLocal,
		LearnInterval:              cfg.Scheduler.LearnInterval(),
		ShutdownGrace:              cfg.Scheduler.ShutdownGrace(),
		RateLimitBackoffSeconds:    cfg.Scheduler.RateLimitBackoffSeconds,
		RateLimitBackoffCapSeconds: cfg.Scheduler.RateLimitBackoffCapSeconds,
	}

	var exporter interface {
		Export(ctx context.Context, b domain.DailyBrief) error
	}
	if briefExp != nil {
		exporter = briefExp
	}

	sched := scheduler.New(schedCfg, st, conn, idx, rulesProv, analyzerList, collab, lrn, briefGen, exporter)

	return &app{
		cfg:       cfg,
		store:     st,
		connector: conn,
		index:     idx,
		rulesProv: rulesProv,
		collab:    collab,
		learner:   lrn,
		briefGen:  briefGen,
		sched:     sched,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func levelFromString(s string) logger.Level {
	switch s {
	case "DEBUG":
		return logger.DEBUG
	case "WARN":
		return logger.WARN
	case "ERROR":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

func relationshipDomainMap(m map[string]string) map[string]domain.RelationshipClass {
	out := make(map[string]domain.RelationshipClass, len(m))
	for domainName, class := range m {
		out[domainName] = domain.RelationshipClass(class)
	}
	return out
}

func categoriesFromStrings(ss []string) []domain.Category {
	out := make([]domain.Category, 0, len(ss))
	for _, s := range ss {
		out = append(out, domain.Category(s))
	}
	return out
}
