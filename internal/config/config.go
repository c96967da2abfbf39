package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the inbox intelligence agent.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Cache       CacheConfig       `yaml:"cache"`
	Connector   ConnectorConfig   `yaml:"connector"`
	Bedrock     BedrockConfig     `yaml:"bedrock"`
	Policy      PolicyConfig      `yaml:"policy"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Analyzers   AnalyzersConfig   `yaml:"analyzers"`
	Learner     LearnerConfig     `yaml:"learner"`
	BriefExport BriefExportConfig `yaml:"brief_export"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// StoreConfig holds the durable Postgres store configuration.
type StoreConfig struct {
	DatabaseURL     string `yaml:"database_url"`
	MigrationsPath  string `yaml:"migrations_path"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
}

// CacheConfig holds the Redis-backed IntelligenceIndex snapshot cache config.
type CacheConfig struct {
	Enabled      bool   `yaml:"enabled"`
	RedisURL     string `yaml:"redis_url"`
	SnapshotTTLSeconds int `yaml:"snapshot_ttl_seconds"`
}

// SnapshotTTL returns SnapshotTTLSeconds as a duration. The composition root
// uses it as the TTL of the IntelligenceIndex refresh lock; the Redis
// snapshot cache itself keeps entries for a fixed two hours.
func (c CacheConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

// ConnectorConfig points at the fixture/reference Connector's backing data.
// Real provider adapters (auth flow, paging, format decoding) are out of
// scope (spec §1) — this only configures the deterministic reference
// implementation used for local runs and tests.
type ConnectorConfig struct {
	FixturePath string `yaml:"fixture_path"`
}

// BedrockConfig holds AWS Bedrock settings for the LLM capability adapter.
type BedrockConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Region         string `yaml:"region"`
	ModelID        string `yaml:"model_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-call LLM timeout, defaulting to the §5 value of 30s.
func (c BedrockConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PolicyConfig holds the Collaborator's tunable bucket/escalation thresholds
// and the strategic-sender reference lists (§4.3.2, §4.5).
type PolicyConfig struct {
	PriorityThreshold    float64  `yaml:"priority_threshold"`
	ArchiveThreshold     float64  `yaml:"archive_threshold"`
	EscalationThreshold  float64  `yaml:"escalation_threshold"`
	AutoArchiveCategories []string `yaml:"auto_archive_categories"`
	VIPAddresses         []string `yaml:"vip_addresses"`
	StrategicDomains     map[string]string `yaml:"strategic_domains"` // domain -> RelationshipClass
	InternalDomains      []string `yaml:"internal_domains"`
}

// SchedulerConfig holds the pull/analyze/apply/brief phase configuration
// (§4.7, §5).
type SchedulerConfig struct {
	PullIntervalSeconds int `yaml:"pull_interval_seconds"`
	PullBatchSize       int `yaml:"pull_batch_size"`
	AnalyzeQueueMultiple int `yaml:"analyze_queue_multiple"` // bound = multiple * pool size
	ApplyIntervalSeconds int `yaml:"apply_interval_seconds"`
	BriefCutoffHourLocal int `yaml:"brief_cutoff_hour_local"`
	LearnIntervalSeconds int `yaml:"learn_interval_seconds"`
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds"`
	RateLimitBackoffSeconds int `yaml:"rate_limit_backoff_seconds"`
	RateLimitBackoffCapSeconds int `yaml:"rate_limit_backoff_cap_seconds"`
}

// PullInterval returns the pull phase tick interval.
func (c SchedulerConfig) PullInterval() time.Duration {
	return time.Duration(c.PullIntervalSeconds) * time.Second
}

// ApplyInterval returns the apply phase tick interval.
func (c SchedulerConfig) ApplyInterval() time.Duration {
	return time.Duration(c.ApplyIntervalSeconds) * time.Second
}

// LearnInterval returns the learn phase tick interval (§4.6 periodic rule
// synthesis).
func (c SchedulerConfig) LearnInterval() time.Duration {
	return time.Duration(c.LearnIntervalSeconds) * time.Second
}

// ShutdownGrace returns the drain grace period before cancellation (§5).
func (c SchedulerConfig) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}

// AnalyzersConfig controls the analyzer worker pool (§5).
type AnalyzersConfig struct {
	PoolSize int `yaml:"pool_size"` // 0 = number of cores
}

// LearnerConfig holds FeedbackLearner tunables (§4.6).
type LearnerConfig struct {
	LearningRate              float64 `yaml:"learning_rate"`
	PatternConfidenceThreshold float64 `yaml:"pattern_confidence_threshold"`
}

// BriefExportConfig controls optional S3 export of generated narrative
// briefs (SPEC_FULL §4.8/§10).
type BriefExportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII bool   `yaml:"redact_pii"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.MaxOpenConns == 0 {
		cfg.Store.MaxOpenConns = 10
	}
	if cfg.Store.MigrationsPath == "" {
		cfg.Store.MigrationsPath = "internal/store/postgres/migrations"
	}
	if cfg.Cache.SnapshotTTLSeconds == 0 {
		cfg.Cache.SnapshotTTLSeconds = 300
	}
	if cfg.Bedrock.Region == "" {
		cfg.Bedrock.Region = "us-east-1"
	}
	if cfg.Bedrock.ModelID == "" {
		cfg.Bedrock.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Bedrock.TimeoutSeconds == 0 {
		cfg.Bedrock.TimeoutSeconds = 30
	}
	if cfg.Policy.PriorityThreshold == 0 {
		cfg.Policy.PriorityThreshold = 0.7
	}
	if cfg.Policy.ArchiveThreshold == 0 {
		cfg.Policy.ArchiveThreshold = 0.4
	}
	if cfg.Policy.EscalationThreshold == 0 {
		cfg.Policy.EscalationThreshold = 0.70
	}
	if len(cfg.Policy.AutoArchiveCategories) == 0 {
		cfg.Policy.AutoArchiveCategories = []string{"PROMOTIONS", "SOCIAL", "UPDATES"}
	}
	if cfg.Scheduler.PullIntervalSeconds == 0 {
		cfg.Scheduler.PullIntervalSeconds = 60
	}
	if cfg.Scheduler.PullBatchSize == 0 {
		cfg.Scheduler.PullBatchSize = 100
	}
	if cfg.Scheduler.AnalyzeQueueMultiple == 0 {
		cfg.Scheduler.AnalyzeQueueMultiple = 4
	}
	if cfg.Scheduler.ApplyIntervalSeconds == 0 {
		cfg.Scheduler.ApplyIntervalSeconds = 30
	}
	if cfg.Scheduler.LearnIntervalSeconds == 0 {
		cfg.Scheduler.LearnIntervalSeconds = 3600
	}
	if cfg.Scheduler.ShutdownGraceSeconds == 0 {
		cfg.Scheduler.ShutdownGraceSeconds = 20
	}
	if cfg.Scheduler.RateLimitBackoffSeconds == 0 {
		cfg.Scheduler.RateLimitBackoffSeconds = 30
	}
	if cfg.Scheduler.RateLimitBackoffCapSeconds == 0 {
		cfg.Scheduler.RateLimitBackoffCapSeconds = 600
	}
	if cfg.Learner.LearningRate == 0 {
		cfg.Learner.LearningRate = 0.2
	}
	if cfg.Learner.PatternConfidenceThreshold == 0 {
		cfg.Learner.PatternConfidenceThreshold = 0.7
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
		cfg.Cache.Enabled = true
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Bedrock.Region = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Bedrock.ModelID = v
	}
	if v := os.Getenv("BRIEF_EXPORT_BUCKET"); v != "" {
		cfg.BriefExport.Bucket = v
		cfg.BriefExport.Enabled = true
	}
	if v := os.Getenv("CONNECTOR_FIXTURE_PATH"); v != "" {
		cfg.Connector.FixturePath = v
	}

	return cfg, nil
}
