// Package store defines the durable persistence contract (§4.1) and its
// shared filter/pagination/stats types. Concrete backends live in
// subpackages (postgres today).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// StorageError wraps a persistence failure so callers can distinguish it
// from the ErrNotFound/ErrAlreadyExists sentinels (§7 StorageError kind).
// The pipeline phase that receives one must leave the affected message's
// processingStamps un-advanced so the next cycle retries cleanly.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// MessageFilter narrows a QueryMessages call (§4.1).
type MessageFilter struct {
	Since           time.Time
	Until           time.Time
	UnreadOnly      bool
	SenderContains  string
	FreeText        string // matched against subject/body/sender
	Category        domain.Category
	HasCategory     bool
	MissingStamp    domain.ProcessingStamp
	HasMissingStamp bool
}

// Pagination is a simple limit/offset page request.
type Pagination struct {
	Limit  int
	Offset int
}

// Stats summarizes the message store for CLI/brief consumption.
type Stats struct {
	TotalMessages     int
	UnreadCount       int
	CategoryHistogram map[domain.Category]int
}

// Store is the durable persistence layer (§4.1). Every write is
// transactional per row/entity; readers never observe partial writes.
// Concurrent writers serialize per row, readers are non-blocking.
type Store interface {
	// UpsertMessage inserts or merges on ExternalID, preserving
	// ProcessingStamps already recorded. Returns the merged message's ID.
	UpsertMessage(ctx context.Context, m *domain.Message) (string, error)
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	// QueryMessages filters/paginates, ordered by SentAt desc with a
	// stable tiebreak on ID.
	QueryMessages(ctx context.Context, filter MessageFilter, page Pagination) ([]domain.Message, error)

	PutRule(ctx context.Context, r *domain.Rule) error
	DeleteRule(ctx context.Context, id string) error
	GetRule(ctx context.Context, id string) (*domain.Rule, error)
	// ListRules returns rules sorted by Priority ascending.
	ListRules(ctx context.Context, enabledOnly bool) ([]domain.Rule, error)

	PutDecision(ctx context.Context, d *domain.Decision) error
	GetDecision(ctx context.Context, messageID string) (*domain.Decision, error)

	RecordFeedback(ctx context.Context, f *domain.Feedback) error
	ListFeedback(ctx context.Context, since time.Time) ([]domain.Feedback, error)

	PutPattern(ctx context.Context, p *domain.LearnedPattern) error
	ListPatterns(ctx context.Context, kind domain.PatternKind) ([]domain.LearnedPattern, error)

	PutBrief(ctx context.Context, b *domain.DailyBrief) error
	GetBrief(ctx context.Context, dateUTC string) (*domain.DailyBrief, error)

	// PutSenderProfile/PutThreadProfile persist IntelligenceIndex's derived
	// aggregates; IntelligenceIndex owns them, Store only caches them
	// durably (§3 "Ownership").
	PutSenderProfile(ctx context.Context, p *domain.SenderProfile) error
	GetSenderProfile(ctx context.Context, address string) (*domain.SenderProfile, error)
	PutThreadProfile(ctx context.Context, p *domain.ThreadProfile) error
	GetThreadProfile(ctx context.Context, threadID string) (*domain.ThreadProfile, error)

	// RulePerformance tracks a rule's accuracy for the feedback learner's
	// disable/enable suggestions (§4.6).
	PutRulePerformance(ctx context.Context, p *domain.RulePerformance) error
	GetRulePerformance(ctx context.Context, ruleID string) (*domain.RulePerformance, error)

	// RecordError/ListErrors persist the structured error log (§7).
	RecordError(ctx context.Context, e *domain.ErrorLogEntry) error
	ListErrors(ctx context.Context, since time.Time) ([]domain.ErrorLogEntry, error)

	// Watermark tracks the Connector pull high-water mark, advanced only
	// after the pulled batch is durably persisted (§4.7 "Pull phase").
	GetWatermark(ctx context.Context, connectorName string) (time.Time, error)
	SetWatermark(ctx context.Context, connectorName string, t time.Time) error

	Stats(ctx context.Context) (Stats, error)

	Close() error
}
