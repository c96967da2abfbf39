// Package connector defines the external mailbox adapter contract (§6
// "Connector interface"). internal/connector/fixture provides the one
// concrete, deterministic reference implementation this spec ships; real
// provider adapters (Gmail, IMAP, Graph) are out of scope.
package connector

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

// Sentinel errors a Connector method may return, distinguished so the
// Scheduler can apply §7's retry/backoff policy per kind.
var (
	ErrAuth      = errors.New("connector: authentication failed")
	ErrNotFound  = errors.New("connector: message not found")
	ErrTransient = errors.New("connector: transient failure, retry with backoff")
	ErrPermanent = errors.New("connector: permanent failure, do not retry")
)

// Capabilities reports what optional features a Connector implementation
// supports (§6 "Capabilities flags").
type Capabilities struct {
	SupportsPush   bool
	SupportsLabels bool
}

// Connector is the external mailbox adapter contract (§6). Every method
// takes a context so the Scheduler can enforce its own cancellation and
// per-call timeouts regardless of what the concrete adapter does.
// internal/connector/fixture.Fixture is the one concrete implementation
// this spec ships.
type Connector interface {
	Authenticate(ctx context.Context) error
	// Pull returns messages received since the given watermark, and the
	// watermark to resume from next time. Returns ErrTransient/ErrPermanent
	// on failure; the caller must not advance its stored watermark on error.
	Pull(ctx context.Context, since time.Time) ([]domain.Message, time.Time, error)
	GetMessage(ctx context.Context, externalID string) (domain.Message, error)
	MarkRead(ctx context.Context, externalID string, read bool) error
	Archive(ctx context.Context, externalID string) error
	ApplyLabels(ctx context.Context, externalID string, addLabels, removeLabels []string) error
	ListLabels(ctx context.Context) ([]string, error)
	Capabilities() Capabilities
}
