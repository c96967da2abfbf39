package domain

import (
	"fmt"
	"time"
)

// CoreError is the structured error shape carried through the pipeline
// (§7 "Error Handling Design"). It wraps an ErrorKind with the phase and
// message it occurred on, so Store.RecordError can persist a useful
// structured log entry.
type CoreError struct {
	Kind      ErrorKind
	Phase     string
	MessageID string
	Attempt   int
	Err       error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s in phase %s (message=%s attempt=%d): %v", e.Kind, e.Phase, e.MessageID, e.Attempt, e.Err)
	}
	return fmt.Sprintf("%s in phase %s (message=%s attempt=%d)", e.Kind, e.Phase, e.MessageID, e.Attempt)
}

func (e *CoreError) Unwrap() error { return e.Err }

// NewCoreError builds a CoreError for the given kind/phase/message/attempt.
func NewCoreError(kind ErrorKind, phase, messageID string, attempt int, err error) *CoreError {
	return &CoreError{Kind: kind, Phase: phase, MessageID: messageID, Attempt: attempt, Err: err}
}

// ErrorLogEntry is the persisted shape of a CoreError, one row per failure,
// per §7 "Persist all transient failures to a structured error log".
type ErrorLogEntry struct {
	ID        string    `json:"id" db:"id"`
	Kind      ErrorKind `json:"kind" db:"kind"`
	Phase     string    `json:"phase" db:"phase"`
	MessageID string    `json:"message_id" db:"message_id"`
	Attempt   int       `json:"attempt" db:"attempt"`
	Detail    string    `json:"detail" db:"detail"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}
