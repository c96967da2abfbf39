package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// RecordFeedback appends a correction. Feedback is never deleted or
// updated (Design Notes: "Feedback store ... append-only").
func (s *Store) RecordFeedback(ctx context.Context, f *domain.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, message_id, original_decision, corrected_bucket, user_note, stamped_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, f.ID, f.MessageID, f.OriginalDecision, f.CorrectedBucket, f.UserNote)
	if err != nil {
		return &store.StorageError{Op: "record feedback", Err: err}
	}
	return nil
}

func (s *Store) ListFeedback(ctx context.Context, since time.Time) ([]domain.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, original_decision, corrected_bucket, user_note, stamped_at
		FROM feedback WHERE stamped_at >= $1 ORDER BY stamped_at ASC
	`, since)
	if err != nil {
		return nil, &store.StorageError{Op: "list feedback", Err: err}
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.MessageID, &f.OriginalDecision, &f.CorrectedBucket, &f.UserNote, &f.StampedAt); err != nil {
			return nil, &store.StorageError{Op: "scan feedback", Err: err}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
