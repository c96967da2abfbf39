package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

func (s *Store) PutRulePerformance(ctx context.Context, p *domain.RulePerformance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_performance (rule_id, matches, accuracy)
		VALUES ($1, $2, $3)
		ON CONFLICT (rule_id) DO UPDATE SET matches = EXCLUDED.matches, accuracy = EXCLUDED.accuracy
	`, p.RuleID, p.Matches, p.Accuracy)
	if err != nil {
		return &store.StorageError{Op: "put rule performance", Err: err}
	}
	return nil
}

func (s *Store) GetRulePerformance(ctx context.Context, ruleID string) (*domain.RulePerformance, error) {
	row := s.db.QueryRowContext(ctx, `SELECT rule_id, matches, accuracy FROM rule_performance WHERE rule_id = $1`, ruleID)
	var p domain.RulePerformance
	err := row.Scan(&p.RuleID, &p.Matches, &p.Accuracy)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.StorageError{Op: "get rule performance", Err: err}
	}
	return &p, nil
}

func (s *Store) RecordError(ctx context.Context, e *domain.ErrorLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO error_log (id, kind, phase, message_id, attempt, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, e.ID, e.Kind, e.Phase, e.MessageID, e.Attempt, e.Detail)
	if err != nil {
		return &store.StorageError{Op: "record error", Err: err}
	}
	return nil
}

func (s *Store) ListErrors(ctx context.Context, since time.Time) ([]domain.ErrorLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, phase, message_id, attempt, detail, occurred_at
		FROM error_log WHERE occurred_at >= $1 ORDER BY occurred_at DESC
	`, since)
	if err != nil {
		return nil, &store.StorageError{Op: "list errors", Err: err}
	}
	defer rows.Close()

	var out []domain.ErrorLogEntry
	for rows.Next() {
		var e domain.ErrorLogEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Phase, &e.MessageID, &e.Attempt, &e.Detail, &e.OccurredAt); err != nil {
			return nil, &store.StorageError{Op: "scan error log", Err: err}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetWatermark(ctx context.Context, connectorName string) (time.Time, error) {
	row := s.db.QueryRowContext(ctx, `SELECT watermark FROM connector_watermarks WHERE connector_name = $1`, connectorName)
	var t time.Time
	err := row.Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, &store.StorageError{Op: "get watermark", Err: err}
	}
	return t, nil
}

func (s *Store) SetWatermark(ctx context.Context, connectorName string, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connector_watermarks (connector_name, watermark) VALUES ($1, $2)
		ON CONFLICT (connector_name) DO UPDATE SET watermark = EXCLUDED.watermark
	`, connectorName, t)
	if err != nil {
		return &store.StorageError{Op: "set watermark", Err: err}
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	var stats store.Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.TotalMessages); err != nil {
		return stats, &store.StorageError{Op: "stats: total", Err: err}
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE is_read = false`).Scan(&stats.UnreadCount); err != nil {
		return stats, &store.StorageError{Op: "stats: unread", Err: err}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM messages GROUP BY category`)
	if err != nil {
		return stats, &store.StorageError{Op: "stats: category histogram", Err: err}
	}
	defer rows.Close()

	stats.CategoryHistogram = map[domain.Category]int{}
	for rows.Next() {
		var cat domain.Category
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return stats, &store.StorageError{Op: "stats: scan category", Err: err}
		}
		stats.CategoryHistogram[cat] = n
	}
	return stats, rows.Err()
}
