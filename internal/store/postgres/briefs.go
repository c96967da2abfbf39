package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

func (s *Store) PutBrief(ctx context.Context, b *domain.DailyBrief) error {
	categoryHist, _ := marshalJSON(b.CategoryHistogram)
	priorityHist, _ := marshalJSON(b.PriorityHistogram)
	actionItems, _ := marshalJSON(b.ActionItems)
	deadlines, _ := marshalJSON(b.Deadlines)
	characters, _ := marshalJSON(b.KeyCharacters)
	themes, _ := marshalJSON(b.Themes)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_briefs (date_utc, total_messages, unread_count, category_histogram,
			priority_histogram, headline, narrative, action_items, deadlines, key_characters,
			themes, estimated_read_seconds, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (date_utc) DO UPDATE SET
			total_messages = EXCLUDED.total_messages,
			unread_count = EXCLUDED.unread_count,
			category_histogram = EXCLUDED.category_histogram,
			priority_histogram = EXCLUDED.priority_histogram,
			headline = EXCLUDED.headline,
			narrative = EXCLUDED.narrative,
			action_items = EXCLUDED.action_items,
			deadlines = EXCLUDED.deadlines,
			key_characters = EXCLUDED.key_characters,
			themes = EXCLUDED.themes,
			estimated_read_seconds = EXCLUDED.estimated_read_seconds,
			generated_at = NOW()
	`, b.DateUTC, b.TotalMessages, b.UnreadCount, categoryHist, priorityHist, b.Headline,
		b.Narrative, actionItems, deadlines, characters, themes, b.EstimatedReadSeconds)
	if err != nil {
		return &store.StorageError{Op: "put brief", Err: err}
	}
	return nil
}

func (s *Store) GetBrief(ctx context.Context, dateUTC string) (*domain.DailyBrief, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT date_utc, total_messages, unread_count, category_histogram, priority_histogram,
		       headline, narrative, action_items, deadlines, key_characters, themes,
		       estimated_read_seconds, generated_at
		FROM daily_briefs WHERE date_utc = $1
	`, dateUTC)

	var b domain.DailyBrief
	var categoryHist, priorityHist, actionItems, deadlines, characters, themes []byte
	err := row.Scan(&b.DateUTC, &b.TotalMessages, &b.UnreadCount, &categoryHist, &priorityHist,
		&b.Headline, &b.Narrative, &actionItems, &deadlines, &characters, &themes,
		&b.EstimatedReadSeconds, &b.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.StorageError{Op: "get brief", Err: err}
	}
	_ = json.Unmarshal(categoryHist, &b.CategoryHistogram)
	_ = json.Unmarshal(priorityHist, &b.PriorityHistogram)
	_ = json.Unmarshal(actionItems, &b.ActionItems)
	_ = json.Unmarshal(deadlines, &b.Deadlines)
	_ = json.Unmarshal(characters, &b.KeyCharacters)
	_ = json.Unmarshal(themes, &b.Themes)
	return &b, nil
}
