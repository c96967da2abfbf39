package postgres

import (
	"context"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

func (s *Store) PutPattern(ctx context.Context, p *domain.LearnedPattern) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learned_patterns (kind, key, predicted_attribute, predicted_value, confidence, sample_size, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (kind, key) DO UPDATE SET
			predicted_attribute = EXCLUDED.predicted_attribute,
			predicted_value = EXCLUDED.predicted_value,
			confidence = EXCLUDED.confidence,
			sample_size = EXCLUDED.sample_size,
			updated_at = NOW()
	`, p.Kind, p.Key, p.PredictedAttribute, p.PredictedValue, p.Confidence, p.SampleSize)
	if err != nil {
		return &store.StorageError{Op: "put pattern", Err: err}
	}
	return nil
}

func (s *Store) ListPatterns(ctx context.Context, kind domain.PatternKind) ([]domain.LearnedPattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, key, predicted_attribute, predicted_value, confidence, sample_size, updated_at
		FROM learned_patterns WHERE kind = $1 ORDER BY updated_at DESC
	`, kind)
	if err != nil {
		return nil, &store.StorageError{Op: "list patterns", Err: err}
	}
	defer rows.Close()

	var out []domain.LearnedPattern
	for rows.Next() {
		var p domain.LearnedPattern
		if err := rows.Scan(&p.Kind, &p.Key, &p.PredictedAttribute, &p.PredictedValue, &p.Confidence, &p.SampleSize, &p.UpdatedAt); err != nil {
			return nil, &store.StorageError{Op: "scan pattern", Err: err}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
