package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

func (s *Store) PutRule(ctx context.Context, r *domain.Rule) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	conditions, err := marshalJSON(r.Conditions)
	if err != nil {
		return &store.StorageError{Op: "put rule: marshal conditions", Err: err}
	}
	actions, err := marshalJSON(r.Actions)
	if err != nil {
		return &store.StorageError{Op: "put rule: marshal actions", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (id, name, enabled, priority, conditions, actions, compile_error, source_pattern_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			priority = EXCLUDED.priority,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			compile_error = EXCLUDED.compile_error,
			source_pattern_key = EXCLUDED.source_pattern_key,
			updated_at = NOW()
	`, r.ID, r.Name, r.Enabled, r.Priority, conditions, actions, r.CompileError, r.SourcePatternKey)
	if err != nil {
		return &store.StorageError{Op: "put rule", Err: err}
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return &store.StorageError{Op: "delete rule", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, id string) (*domain.Rule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, enabled, priority, conditions, actions, compile_error, source_pattern_key, created_at, updated_at
		FROM rules WHERE id = $1
	`, id)
	r, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.StorageError{Op: "get rule", Err: err}
	}
	return r, nil
}

// ListRules returns rules sorted by priority ascending (§4.1).
func (s *Store) ListRules(ctx context.Context, enabledOnly bool) ([]domain.Rule, error) {
	q := `
		SELECT id, name, enabled, priority, conditions, actions, compile_error, source_pattern_key, created_at, updated_at
		FROM rules`
	if enabledOnly {
		q += ` WHERE enabled = true`
	}
	q += ` ORDER BY priority ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, &store.StorageError{Op: "list rules", Err: err}
	}
	defer rows.Close()

	var out []domain.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, &store.StorageError{Op: "scan rule", Err: err}
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRule(row scanner) (*domain.Rule, error) {
	var r domain.Rule
	var conditions, actions []byte
	err := row.Scan(&r.ID, &r.Name, &r.Enabled, &r.Priority, &conditions, &actions,
		&r.CompileError, &r.SourcePatternKey, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(conditions, &r.Conditions)
	_ = json.Unmarshal(actions, &r.Actions)
	return &r, nil
}
