package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// UpsertMessage inserts or merges on ExternalID. ProcessingStamps already
// recorded for the existing row are unioned with the incoming message's, so
// a re-pulled message never loses pipeline progress (§4.1, P4).
func (s *Store) UpsertMessage(ctx context.Context, m *domain.Message) (string, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	recipients, err := marshalJSON(m.Recipients)
	if err != nil {
		return "", &store.StorageError{Op: "upsert message: marshal recipients", Err: err}
	}
	tags, _ := marshalJSON(stringSet(m.Tags))
	labels, _ := marshalJSON(stringSet(m.ProviderLabels))

	var existingStamps []byte
	err = s.db.QueryRowContext(ctx, `SELECT processing_stamps FROM messages WHERE external_id = $1`, m.ExternalID).Scan(&existingStamps)
	stamps := stringSet(m.ProcessingStamps)
	if err == nil && len(existingStamps) > 0 {
		var prior []string
		if jsonErr := json.Unmarshal(existingStamps, &prior); jsonErr == nil {
			merged := toSet(prior)
			for _, st := range stamps {
				merged[st] = struct{}{}
			}
			stamps = stringSet(merged)
		}
	} else if err != nil && err != sql.ErrNoRows {
		return "", &store.StorageError{Op: "upsert message: read existing stamps", Err: err}
	}
	stampsJSON, _ := marshalJSON(stamps)

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO messages (
			id, external_id, thread_id, sender_address, sender_name, recipients,
			subject, body_text, body_html, sent_at, received_at, is_read, is_flagged,
			has_attachments, attachment_count, category, priority, category_inferred,
			tags, provider_labels, processing_stamps, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NOW(), NOW()
		)
		ON CONFLICT (external_id) DO UPDATE SET
			thread_id = EXCLUDED.thread_id,
			sender_address = EXCLUDED.sender_address,
			sender_name = EXCLUDED.sender_name,
			recipients = EXCLUDED.recipients,
			subject = EXCLUDED.subject,
			body_text = EXCLUDED.body_text,
			body_html = EXCLUDED.body_html,
			sent_at = EXCLUDED.sent_at,
			received_at = EXCLUDED.received_at,
			is_read = EXCLUDED.is_read,
			is_flagged = EXCLUDED.is_flagged,
			has_attachments = EXCLUDED.has_attachments,
			attachment_count = EXCLUDED.attachment_count,
			category = EXCLUDED.category,
			priority = EXCLUDED.priority,
			category_inferred = EXCLUDED.category_inferred,
			tags = EXCLUDED.tags,
			provider_labels = EXCLUDED.provider_labels,
			processing_stamps = $19,
			updated_at = NOW()
		RETURNING id
	`,
		m.ID, m.ExternalID, m.ThreadID, m.Sender.Address, m.Sender.DisplayName, recipients,
		m.Subject, m.BodyText, m.BodyHTML, m.SentAt, m.ReceivedAt, m.IsRead, m.IsFlagged,
		m.HasAttachments, m.AttachmentCount, m.Category, m.Priority, m.CategoryInferred,
		tags, labels, stampsJSON,
	).Scan(&m.ID)
	if err != nil {
		return "", &store.StorageError{Op: "upsert message", Err: err}
	}
	return m.ID, nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, external_id, thread_id, sender_address, sender_name, recipients,
		       subject, body_text, body_html, sent_at, received_at, is_read, is_flagged,
		       has_attachments, attachment_count, category, priority, category_inferred,
		       tags, provider_labels, processing_stamps, created_at, updated_at
		FROM messages WHERE id = $1
	`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.StorageError{Op: "get message", Err: err}
	}
	return m, nil
}

// QueryMessages filters/paginates, ordered by sent_at desc with a stable
// tiebreak on id (§4.1).
func (s *Store) QueryMessages(ctx context.Context, filter store.MessageFilter, page store.Pagination) ([]domain.Message, error) {
	q := `
		SELECT id, external_id, thread_id, sender_address, sender_name, recipients,
		       subject, body_text, body_html, sent_at, received_at, is_read, is_flagged,
		       has_attachments, attachment_count, category, priority, category_inferred,
		       tags, provider_labels, processing_stamps, created_at, updated_at
		FROM messages WHERE 1=1`
	var args []interface{}
	idx := 1
	add := func(clause string, val interface{}) {
		q += fmt.Sprintf(" AND %s $%d", clause, idx)
		args = append(args, val)
		idx++
	}

	if !filter.Since.IsZero() {
		add("received_at >=", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("received_at <=", filter.Until)
	}
	if filter.UnreadOnly {
		q += " AND is_read = false"
	}
	if filter.SenderContains != "" {
		add("sender_address ILIKE", "%"+filter.SenderContains+"%")
	}
	if filter.FreeText != "" {
		pattern := "%" + filter.FreeText + "%"
		q += fmt.Sprintf(" AND (subject ILIKE $%d OR body_text ILIKE $%d OR sender_address ILIKE $%d)", idx, idx, idx)
		args = append(args, pattern)
		idx++
	}
	if filter.HasCategory {
		add("category =", filter.Category)
	}
	if filter.HasMissingStamp {
		stampJSON, _ := json.Marshal([]string{string(filter.MissingStamp)})
		q += fmt.Sprintf(" AND NOT (processing_stamps @> $%d::jsonb)", idx)
		args = append(args, string(stampJSON))
		idx++
	}

	q += " ORDER BY sent_at DESC, id ASC"
	limit := page.Limit
	if limit <= 0 {
		limit = 100
	}
	q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &store.StorageError{Op: "query messages", Err: err}
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessageRows(rows)
		if err != nil {
			return nil, &store.StorageError{Op: "scan message", Err: err}
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (*domain.Message, error) {
	return scanMessageRows(row)
}

func scanMessageRows(row scanner) (*domain.Message, error) {
	var m domain.Message
	var recipients, tags, labels, stamps []byte
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&m.ID, &m.ExternalID, &m.ThreadID, &m.Sender.Address, &m.Sender.DisplayName, &recipients,
		&m.Subject, &m.BodyText, &m.BodyHTML, &m.SentAt, &m.ReceivedAt, &m.IsRead, &m.IsFlagged,
		&m.HasAttachments, &m.AttachmentCount, &m.Category, &m.Priority, &m.CategoryInferred,
		&tags, &labels, &stamps, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.CreatedAt, m.UpdatedAt = createdAt, updatedAt

	_ = json.Unmarshal(recipients, &m.Recipients)
	var tagList, labelList, stampList []string
	_ = json.Unmarshal(tags, &tagList)
	_ = json.Unmarshal(labels, &labelList)
	_ = json.Unmarshal(stamps, &stampList)
	m.Tags = toSet(tagList)
	m.ProviderLabels = toSet(labelList)
	m.ProcessingStamps = make(map[domain.ProcessingStamp]struct{}, len(stampList))
	for _, st := range stampList {
		m.ProcessingStamps[domain.ProcessingStamp(st)] = struct{}{}
	}
	return &m, nil
}
