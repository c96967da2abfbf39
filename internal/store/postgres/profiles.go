package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// PutSenderProfile durably caches IntelligenceIndex's derived sender
// aggregate (§3 "Ownership: derived profiles are owned by IntelligenceIndex
// and cached in Store").
func (s *Store) PutSenderProfile(ctx context.Context, p *domain.SenderProfile) error {
	keywords, _ := marshalJSON(p.TopKeywords)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sender_profiles (address, display_name, total_messages, recent_messages,
			relationship_class, importance_score, strategic_class, first_seen, last_seen, top_keywords)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (address) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			total_messages = EXCLUDED.total_messages,
			recent_messages = EXCLUDED.recent_messages,
			relationship_class = EXCLUDED.relationship_class,
			importance_score = EXCLUDED.importance_score,
			strategic_class = EXCLUDED.strategic_class,
			last_seen = EXCLUDED.last_seen,
			top_keywords = EXCLUDED.top_keywords
	`, p.Address, p.DisplayName, p.TotalMessages, p.RecentMessages, p.RelationshipClass,
		p.ImportanceScore, p.StrategicClass, p.FirstSeen, p.LastSeen, keywords)
	if err != nil {
		return &store.StorageError{Op: "put sender profile", Err: err}
	}
	return nil
}

func (s *Store) GetSenderProfile(ctx context.Context, address string) (*domain.SenderProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT address, display_name, total_messages, recent_messages, relationship_class,
		       importance_score, strategic_class, first_seen, last_seen, top_keywords
		FROM sender_profiles WHERE address = $1
	`, address)

	var p domain.SenderProfile
	var keywords []byte
	err := row.Scan(&p.Address, &p.DisplayName, &p.TotalMessages, &p.RecentMessages, &p.RelationshipClass,
		&p.ImportanceScore, &p.StrategicClass, &p.FirstSeen, &p.LastSeen, &keywords)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.StorageError{Op: "get sender profile", Err: err}
	}
	_ = json.Unmarshal(keywords, &p.TopKeywords)
	return &p, nil
}

func (s *Store) PutThreadProfile(ctx context.Context, p *domain.ThreadProfile) error {
	participants, _ := marshalJSON(p.Participants)
	subjectEvolution, _ := marshalJSON(p.SubjectEvolution)
	keyTopics, _ := marshalJSON(p.KeyTopics)
	decisions, _ := marshalJSON(p.Decisions)
	openActions, _ := marshalJSON(p.OpenActions)
	waitingFor, _ := marshalJSON(p.WaitingFor)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thread_profiles (thread_id, participants, message_count, first_message_at,
			last_message_at, subject_evolution, key_topics, thread_type, status, decisions,
			open_actions, waiting_for, response_rhythm, escalation_hits)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (thread_id) DO UPDATE SET
			participants = EXCLUDED.participants,
			message_count = EXCLUDED.message_count,
			last_message_at = EXCLUDED.last_message_at,
			subject_evolution = EXCLUDED.subject_evolution,
			key_topics = EXCLUDED.key_topics,
			thread_type = EXCLUDED.thread_type,
			status = EXCLUDED.status,
			decisions = EXCLUDED.decisions,
			open_actions = EXCLUDED.open_actions,
			waiting_for = EXCLUDED.waiting_for,
			response_rhythm = EXCLUDED.response_rhythm,
			escalation_hits = EXCLUDED.escalation_hits
	`, p.ThreadID, participants, p.MessageCount, p.FirstMessageAt, p.LastMessageAt,
		subjectEvolution, keyTopics, p.ThreadType, p.Status, decisions, openActions,
		waitingFor, p.ResponseRhythm, p.EscalationHits)
	if err != nil {
		return &store.StorageError{Op: "put thread profile", Err: err}
	}
	return nil
}

func (s *Store) GetThreadProfile(ctx context.Context, threadID string) (*domain.ThreadProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT thread_id, participants, message_count, first_message_at, last_message_at,
		       subject_evolution, key_topics, thread_type, status, decisions, open_actions,
		       waiting_for, response_rhythm, escalation_hits
		FROM thread_profiles WHERE thread_id = $1
	`, threadID)

	var p domain.ThreadProfile
	var participants, subjectEvolution, keyTopics, decisions, openActions, waitingFor []byte
	err := row.Scan(&p.ThreadID, &participants, &p.MessageCount, &p.FirstMessageAt, &p.LastMessageAt,
		&subjectEvolution, &keyTopics, &p.ThreadType, &p.Status, &decisions, &openActions,
		&waitingFor, &p.ResponseRhythm, &p.EscalationHits)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.StorageError{Op: "get thread profile", Err: err}
	}
	_ = json.Unmarshal(participants, &p.Participants)
	_ = json.Unmarshal(subjectEvolution, &p.SubjectEvolution)
	_ = json.Unmarshal(keyTopics, &p.KeyTopics)
	_ = json.Unmarshal(decisions, &p.Decisions)
	_ = json.Unmarshal(openActions, &p.OpenActions)
	_ = json.Unmarshal(waitingFor, &p.WaitingFor)
	return &p, nil
}
