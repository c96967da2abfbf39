package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// PutDecision persists the current decision for (messageID, policyVersion).
// At most one current decision exists per pair (§3 Decision invariant).
func (s *Store) PutDecision(ctx context.Context, d *domain.Decision) error {
	if d.PolicyVersion == 0 {
		d.PolicyVersion = 1
	}
	labels, _ := marshalJSON(d.AppliedLabels)
	conflicts, _ := marshalJSON(d.Conflicts)
	followUps, _ := marshalJSON(d.FollowUps)
	degraded, _ := marshalJSON(d.DegradedAnalyzers)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (message_id, policy_version, bucket, final_score, confidence,
			applied_labels, urgency, rationale, conflicts, should_escalate, follow_ups,
			degraded_analyzers, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (message_id, policy_version) DO UPDATE SET
			bucket = EXCLUDED.bucket,
			final_score = EXCLUDED.final_score,
			confidence = EXCLUDED.confidence,
			applied_labels = EXCLUDED.applied_labels,
			urgency = EXCLUDED.urgency,
			rationale = EXCLUDED.rationale,
			conflicts = EXCLUDED.conflicts,
			should_escalate = EXCLUDED.should_escalate,
			follow_ups = EXCLUDED.follow_ups,
			degraded_analyzers = EXCLUDED.degraded_analyzers,
			decided_at = NOW()
	`, d.MessageID, d.PolicyVersion, d.Bucket, d.FinalScore, d.Confidence,
		labels, d.Urgency, d.Rationale, conflicts, d.ShouldEscalate, followUps, degraded)
	if err != nil {
		return &store.StorageError{Op: "put decision", Err: err}
	}
	return nil
}

// GetDecision returns the most recent (highest policy_version) decision for
// the message.
func (s *Store) GetDecision(ctx context.Context, messageID string) (*domain.Decision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT message_id, policy_version, bucket, final_score, confidence, applied_labels,
		       urgency, rationale, conflicts, should_escalate, follow_ups, degraded_analyzers, decided_at
		FROM decisions WHERE message_id = $1
		ORDER BY policy_version DESC LIMIT 1
	`, messageID)

	var d domain.Decision
	var labels, conflicts, followUps, degraded []byte
	err := row.Scan(&d.MessageID, &d.PolicyVersion, &d.Bucket, &d.FinalScore, &d.Confidence,
		&labels, &d.Urgency, &d.Rationale, &conflicts, &d.ShouldEscalate, &followUps, &degraded, &d.DecidedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.StorageError{Op: "get decision", Err: err}
	}
	_ = json.Unmarshal(labels, &d.AppliedLabels)
	_ = json.Unmarshal(conflicts, &d.Conflicts)
	_ = json.Unmarshal(followUps, &d.FollowUps)
	_ = json.Unmarshal(degraded, &d.DegradedAnalyzers)
	return &d, nil
}
