package domain

import "time"

// SenderProfile is IntelligenceIndex's derived view of a single sender
// address, recomputed incrementally as messages arrive.
type SenderProfile struct {
	Address         string            `json:"address" db:"address"`
	DisplayName     string            `json:"display_name,omitempty" db:"display_name"`
	TotalMessages   int               `json:"total_messages" db:"total_messages"`
	RecentMessages  int               `json:"recent_messages" db:"recent_messages"` // last 30 days
	RelationshipClass RelationshipClass `json:"relationship_class" db:"relationship_class"`
	ImportanceScore float64           `json:"importance_score" db:"importance_score"` // [0,100]
	StrategicClass  StrategicClass    `json:"strategic_class" db:"strategic_class"`
	FirstSeen       time.Time         `json:"first_seen" db:"first_seen"`
	LastSeen        time.Time         `json:"last_seen" db:"last_seen"`
	TopKeywords     []string          `json:"top_keywords,omitempty" db:"top_keywords"`
}

// StrategicClassFor bands an importance score and relationship class into a
// StrategicClass per §4.4's thresholds.
func StrategicClassFor(score float64, class RelationshipClass) StrategicClass {
	switch {
	case score >= 80 || class == RelationshipFounder || class == RelationshipBoard:
		return StrategicCritical
	case score >= 60 || class == RelationshipInvestor || class == RelationshipVendorCritical:
		return StrategicHigh
	case score >= 30 || class == RelationshipCustomer || class == RelationshipTeam:
		return StrategicMedium
	default:
		return StrategicLow
	}
}

// ThreadProfile is IntelligenceIndex's derived aggregate over all messages
// sharing a threadId.
type ThreadProfile struct {
	ThreadID        string         `json:"thread_id" db:"thread_id"`
	Participants    []string       `json:"participants" db:"participants"`
	MessageCount    int            `json:"message_count" db:"message_count"`
	FirstMessageAt  time.Time      `json:"first_message_at" db:"first_message_at"`
	LastMessageAt   time.Time      `json:"last_message_at" db:"last_message_at"`
	SubjectEvolution []string      `json:"subject_evolution" db:"subject_evolution"`
	KeyTopics       []string       `json:"key_topics,omitempty" db:"key_topics"`
	ThreadType      ThreadType     `json:"thread_type" db:"thread_type"`
	Status          ThreadStatus   `json:"status" db:"status"`
	Decisions       []string       `json:"decisions,omitempty" db:"decisions"`
	OpenActions     []string       `json:"open_actions,omitempty" db:"open_actions"`
	WaitingFor      []string       `json:"waiting_for,omitempty" db:"waiting_for"`
	ResponseRhythm  ResponseRhythm `json:"response_rhythm" db:"response_rhythm"`
	EscalationHits  int            `json:"escalation_hits" db:"escalation_hits"`
}

// ContactStrength classifies how frequently the user and a sender correspond,
// derived from the contact graph's participant-overlap grouping (§4.4,
// supplemented per SPEC_FULL §10).
type ContactStrength string

const (
	ContactStrong   ContactStrength = "strong"   // >=20 messages
	ContactModerate ContactStrength = "moderate" // >=10
	ContactWeak     ContactStrength = "weak"     // >=3
	ContactNew      ContactStrength = "new"
)

// ContactStrengthFor classifies a message count into a ContactStrength tier.
func ContactStrengthFor(messageCount int) ContactStrength {
	switch {
	case messageCount >= 20:
		return ContactStrong
	case messageCount >= 10:
		return ContactModerate
	case messageCount >= 3:
		return ContactWeak
	default:
		return ContactNew
	}
}
