package analyzers

import (
	"context"
	"strings"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/llm"
	"github.com/ignite/inbox-agent/internal/pkg/logger"
)

// Fixed factor weights (§4.3.4).
const (
	categoryWeight = 0.30
	senderWeight   = 0.25
	urgencyWeight  = 0.20
	recencyWeight  = 0.15
	threadWeight   = 0.10
)

var categoryScores = map[domain.Category]float64{
	domain.CategoryPrimary:    0.8,
	domain.CategoryUpdates:    0.3,
	domain.CategorySocial:     0.2,
	domain.CategoryPromotions: 0.1,
	domain.CategoryForums:     0.4,
	domain.CategorySpam:       0.0,
}

var strategicBoost = map[domain.StrategicClass]float64{
	domain.StrategicCritical: 0.40,
	domain.StrategicHigh:     0.25,
	domain.StrategicMedium:   0.10,
}

// urgencyKeywordScores orders keyword→score from most to least specific so
// the first substring match in subject/body wins (§4.3.4's keyword table).
var urgencyKeywordScores = []struct {
	keyword string
	score   float64
}{
	{"urgent", 0.9},
	{"asap", 0.9},
	{"immediate", 0.8},
	{"deadline", 0.8},
	{"important", 0.7},
	{"please respond", 0.6},
	{"follow up", 0.5},
}

// TriageAnalyzer computes a weighted attentionScore from five factors
// (§4.3.4).
type TriageAnalyzer struct {
	LLM              llm.Capability
	StrategicDomains map[string]domain.RelationshipClass
}

func (a *TriageAnalyzer) Name() string { return "triage" }

func (a *TriageAnalyzer) Assess(ctx context.Context, m *domain.Message, idx IndexReader) domain.Assessment {
	catScore := categoryScores[m.Category]

	sendScore, profile, hasProfile := a.senderFactor(m, idx)
	urgScore := a.urgencyFactor(ctx, m)
	recScore := recencyFactor(m.ReceivedAt)

	_, hasThread := idx.ThreadProfile(m.ThreadID)
	threadScore := 0.3
	if m.ThreadID != "" && hasThread {
		threadScore = 0.6
	}

	score := catScore*categoryWeight + sendScore*senderWeight + urgScore*urgencyWeight + recScore*recencyWeight + threadScore*threadWeight

	if hasProfile {
		score = domain.Clamp01(score + strategicBoost[profile.StrategicClass])
	}

	confidence := 0.6
	if hasProfile {
		confidence = 0.8
	}

	return domain.Assessment{
		AnalyzerName:  a.Name(),
		PriorityScore: domain.Clamp01(score),
		Confidence:    confidence,
		Urgency:       urgencyFromScore(urgScore),
		Rationale:     "attention score from category/sender/urgency/recency/thread factors",
	}
}

func (a *TriageAnalyzer) senderFactor(m *domain.Message, idx IndexReader) (float64, domain.SenderProfile, bool) {
	if w, ok := idx.SenderWeightOverride(m.Sender.Address); ok {
		return domain.Clamp01(w), domain.SenderProfile{}, false
	}
	if profile, ok := idx.SenderProfile(m.Sender.Address); ok {
		return domain.Clamp01(profile.ImportanceScore / 100), profile, true
	}
	if class, ok := a.StrategicDomains[strings.ToLower(m.SenderDomain())]; ok {
		if score, ok := relationshipScores[class]; ok {
			return score, domain.SenderProfile{}, false
		}
	}
	return 0.4, domain.SenderProfile{}, false
}

func (a *TriageAnalyzer) urgencyFactor(ctx context.Context, m *domain.Message) float64 {
	subjectScore := keywordScore(m.Subject, 1.0)
	bodyScore := keywordScore(m.BodyText, 0.8)
	best := subjectScore
	if bodyScore > best {
		best = bodyScore
	}

	if best >= 0.5 || a.LLM == nil {
		return best
	}

	result, err := a.LLM.UrgencyScore(ctx, m.Subject, m.BodyText)
	if err != nil {
		logger.Warn("triage analyzer: llm urgency unavailable", "error", err)
		return best
	}
	return domain.Clamp01(result.Score)
}

func keywordScore(text string, multiplier float64) float64 {
	lower := strings.ToLower(text)
	best := 0.0
	for _, kw := range urgencyKeywordScores {
		if strings.Contains(lower, kw.keyword) {
			weighted := kw.score * multiplier
			if weighted > best {
				best = weighted
			}
		}
	}
	return best
}

func recencyFactor(receivedAt time.Time) float64 {
	if receivedAt.IsZero() {
		return 0.1
	}
	age := time.Since(receivedAt)
	switch {
	case age < time.Hour:
		return 1.0
	case age < 6*time.Hour:
		return 0.8
	case age < 24*time.Hour:
		return 0.6
	case age < 3*24*time.Hour:
		return 0.4
	case age < 7*24*time.Hour:
		return 0.2
	default:
		return 0.1
	}
}

func urgencyFromScore(urgencyFactorScore float64) domain.Urgency {
	switch {
	case urgencyFactorScore >= 0.8:
		return domain.UrgencyCritical
	case urgencyFactorScore >= 0.6:
		return domain.UrgencyHigh
	case urgencyFactorScore >= 0.3:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}
