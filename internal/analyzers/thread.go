package analyzers

import (
	"context"

	"github.com/ignite/inbox-agent/internal/domain"
)

var threadTypeBase = map[domain.ThreadType]float64{
	domain.ThreadDecision:      0.80,
	domain.ThreadEscalation:    0.85,
	domain.ThreadDiscussion:    0.60,
	domain.ThreadTransactional: 0.40,
}

var threadStatusMultiplier = map[domain.ThreadStatus]float64{
	domain.ThreadActive:    1.0,
	domain.ThreadStalled:   1.2,
	domain.ThreadEscalated: 1.3,
	domain.ThreadDormant:   0.7,
	domain.ThreadResolved:  1.0,
}

// ThreadAnalyzer scores a message by its thread's narrative shape and
// activity state (§4.3.3).
type ThreadAnalyzer struct{}

func (a *ThreadAnalyzer) Name() string { return "thread" }

func (a *ThreadAnalyzer) Assess(ctx context.Context, m *domain.Message, idx IndexReader) domain.Assessment {
	if m.ThreadID == "" {
		return lowConfidence(a.Name(), "message is not part of a thread")
	}
	profile, ok := idx.ThreadProfile(m.ThreadID)
	if !ok {
		return lowConfidence(a.Name(), "no thread profile on record")
	}

	base, ok := threadTypeBase[profile.ThreadType]
	if !ok {
		base = threadTypeBase[domain.ThreadDiscussion]
	}
	mult, ok := threadStatusMultiplier[profile.Status]
	if !ok {
		mult = 1.0
	}
	score := domain.Clamp01(base * mult)

	assessment := domain.Assessment{
		AnalyzerName:  a.Name(),
		PriorityScore: score,
		Confidence:    0.7,
		Urgency:       urgencyFromThread(profile),
		Rationale:     "thread type " + string(profile.ThreadType) + ", status " + string(profile.Status),
	}

	if profile.ThreadType == domain.ThreadDecision && profile.Status == domain.ThreadStalled {
		assessment.Risks = append(assessment.Risks, "decision thread stalled without resolution")
	}

	return assessment
}

func urgencyFromThread(p domain.ThreadProfile) domain.Urgency {
	switch {
	case p.Status == domain.ThreadEscalated || p.ThreadType == domain.ThreadEscalation:
		return domain.UrgencyCritical
	case p.Status == domain.ThreadStalled:
		return domain.UrgencyHigh
	case p.ThreadType == domain.ThreadDecision:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}
