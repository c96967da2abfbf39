package analyzers

import (
	"context"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/llm"
	"github.com/ignite/inbox-agent/internal/pkg/logger"
)

// strategicClassNudge adjusts the raw importanceScore/100 base score by a
// small amount per strategicClass band. spec.md §4.3.1 says the score is
// "nudged" without naming a magnitude; this implementation's nudge table is
// a documented design decision (DESIGN.md), not part of the original text.
var strategicClassNudge = map[domain.StrategicClass]float64{
	domain.StrategicCritical: 0.05,
	domain.StrategicHigh:     0.02,
	domain.StrategicMedium:   0,
	domain.StrategicLow:      -0.02,
}

// StrategicAnalyzer scores a message by the sender's long-term strategic
// importance (§4.3.1).
type StrategicAnalyzer struct {
	LLM llm.Capability
}

func (a *StrategicAnalyzer) Name() string { return "strategic" }

func (a *StrategicAnalyzer) Assess(ctx context.Context, m *domain.Message, idx IndexReader) domain.Assessment {
	profile, ok := idx.SenderProfile(m.Sender.Address)
	if !ok {
		return lowConfidence(a.Name(), "no sender profile on record")
	}

	score := domain.Clamp01(profile.ImportanceScore/100 + strategicClassNudge[profile.StrategicClass])
	confidence := confidenceFor(profile)

	assessment := domain.Assessment{
		AnalyzerName:  a.Name(),
		PriorityScore: score,
		Confidence:    confidence,
		Urgency:       urgencyFromStrategicClass(profile.StrategicClass),
		Rationale:     "strategic class " + string(profile.StrategicClass) + " for " + m.Sender.Address,
	}

	if a.LLM == nil {
		return assessment
	}

	result, err := a.LLM.StrategicAnalysis(ctx, m.Subject, m.BodyText, string(profile.RelationshipClass))
	if err != nil {
		logger.Warn("strategic analyzer: llm unavailable", "error", err)
		assessment.Confidence = lowConfidence(a.Name(), "").Confidence
		return assessment
	}

	assessment.SuggestedLabels = result.Labels
	if result.KeyInsight != "" {
		assessment.Rationale = result.KeyInsight
	}
	if result.RequiresAction {
		assessment.Opportunities = append(assessment.Opportunities, "requires action: "+result.DelegationHint)
	}
	return assessment
}

func confidenceFor(p domain.SenderProfile) float64 {
	switch {
	case p.StrategicClass == domain.StrategicCritical:
		return 0.95
	case p.TotalMessages > 5:
		return 0.75
	case p.TotalMessages > 2:
		return 0.5
	default:
		return 0.25
	}
}

func urgencyFromStrategicClass(c domain.StrategicClass) domain.Urgency {
	switch c {
	case domain.StrategicCritical:
		return domain.UrgencyHigh
	case domain.StrategicHigh:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}
