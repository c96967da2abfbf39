// Package analyzers implements the five independent analyzers of §4.3.
// Each reads IntelligenceIndex state and may call the LLM capability; all
// must tolerate index misses and LLM errors by returning a low-confidence
// Assessment rather than failing the pipeline (§4.3 "must tolerate").
package analyzers

import (
	"context"

	"github.com/ignite/inbox-agent/internal/domain"
)

// IndexReader is the read-only view of IntelligenceIndex analyzers depend
// on. Defined here rather than imported from internal/intelligence to keep
// this package's dependency direction one-way (analyzers → domain/config
// only); internal/intelligence implements it against its published snapshot.
type IndexReader interface {
	SenderProfile(address string) (domain.SenderProfile, bool)
	ThreadProfile(threadID string) (domain.ThreadProfile, bool)
	ContactStrength(address string) domain.ContactStrength
	// SenderWeightOverride reports a learned-pattern-derived triage weight
	// override for address, if the FeedbackLearner has promoted one
	// (SPEC_FULL §10 "learned pattern overrides").
	SenderWeightOverride(address string) (weight float64, ok bool)
}

// Analyzer produces one independent Assessment for a message.
type Analyzer interface {
	Name() string
	Assess(ctx context.Context, m *domain.Message, idx IndexReader) domain.Assessment
}

// lowConfidence builds the degraded Assessment analyzers fall back to on an
// index miss or LLM error (§4.3, §7 "LLMUnavailable").
func lowConfidence(name, rationale string) domain.Assessment {
	return domain.Assessment{
		AnalyzerName:  name,
		PriorityScore: 0.3,
		Confidence:    0.2,
		Urgency:       domain.UrgencyLow,
		Rationale:     rationale,
	}
}
