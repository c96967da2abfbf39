package analyzers

import (
	"context"
	"strings"

	"github.com/ignite/inbox-agent/internal/domain"
)

// relationshipScores is the fixed score table of §4.3.2.
var relationshipScores = map[domain.RelationshipClass]float64{
	domain.RelationshipFounder:         0.98,
	domain.RelationshipInternal:        0.95,
	domain.RelationshipBoard:          0.95,
	domain.RelationshipInvestor:        0.90,
	domain.RelationshipAdvisor:         0.75,
	domain.RelationshipVendorCritical:  0.70,
	domain.RelationshipCustomer:        0.60,
	domain.RelationshipTeam:            0.55,
	domain.RelationshipVendorImportant: 0.45,
	domain.RelationshipVendor:          0.30,
	domain.RelationshipUnknown:         0.40,
}

// strategicDomainFallback maps a sender's email domain to a RelationshipClass
// when the contact graph has no profile for the address yet (§4.3.2
// "fallback to domain classification from a static strategic-domains map").
type strategicDomainFallback map[string]domain.RelationshipClass

// RelationshipAnalyzer scores a message by the sender's relationship to the
// user (§4.3.2).
type RelationshipAnalyzer struct {
	// StrategicDomains maps an email domain (lowercase, no leading "@") to a
	// RelationshipClass, sourced from config.PolicyConfig.StrategicDomains.
	StrategicDomains map[string]domain.RelationshipClass
}

func (a *RelationshipAnalyzer) Name() string { return "relationship" }

func (a *RelationshipAnalyzer) Assess(ctx context.Context, m *domain.Message, idx IndexReader) domain.Assessment {
	class := domain.RelationshipUnknown
	confidence := 0.4

	if profile, ok := idx.SenderProfile(m.Sender.Address); ok && profile.RelationshipClass != "" {
		class = profile.RelationshipClass
		confidence = 0.85
	} else if fallback, ok := a.StrategicDomains[strings.ToLower(m.SenderDomain())]; ok {
		class = fallback
		confidence = 0.55
	}

	score, ok := relationshipScores[class]
	if !ok {
		score = relationshipScores[domain.RelationshipUnknown]
	}

	strength := idx.ContactStrength(m.Sender.Address)

	return domain.Assessment{
		AnalyzerName:  a.Name(),
		PriorityScore: score,
		Confidence:    confidence,
		Urgency:       urgencyFromRelationship(class),
		Rationale:     "relationship class " + string(class) + ", contact strength " + string(strength),
	}
}

func urgencyFromRelationship(c domain.RelationshipClass) domain.Urgency {
	switch c {
	case domain.RelationshipFounder, domain.RelationshipBoard, domain.RelationshipInternal:
		return domain.UrgencyHigh
	case domain.RelationshipInvestor, domain.RelationshipVendorCritical:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}
