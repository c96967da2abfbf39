// Package collaborator reconciles independent analyzer Assessments into one
// routing Decision (§4.5), weighting each by its own confidence rather than
// trusting any single analyzer's verdict.
package collaborator

import (
	"sort"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

// consensusWeights are the fixed per-analyzer weights §4.5's consensus score
// formula assigns, keyed by Assessment.AnalyzerName.
var consensusWeights = map[string]float64{
	"strategic":    0.35,
	"relationship": 0.25,
	"thread":       0.20,
	"triage":       0.20,
}

const (
	scoreSpreadConflictThreshold      = 0.3
	urgencySpreadDistinctThreshold    = 2
	confidentDisagreementConfidence   = 0.8
	confidentDisagreementScoreDelta   = 0.2
	rationaleConfidenceFloor          = 0.6
	defaultPriorityThreshold          = 0.7
	defaultArchiveThreshold           = 0.4
	defaultEscalationThreshold        = 0.7
	escalationConfidenceFloor         = 0.6
	escalationConflictCountThreshold  = 2
	maxAppliedLabels                  = 4
)

// Policy carries the Collaborator's tunable thresholds, sourced from
// config.PolicyConfig so this package stays config-shape-agnostic.
type Policy struct {
	PriorityThreshold    float64
	ArchiveThreshold     float64
	EscalationThreshold  float64
	AutoArchiveCategories map[domain.Category]struct{}
}

// DefaultPolicy returns §4.5's documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		PriorityThreshold:   defaultPriorityThreshold,
		ArchiveThreshold:    defaultArchiveThreshold,
		EscalationThreshold: defaultEscalationThreshold,
	}
}

// Collaborator reconciles a message's Assessments into a Decision.
type Collaborator struct {
	Policy Policy
}

func New(policy Policy) *Collaborator {
	return &Collaborator{Policy: policy}
}

// Reconcile implements §4.5 in full: conflict detection, consensus score,
// consensus urgency, confidence, bucket assignment, escalation, label
// union, and rationale composition.
func (c *Collaborator) Reconcile(messageID string, policyVersion int, category domain.Category, assessments []domain.Assessment, degraded []string) domain.Decision {
	conflicts := detectConflicts(assessments)
	score := consensusScore(assessments)
	urgency := consensusUrgency(assessments)
	confidence := consensusConfidence(assessments, len(conflicts))
	veto, vetoBucket := spamVeto(assessments)

	bucket := c.bucketFor(score, category, veto, vetoBucket)
	escalate := shouldEscalate(score, confidence, len(conflicts), urgency, c.Policy.EscalationThreshold)

	return domain.Decision{
		MessageID:         messageID,
		PolicyVersion:     policyVersion,
		Bucket:            bucket,
		FinalScore:        score,
		Confidence:        confidence,
		AppliedLabels:     unionLabels(assessments),
		Urgency:           urgency,
		Rationale:         composeRationale(assessments),
		Conflicts:         conflicts,
		ShouldEscalate:    escalate,
		DegradedAnalyzers: degraded,
		DecidedAt:         time.Now().UTC(),
	}
}

func spamVeto(assessments []domain.Assessment) (bool, domain.Bucket) {
	for _, a := range assessments {
		if a.Veto {
			return true, a.VetoBucket
		}
	}
	return false, ""
}

func (c *Collaborator) bucketFor(score float64, category domain.Category, veto bool, vetoBucket domain.Bucket) domain.Bucket {
	if veto {
		return vetoBucket
	}
	priorityThreshold := c.Policy.PriorityThreshold
	if priorityThreshold == 0 {
		priorityThreshold = defaultPriorityThreshold
	}
	archiveThreshold := c.Policy.ArchiveThreshold
	if archiveThreshold == 0 {
		archiveThreshold = defaultArchiveThreshold
	}

	switch {
	case score >= priorityThreshold:
		return domain.BucketPriorityInbox
	case score <= archiveThreshold && c.inAutoArchiveSet(category):
		return domain.BucketAutoArchive
	default:
		return domain.BucketRegularInbox
	}
}

func (c *Collaborator) inAutoArchiveSet(category domain.Category) bool {
	if c.Policy.AutoArchiveCategories == nil {
		return false
	}
	_, ok := c.Policy.AutoArchiveCategories[category]
	return ok
}

// detectConflicts implements §4.5's three conflict conditions.
func detectConflicts(assessments []domain.Assessment) []domain.Conflict {
	var conflicts []domain.Conflict

	if spread, ok := scoreSpread(assessments); ok && spread > scoreSpreadConflictThreshold {
		conflicts = append(conflicts, domain.Conflict{
			Kind:        "score_spread",
			Description: "analyzer priority scores disagree by more than 0.3",
			Spread:      spread,
		})
	}

	if distinctUrgencies(assessments) > urgencySpreadDistinctThreshold {
		conflicts = append(conflicts, domain.Conflict{
			Kind:        "urgency_spread",
			Description: "analyzers reported more than two distinct urgency levels",
		})
	}

	if spread, ok := confidentDisagreementSpread(assessments); ok {
		conflicts = append(conflicts, domain.Conflict{
			Kind:        "confident_disagreement",
			Description: "two high-confidence analyzers disagree by more than 0.2 in score",
			Spread:      spread,
		})
	}

	return conflicts
}

func scoreSpread(assessments []domain.Assessment) (float64, bool) {
	if len(assessments) == 0 {
		return 0, false
	}
	min, max := assessments[0].PriorityScore, assessments[0].PriorityScore
	for _, a := range assessments[1:] {
		if a.PriorityScore < min {
			min = a.PriorityScore
		}
		if a.PriorityScore > max {
			max = a.PriorityScore
		}
	}
	return max - min, true
}

func distinctUrgencies(assessments []domain.Assessment) int {
	seen := map[domain.Urgency]struct{}{}
	for _, a := range assessments {
		seen[a.Urgency] = struct{}{}
	}
	return len(seen)
}

func confidentDisagreementSpread(assessments []domain.Assessment) (float64, bool) {
	var best float64
	found := false
	for i := 0; i < len(assessments); i++ {
		if assessments[i].Confidence < confidentDisagreementConfidence {
			continue
		}
		for j := i + 1; j < len(assessments); j++ {
			if assessments[j].Confidence < confidentDisagreementConfidence {
				continue
			}
			delta := assessments[i].PriorityScore - assessments[j].PriorityScore
			if delta < 0 {
				delta = -delta
			}
			if delta > confidentDisagreementScoreDelta && (!found || delta > best) {
				best, found = delta, true
			}
		}
	}
	return best, found
}

// consensusScore implements §4.5's confidence-weighted mean, renormalizing
// over whichever analyzers are actually present.
func consensusScore(assessments []domain.Assessment) float64 {
	var weightedSum, weightTotal float64
	for _, a := range assessments {
		w := consensusWeights[a.AnalyzerName] * a.Confidence
		weightedSum += w * a.PriorityScore
		weightTotal += w
	}
	if weightTotal == 0 {
		return averageScore(assessments)
	}
	return domain.Clamp01(weightedSum / weightTotal)
}

func averageScore(assessments []domain.Assessment) float64 {
	if len(assessments) == 0 {
		return 0
	}
	var sum float64
	for _, a := range assessments {
		sum += a.PriorityScore
	}
	return domain.Clamp01(sum / float64(len(assessments)))
}

// consensusUrgency implements §4.5's confidence-weighted majority vote,
// ties resolved to the higher urgency.
func consensusUrgency(assessments []domain.Assessment) domain.Urgency {
	weights := map[domain.Urgency]float64{}
	for _, a := range assessments {
		weights[a.Urgency] += a.Confidence
	}

	var best domain.Urgency
	bestWeight := -1.0
	for u, w := range weights {
		if w > bestWeight || (w == bestWeight && u.Higher(best)) {
			best, bestWeight = u, w
		}
	}
	return best
}

// consensusConfidence implements §4.5's mean-confidence-dampened-by-conflicts
// formula, floored at 0.1.
func consensusConfidence(assessments []domain.Assessment, conflictCount int) float64 {
	if len(assessments) == 0 {
		return 0.1
	}
	var sum float64
	for _, a := range assessments {
		sum += a.Confidence
	}
	mean := sum / float64(len(assessments))
	confidence := mean * (1 - 0.1*float64(conflictCount))
	if confidence < 0.1 {
		return 0.1
	}
	return confidence
}

func shouldEscalate(score, confidence float64, conflictCount int, urgency domain.Urgency, escalationThreshold float64) bool {
	if escalationThreshold == 0 {
		escalationThreshold = defaultEscalationThreshold
	}
	if score > escalationThreshold && confidence > escalationConfidenceFloor {
		return true
	}
	if conflictCount > escalationConflictCountThreshold {
		return true
	}
	return urgency == domain.UrgencyCritical
}

// unionLabels dedups suggested labels preserving first-seen order, capped
// at 4 (§4.5 "Labels").
func unionLabels(assessments []domain.Assessment) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, a := range assessments {
		for _, label := range a.SuggestedLabels {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			out = append(out, label)
			if len(out) == maxAppliedLabels {
				return out
			}
		}
	}
	return out
}

// composeRationale concatenates per-analyzer rationales from confident
// analyzers, in a stable analyzer-name order, falling back to a fixed
// phrase when none clear the confidence floor (§4.5 "Rationale").
func composeRationale(assessments []domain.Assessment) string {
	ordered := make([]domain.Assessment, len(assessments))
	copy(ordered, assessments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AnalyzerName < ordered[j].AnalyzerName })

	var parts []string
	for _, a := range ordered {
		if a.Confidence >= rationaleConfidenceFloor && a.Rationale != "" {
			parts = append(parts, a.Rationale)
		}
	}
	if len(parts) == 0 {
		return "limited confidence consensus"
	}
	rationale := parts[0]
	for _, p := range parts[1:] {
		rationale += "; " + p
	}
	return rationale
}
