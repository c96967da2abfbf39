package analyzers

import (
	"context"
	"regexp"
	"strings"

	"github.com/ignite/inbox-agent/internal/domain"
)

// spamContentIndicators are regexes counted toward the "multi-indicator
// content" half of §4.3.5's veto condition; two or more distinct hits count
// as a match.
var spamContentIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you('ve)? won`),
	regexp.MustCompile(`(?i)claim (now|your)`),
	regexp.MustCompile(`(?i)click here`),
	regexp.MustCompile(`(?i)act now`),
	regexp.MustCompile(`(?i)100% (free|guaranteed)`),
	regexp.MustCompile(`(?i)limited time offer`),
	regexp.MustCompile(`(?i)wire transfer`),
	regexp.MustCompile(`(?i)congratulations`),
}

// suspiciousDomainSuffixes flags sender domains commonly abused for spam
// relay (disposable/free registrar TLDs seen in the reference fixture set).
// This is a heuristic stand-in for a real reputation lookup, which is out of
// this spec's scope.
var suspiciousDomainSuffixes = []string{".top", ".xyz", ".click", ".loan", ".work", ".review"}

// wellKnownTLDs are treated as legitimate regardless of the label that
// precedes them; a hyphenated label under any other TLD reads the same as a
// disposable marketing/prize-scam domain (e.g. "lottery-prize.example").
var wellKnownTLDs = map[string]bool{
	"com": true, "org": true, "net": true, "edu": true, "gov": true,
	"io": true, "co": true, "ai": true, "app": true, "dev": true,
	"me": true, "info": true, "biz": true, "us": true, "uk": true,
}

// SpamFilter vetoes the Collaborator's bucket decision outright when a
// message looks like spam and the sender carries no strategic standing
// (§4.3.5).
type SpamFilter struct{}

func (a *SpamFilter) Name() string { return "spam" }

func (a *SpamFilter) Assess(ctx context.Context, m *domain.Message, idx IndexReader) domain.Assessment {
	hits := countSpamIndicators(m.Subject + " " + m.BodyText)
	suspiciousDomain := hasSuspiciousDomain(m.SenderDomain())

	strategic := domain.StrategicLow
	if profile, ok := idx.SenderProfile(m.Sender.Address); ok {
		strategic = profile.StrategicClass
	}
	exempt := strategic == domain.StrategicHigh || strategic == domain.StrategicCritical

	assessment := domain.Assessment{
		AnalyzerName:  a.Name(),
		PriorityScore: 0.1,
		Confidence:    0.5,
		Urgency:       domain.UrgencyLow,
		Rationale:     "no spam indicators matched",
	}

	if hits < 2 || !suspiciousDomain {
		return assessment
	}
	if exempt {
		assessment.Rationale = "spam indicators matched but sender has strategic standing"
		return assessment
	}

	assessment.Veto = true
	assessment.VetoBucket = domain.BucketSpamFolder
	assessment.Confidence = 0.9
	assessment.Rationale = "multiple spam content indicators from a suspicious sender domain"
	return assessment
}

func countSpamIndicators(text string) int {
	count := 0
	for _, re := range spamContentIndicators {
		if re.MatchString(text) {
			count++
		}
	}
	return count
}

func hasSuspiciousDomain(senderDomain string) bool {
	lower := strings.ToLower(senderDomain)
	for _, suffix := range suspiciousDomainSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	labels := strings.Split(lower, ".")
	if len(labels) < 2 {
		return false
	}
	tld := labels[len(labels)-1]
	label := labels[len(labels)-2]
	return !wellKnownTLDs[tld] && strings.Contains(label, "-")
}
