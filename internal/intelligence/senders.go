package intelligence

import (
	"sort"
	"strings"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

// relationshipBonus is §4.4's sender-index relationship bonus table.
var relationshipBonus = map[domain.RelationshipClass]float64{
	domain.RelationshipFounder:         45,
	domain.RelationshipBoard:           40,
	domain.RelationshipInvestor:        35,
	domain.RelationshipVendorCritical:  30,
	domain.RelationshipCustomer:        25,
	domain.RelationshipTeam:            20,
	domain.RelationshipVendorImportant: 15,
}

const recentWindow = 30 * 24 * time.Hour

var subjectStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "for": {},
	"re": {}, "fwd": {}, "on": {}, "in": {}, "is": {}, "your": {}, "you": {}, "with": {},
}

// foldSenders updates next.Senders in place from batch, keeping whatever
// aggregate state already existed in next (cloned from the prior snapshot
// by the caller).
func foldSenders(next *Snapshot, batch []domain.Message, vip map[string]struct{}, strategicDomains map[string]domain.RelationshipClass, internalDomains map[string]struct{}) {
	now := time.Now()

	for _, m := range batch {
		addr := m.Sender.Address
		if addr == "" {
			continue
		}
		p, existed := next.Senders[addr]
		if !existed {
			p = domain.SenderProfile{Address: addr, DisplayName: m.Sender.DisplayName, FirstSeen: m.SentAt}
		}

		p.TotalMessages++
		if now.Sub(m.ReceivedAt) <= recentWindow {
			p.RecentMessages++
		}
		if p.FirstSeen.IsZero() || (!m.SentAt.IsZero() && m.SentAt.Before(p.FirstSeen)) {
			p.FirstSeen = m.SentAt
		}
		if m.ReceivedAt.After(p.LastSeen) {
			p.LastSeen = m.ReceivedAt
		}
		if p.DisplayName == "" {
			p.DisplayName = m.Sender.DisplayName
		}

		p.RelationshipClass = relationshipClassFor(addr, p.RelationshipClass, internalDomains, strategicDomains)
		p.ImportanceScore = importanceScore(p, vip)
		p.StrategicClass = domain.StrategicClassFor(p.ImportanceScore, p.RelationshipClass)
		p.TopKeywords = updateTopKeywords(p.TopKeywords, m.Subject)

		next.Senders[addr] = p
	}
}

func relationshipClassFor(address string, existing domain.RelationshipClass, internalDomains map[string]struct{}, strategicDomains map[string]domain.RelationshipClass) domain.RelationshipClass {
	if existing != "" && existing != domain.RelationshipUnknown {
		return existing
	}
	domainPart := strings.ToLower(domainOf(address))
	if _, ok := internalDomains[domainPart]; ok {
		return domain.RelationshipInternal
	}
	if class, ok := strategicDomains[domainPart]; ok {
		return class
	}
	return domain.RelationshipUnknown
}

func domainOf(address string) string {
	i := strings.LastIndexByte(address, '@')
	if i < 0 {
		return ""
	}
	return address[i+1:]
}

// importanceScore implements §4.4's formula:
// clamp(2*totalCount + 5*recentCount + relationshipBonus + vipBonus, 0, 100).
func importanceScore(p domain.SenderProfile, vip map[string]struct{}) float64 {
	score := 2*float64(p.TotalMessages) + 5*float64(p.RecentMessages) + relationshipBonus[p.RelationshipClass]
	if _, ok := vip[p.Address]; ok {
		score += 20
	}
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// updateTopKeywords folds a subject line's non-stopword tokens into a
// running top-5 keyword list (frequency tracked implicitly by re-sorting
// each fold; this package only persists the ranked list, not raw counts,
// per SenderProfile's shape).
func updateTopKeywords(existing []string, subject string) []string {
	counts := make(map[string]int, len(existing)+4)
	for i, k := range existing {
		counts[k] = len(existing) - i // preserve existing rank as weight
	}
	for _, tok := range tokenize(subject) {
		counts[tok]++
	}

	keywords := make([]string, 0, len(counts))
	for k := range counts {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	return keywords
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 3 {
			continue
		}
		if _, stop := subjectStopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
