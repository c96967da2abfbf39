// Package brief implements the narrative brief generator, the Scheduler's
// brief phase sub-component (§4.8). It derives rule-based facts from a
// day's messages, asks the LLM capability for a constrained narrative, and
// falls back to a fixed template when the LLM is unavailable.
package brief

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

// storyArc is a group of ≥2 messages sharing a thread or a reply-stripped
// subject (§4.8 "story arcs").
type storyArc struct {
	Key      string
	Subject  string
	Messages []domain.Message
}

// urgencyCluster is ≥2 urgent/high-priority messages within a 2h window
// (§4.8 "urgency clusters").
type urgencyCluster struct {
	Start    time.Time
	End      time.Time
	Messages []domain.Message
}

// facts is the rule-based factual substrate fed to the LLM prompt and to
// the fallback template when the LLM is unavailable.
type facts struct {
	DateUTC           string
	TotalMessages     int
	UnreadCount       int
	CategoryHistogram map[domain.Category]int
	PriorityHistogram map[domain.Priority]int
	KeyPeople         []personFrequency
	StoryArcs         []storyArc
	MorningCount      int
	AfternoonCount    int
	EveningCount      int
	PeakHour          int
	Themes            []string
	UrgencyClusters   []urgencyCluster
}

type personFrequency struct {
	Address string
	Count   int
}

var replyPrefixRe = regexp.MustCompile(`(?i)^(re|fwd?):\s*`)

// defaultThemeKeywords is the fixed rule-based theme map (§4.8 "7 default
// themes").
var defaultThemeKeywords = map[string][]string{
	"Finance":    {"invoice", "payment", "budget", "expense", "revenue", "billing"},
	"Legal":      {"contract", "agreement", "nda", "compliance", "legal", "sign"},
	"Product":    {"feature", "roadmap", "launch", "release", "bug", "spec"},
	"Hiring":     {"candidate", "interview", "offer", "recruiter", "hiring", "onboarding"},
	"Sales":      {"deal", "proposal", "quote", "pricing", "customer", "renewal"},
	"Operations": {"incident", "outage", "deploy", "infrastructure", "on-call", "maintenance"},
	"Personal":   {"lunch", "vacation", "birthday", "thanks", "congrats", "welcome"},
}

func computeFacts(dateUTC string, messages []domain.Message) facts {
	f := facts{
		DateUTC:           dateUTC,
		TotalMessages:     len(messages),
		CategoryHistogram: map[domain.Category]int{},
		PriorityHistogram: map[domain.Priority]int{},
	}

	peopleCounts := map[string]int{}
	hourCounts := map[int]int{}
	arcs := map[string]*storyArc{}
	var arcOrder []string

	for _, m := range messages {
		if !m.IsRead {
			f.UnreadCount++
		}
		f.CategoryHistogram[m.Category]++
		f.PriorityHistogram[m.Priority]++
		peopleCounts[m.Sender.Address]++

		hour := m.ReceivedAt.UTC().Hour()
		hourCounts[hour]++
		switch {
		case hour < 12:
			f.MorningCount++
		case hour < 18:
			f.AfternoonCount++
		default:
			f.EveningCount++
		}

		key := m.ThreadID
		subject := stripReplyPrefix(m.Subject)
		if key == "" {
			key = "subject:" + strings.ToLower(subject)
		}
		arc, ok := arcs[key]
		if !ok {
			arc = &storyArc{Key: key, Subject: subject}
			arcs[key] = arc
			arcOrder = append(arcOrder, key)
		}
		arc.Messages = append(arc.Messages, m)
	}

	f.PeakHour = peakHour(hourCounts)
	f.KeyPeople = topPeople(peopleCounts, 5)

	for _, key := range arcOrder {
		arc := arcs[key]
		if len(arc.Messages) >= 2 {
			f.StoryArcs = append(f.StoryArcs, *arc)
		}
	}

	f.Themes = detectThemes(messages)
	f.UrgencyClusters = detectUrgencyClusters(messages)

	return f
}

func peakHour(hourCounts map[int]int) int {
	best, bestCount := 0, -1
	for h := 0; h < 24; h++ {
		if hourCounts[h] > bestCount {
			best, bestCount = h, hourCounts[h]
		}
	}
	return best
}

func topPeople(counts map[string]int, n int) []personFrequency {
	out := make([]personFrequency, 0, len(counts))
	for addr, c := range counts {
		out = append(out, personFrequency{Address: addr, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Address < out[j].Address
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func detectThemes(messages []domain.Message) []string {
	hits := map[string]int{}
	for _, m := range messages {
		text := strings.ToLower(m.Subject + " " + m.BodyText)
		for theme, keywords := range defaultThemeKeywords {
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					hits[theme]++
					break
				}
			}
		}
	}
	themes := make([]string, 0, len(hits))
	for theme := range hits {
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool {
		if hits[themes[i]] != hits[themes[j]] {
			return hits[themes[i]] > hits[themes[j]]
		}
		return themes[i] < themes[j]
	})
	return themes
}

// urgencyClusterWindow is the §4.8 clustering window.
const urgencyClusterWindow = 2 * time.Hour

func detectUrgencyClusters(messages []domain.Message) []urgencyCluster {
	var urgent []domain.Message
	for _, m := range messages {
		if m.Priority == domain.PriorityUrgent || m.Priority == domain.PriorityHigh {
			urgent = append(urgent, m)
		}
	}
	sort.Slice(urgent, func(i, j int) bool { return urgent[i].ReceivedAt.Before(urgent[j].ReceivedAt) })

	var clusters []urgencyCluster
	i := 0
	for i < len(urgent) {
		j := i + 1
		for j < len(urgent) && urgent[j].ReceivedAt.Sub(urgent[i].ReceivedAt) <= urgencyClusterWindow {
			j++
		}
		if j-i >= 2 {
			clusters = append(clusters, urgencyCluster{
				Start:    urgent[i].ReceivedAt,
				End:      urgent[j-1].ReceivedAt,
				Messages: urgent[i:j],
			})
		}
		i = j
	}
	return clusters
}

func stripReplyPrefix(subject string) string {
	s := subject
	for {
		stripped := replyPrefixRe.ReplaceAllString(s, "")
		if stripped == s {
			return strings.TrimSpace(s)
		}
		s = stripped
	}
}
