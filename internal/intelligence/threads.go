package intelligence

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
)

var replyPrefixRe = regexp.MustCompile(`(?i)^(re|fwd|fw)\s*:\s*`)

// threadTypeFamilies maps a ThreadType to the keyword regexes whose hits are
// counted against it; a type is assigned only when at least two distinct
// family members match the thread's concatenated text (§4.4 "classify
// threadType by counting regex families ... ≥2 hits required").
var threadTypeFamilies = map[domain.ThreadType][]*regexp.Regexp{
	domain.ThreadDecision: {
		regexp.MustCompile(`(?i)decide`), regexp.MustCompile(`(?i)approval`),
		regexp.MustCompile(`(?i)sign[\s-]?off`), regexp.MustCompile(`(?i)go[\s-]?ahead`),
	},
	domain.ThreadEscalation: {
		regexp.MustCompile(`(?i)escalat`), regexp.MustCompile(`(?i)urgent`),
		regexp.MustCompile(`(?i)critical`), regexp.MustCompile(`(?i)blocking`),
	},
	domain.ThreadTransactional: {
		regexp.MustCompile(`(?i)invoice`), regexp.MustCompile(`(?i)receipt`),
		regexp.MustCompile(`(?i)order`), regexp.MustCompile(`(?i)payment`),
	},
	domain.ThreadDiscussion: {
		regexp.MustCompile(`(?i)thoughts`), regexp.MustCompile(`(?i)feedback`),
		regexp.MustCompile(`(?i)discuss`), regexp.MustCompile(`(?i)opinion`),
	},
}

// threadTypePriority fixes the evaluation order classifyThreadType walks
// threadTypeFamilies in. Map iteration order is randomized per-process, so
// iterating the map directly would make a hit-count tie (e.g. "decide" and
// "escalat" each matching twice) resolve to whichever family the runtime
// happened to visit first — nondeterministic across runs of the same
// message set. Iterating this fixed slice instead makes a tie resolve
// toward the earlier entry, always DECISION over ESCALATION and so on.
var threadTypePriority = []domain.ThreadType{
	domain.ThreadDecision,
	domain.ThreadEscalation,
	domain.ThreadTransactional,
	domain.ThreadDiscussion,
}

var statusMarkers = map[domain.ThreadStatus]*regexp.Regexp{
	domain.ThreadResolved:  regexp.MustCompile(`(?i)\bresolved\b`),
	domain.ThreadEscalated: regexp.MustCompile(`(?i)\bescalated\b`),
	domain.ThreadStalled:   regexp.MustCompile(`(?i)\bstalled\b`),
}

var decisionLineRe = regexp.MustCompile(`(?i)^\s*(decided|decision)\s*:\s*(.+)$`)
var openActionLineRe = regexp.MustCompile(`(?i)^\s*(action item|todo|next step)s?\s*:\s*(.+)$`)
var waitingForLineRe = regexp.MustCompile(`(?i)^\s*waiting (on|for)\s*:\s*(.+)$`)

// foldThreads updates next.Threads in place from batch, recomputing each
// touched thread's derived fields from its full accumulated message set.
func foldThreads(next *Snapshot, batch []domain.Message) {
	touched := map[string][]domain.Message{}
	for _, m := range batch {
		if m.ThreadID == "" {
			continue
		}
		touched[m.ThreadID] = append(touched[m.ThreadID], m)
	}

	for threadID, newMsgs := range touched {
		profile := next.Threads[threadID]
		profile.ThreadID = threadID
		profile.MessageCount += len(newMsgs)

		participants := toSet(profile.Participants)
		sort.Slice(newMsgs, func(i, j int) bool { return newMsgs[i].ReceivedAt.Before(newMsgs[j].ReceivedAt) })

		var gaps []time.Duration
		prevReceivedAt := profile.LastMessageAt
		for _, m := range newMsgs {
			participants[m.Sender.Address] = struct{}{}
			for _, r := range m.Recipients {
				participants[r.Address] = struct{}{}
			}
			if profile.FirstMessageAt.IsZero() || m.ReceivedAt.Before(profile.FirstMessageAt) {
				profile.FirstMessageAt = m.ReceivedAt
			}
			if !prevReceivedAt.IsZero() && m.ReceivedAt.After(prevReceivedAt) {
				gaps = append(gaps, m.ReceivedAt.Sub(prevReceivedAt))
			}
			if m.ReceivedAt.After(profile.LastMessageAt) {
				profile.LastMessageAt = m.ReceivedAt
				prevReceivedAt = m.ReceivedAt
			}
			profile.SubjectEvolution = appendSubjectEvolution(profile.SubjectEvolution, m.Subject)

			for _, line := range strings.Split(m.BodyText, "\n") {
				if match := decisionLineRe.FindStringSubmatch(line); match != nil {
					profile.Decisions = appendUnique(profile.Decisions, strings.TrimSpace(match[2]))
				}
				if match := openActionLineRe.FindStringSubmatch(line); match != nil {
					profile.OpenActions = appendUnique(profile.OpenActions, strings.TrimSpace(match[2]))
				}
				if match := waitingForLineRe.FindStringSubmatch(line); match != nil {
					profile.WaitingFor = appendUnique(profile.WaitingFor, strings.TrimSpace(match[2]))
				}
			}
		}
		profile.Participants = fromSet(participants)

		text := strings.ToLower(strings.Join(profile.SubjectEvolution, " "))
		profile.ThreadType = classifyThreadType(text)
		profile.Status = classifyThreadStatus(text, profile.LastMessageAt)
		profile.ResponseRhythm = responseRhythmFor(gaps)
		if hasEscalationHit(text) {
			profile.EscalationHits++
		}

		next.Threads[threadID] = profile
	}
}

func appendSubjectEvolution(existing []string, subject string) []string {
	stripped := stripReplyPrefixes(subject)
	for _, s := range existing {
		if s == stripped {
			return existing
		}
	}
	return append(existing, stripped)
}

func stripReplyPrefixes(subject string) string {
	s := subject
	for {
		stripped := replyPrefixRe.ReplaceAllString(s, "")
		if stripped == s {
			return strings.TrimSpace(s)
		}
		s = stripped
	}
}

func classifyThreadType(text string) domain.ThreadType {
	best := domain.ThreadDiscussion
	bestHits := 0
	for _, t := range threadTypePriority {
		hits := 0
		for _, re := range threadTypeFamilies[t] {
			if re.MatchString(text) {
				hits++
			}
		}
		if hits >= 2 && hits > bestHits {
			best, bestHits = t, hits
		}
	}
	return best
}

func classifyThreadStatus(text string, lastMessageAt time.Time) domain.ThreadStatus {
	for status, re := range statusMarkers {
		if re.MatchString(text) {
			return status
		}
	}
	age := time.Since(lastMessageAt)
	switch {
	case age <= 3*24*time.Hour:
		return domain.ThreadActive
	case age <= 14*24*time.Hour:
		return domain.ThreadDormant
	default:
		return domain.ThreadStalled
	}
}

func hasEscalationHit(text string) bool {
	return statusMarkers[domain.ThreadEscalated].MatchString(text)
}

func appendUnique(existing []string, value string) []string {
	if value == "" {
		return existing
	}
	for _, v := range existing {
		if v == value {
			return existing
		}
	}
	return append(existing, value)
}

// responseRhythmFor bands the median gap between consecutive messages in a
// thread into a ResponseRhythm tier.
func responseRhythmFor(gaps []time.Duration) domain.ResponseRhythm {
	if len(gaps) == 0 {
		return domain.RhythmNormal
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	median := gaps[len(gaps)/2]
	switch {
	case median <= time.Hour:
		return domain.RhythmImmediate
	case median <= 6*time.Hour:
		return domain.RhythmFast
	case median <= 24*time.Hour:
		return domain.RhythmNormal
	case median <= 72*time.Hour:
		return domain.RhythmSlow
	default:
		return domain.RhythmStalled
	}
}

func fromSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
