package brief

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/llm"
	"github.com/ignite/inbox-agent/internal/pkg/logger"
)

// fallbackTemplate is the fixed template §4.8 requires when the LLM is
// unavailable: it "still conveys count, key participants, themes, and
// unread count." Rendered with osteele/liquid; this file is the only user
// of that engine in the codebase.
const fallbackTemplate = `{{ total }} messages came in on {{ date }}, {{ unread }} still unread.{% if people_list != "" %} Most active: {{ people_list }}.{% endif %}{% if theme_list != "" %} Recurring themes: {{ theme_list }}.{% endif %}`

// Generator produces a domain.DailyBrief from a day's messages (§4.8).
type Generator struct {
	LLM llm.Capability
}

// Generate computes rule-based facts and asks the LLM for a constrained
// narrative, falling back to a fixed template when the LLM is unavailable
// or returns an error.
func (g *Generator) Generate(ctx context.Context, dateUTC string, messages []domain.Message) (domain.DailyBrief, error) {
	f := computeFacts(dateUTC, messages)

	narrative, usedLLM := g.tryLLMNarrative(ctx, f)
	if !usedLLM {
		narrative = fallbackNarrative(f)
	}

	wordCount := len(strings.Fields(narrative.Narrative))

	return domain.DailyBrief{
		DateUTC:              dateUTC,
		TotalMessages:        f.TotalMessages,
		UnreadCount:          f.UnreadCount,
		CategoryHistogram:    f.CategoryHistogram,
		PriorityHistogram:    f.PriorityHistogram,
		Headline:             narrative.Headline,
		Narrative:            narrative.Narrative,
		ActionItems:          narrative.ActionItems,
		Deadlines:            narrative.Deadlines,
		KeyCharacters:        narrative.Characters,
		Themes:               themesOrFallback(narrative.Themes, f.Themes),
		EstimatedReadSeconds: domain.EstimateReadSeconds(wordCount),
		GeneratedAt:          time.Now(),
	}, nil
}

func (g *Generator) tryLLMNarrative(ctx context.Context, f facts) (llm.DailyNarrative, bool) {
	if g.LLM == nil {
		return llm.DailyNarrative{}, false
	}

	result, err := g.LLM.DailyNarrative(ctx, factsPrompt(f))
	if err != nil {
		logger.Warn("brief narrative fell back to rule-based template", "error", err.Error(), "date", f.DateUTC)
		return llm.DailyNarrative{}, false
	}
	return result, true
}

func factsPrompt(f facts) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Date: %s\n", f.DateUTC)
	fmt.Fprintf(&sb, "Total messages: %d (unread: %d)\n", f.TotalMessages, f.UnreadCount)
	fmt.Fprintf(&sb, "Peak hour (UTC): %02d:00\n", f.PeakHour)
	fmt.Fprintf(&sb, "Time of day split: morning=%d afternoon=%d evening=%d\n", f.MorningCount, f.AfternoonCount, f.EveningCount)

	if len(f.KeyPeople) > 0 {
		sb.WriteString("Most active senders: ")
		sb.WriteString(personList(f.KeyPeople))
		sb.WriteString("\n")
	}
	if len(f.Themes) > 0 {
		fmt.Fprintf(&sb, "Themes detected: %s\n", strings.Join(f.Themes, ", "))
	}
	if len(f.StoryArcs) > 0 {
		sb.WriteString("Story arcs:\n")
		for _, arc := range f.StoryArcs {
			fmt.Fprintf(&sb, "- %q (%d messages)\n", arc.Subject, len(arc.Messages))
		}
	}
	if len(f.UrgencyClusters) > 0 {
		sb.WriteString("Urgency clusters:\n")
		for _, c := range f.UrgencyClusters {
			fmt.Fprintf(&sb, "- %d urgent/high messages between %s and %s\n",
				len(c.Messages), c.Start.Format(time.Kitchen), c.End.Format(time.Kitchen))
		}
	}
	return sb.String()
}

func personList(people []personFrequency) string {
	parts := make([]string, 0, len(people))
	for _, p := range people {
		parts = append(parts, fmt.Sprintf("%s (%d)", p.Address, p.Count))
	}
	return strings.Join(parts, ", ")
}

func themesOrFallback(llmThemes, ruleThemes []string) []string {
	if len(llmThemes) > 0 {
		return llmThemes
	}
	return ruleThemes
}

var fallbackEngine = liquid.NewEngine()

func fallbackNarrative(f facts) llm.DailyNarrative {
	tmpl, err := fallbackEngine.ParseString(fallbackTemplate)
	bindings := map[string]any{
		"total":       f.TotalMessages,
		"date":        f.DateUTC,
		"unread":      f.UnreadCount,
		"people_list": personList(f.KeyPeople),
		"theme_list":  strings.Join(f.Themes, ", "),
	}

	var body string
	if err == nil {
		rendered, renderErr := tmpl.RenderString(bindings)
		if renderErr == nil {
			body = rendered
		}
	}
	if body == "" {
		body = fmt.Sprintf("%d messages came in on %s, %d still unread.", f.TotalMessages, f.DateUTC, f.UnreadCount)
	}

	return llm.DailyNarrative{
		Headline:  fmt.Sprintf("%d messages, %d unread on %s", f.TotalMessages, f.UnreadCount, f.DateUTC),
		Narrative: body,
		Themes:    f.Themes,
	}
}
