package brief

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/llm"
)

func TestGenerate_UsesLLMNarrativeWhenAvailable(t *testing.T) {
	g := &Generator{LLM: &llm.Fake{
		Narrative: llm.DailyNarrative{
			Headline:  "Quiet day",
			Narrative: "Nothing much happened today across the inbox.",
			Themes:    []string{"Operations"},
		},
	}}

	messages := []domain.Message{
		msg("a@x.com", "t1", "Status", "", domain.PriorityNormal, true, time.Now()),
	}

	b, err := g.Generate(context.Background(), "2026-07-20", messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Headline != "Quiet day" {
		t.Fatalf("expected LLM headline used, got %q", b.Headline)
	}
	if len(b.Themes) != 1 || b.Themes[0] != "Operations" {
		t.Fatalf("expected LLM themes used, got %+v", b.Themes)
	}
}

func TestGenerate_FallsBackToTemplateWhenLLMErrors(t *testing.T) {
	g := &Generator{LLM: &llm.Fake{Err: errors.New("timeout")}}

	messages := []domain.Message{
		msg("a@x.com", "t1", "Invoice", "billing details attached", domain.PriorityNormal, false, time.Now()),
	}

	b, err := g.Generate(context.Background(), "2026-07-20", messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Narrative == "" {
		t.Fatal("expected a non-empty fallback narrative")
	}
	if b.UnreadCount != 1 {
		t.Fatalf("expected unread count carried through fallback, got %d", b.UnreadCount)
	}
}

func TestGenerate_FallsBackWhenNoLLMConfigured(t *testing.T) {
	g := &Generator{}

	messages := []domain.Message{
		msg("a@x.com", "t1", "Hi", "", domain.PriorityNormal, true, time.Now()),
	}

	b, err := g.Generate(context.Background(), "2026-07-20", messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Narrative == "" {
		t.Fatal("expected a non-empty fallback narrative with no LLM configured")
	}
}

// TestScenarioF_DailyNarrativeBrief exercises the documented "15 messages,
// 3 high-priority, 2 unread, a reply chain of 4, one identifiable theme"
// day end to end. The LLM narrative/actionItems bounds (word count,
// headline, action items) are only reachable through the LLM path —
// Generator's no-LLM fallback template never populates ActionItems and
// produces at most three short sentences — so this seeds llm.Fake with a
// narrative sized to land inside the documented bounds, the same way
// TestGenerate_UsesLLMNarrativeWhenAvailable does.
func TestScenarioF_DailyNarrativeBrief(t *testing.T) {
	base := time.Date(2026, 7, 29, 8, 0, 0, 0, time.UTC)

	var messages []domain.Message
	// 4-message reply chain on one thread, themed around the product roadmap.
	messages = append(messages,
		msg("pm@co.example", "thread-roadmap", "Q3 roadmap kickoff", "Let's align on the roadmap", domain.PriorityNormal, true, base),
		msg("eng@co.example", "thread-roadmap", "Re: Q3 roadmap kickoff", "Agreed, roadmap looks solid", domain.PriorityNormal, true, base.Add(30*time.Minute)),
		msg("pm@co.example", "thread-roadmap", "Re: Q3 roadmap kickoff", "One more roadmap tweak", domain.PriorityNormal, false, base.Add(time.Hour)),
		msg("design@co.example", "thread-roadmap", "Re: Q3 roadmap kickoff", "Launch timing works for roadmap", domain.PriorityHigh, true, base.Add(90*time.Minute)),
	)
	// 2nd and 3rd high-priority messages, plus the remaining unread message.
	messages = append(messages,
		msg("vip@co.example", "", "Budget sign-off needed", "", domain.PriorityHigh, true, base.Add(2*time.Hour)),
		msg("ops@co.example", "", "Deploy window", "", domain.PriorityHigh, false, base.Add(3*time.Hour)),
	)
	// Pad out to 15 total with ordinary read, normal-priority traffic.
	for i := 0; i < 9; i++ {
		messages = append(messages, msg(
			fmt.Sprintf("sender%d@co.example", i), "",
			fmt.Sprintf("Status update %d", i), "",
			domain.PriorityNormal, true, base.Add(time.Duration(4+i)*time.Hour),
		))
	}

	if len(messages) != 15 {
		t.Fatalf("test setup error: expected 15 messages, got %d", len(messages))
	}

	narrative := strings.Repeat("word ", 150)
	g := &Generator{LLM: &llm.Fake{
		Narrative: llm.DailyNarrative{
			Headline:    "Roadmap alignment drives a busy product day",
			Narrative:   strings.TrimSpace(narrative),
			ActionItems: []string{"Confirm budget sign-off with finance"},
			Themes:      []string{"Product"},
		},
	}}

	b, err := g.Generate(context.Background(), "2026-07-29", messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.TotalMessages != 15 {
		t.Fatalf("expected totalMessages=15, got %d", b.TotalMessages)
	}
	if b.UnreadCount != 2 {
		t.Fatalf("expected unreadCount=2, got %d", b.UnreadCount)
	}
	if b.Headline == "" || strings.Contains(b.Headline, "\n") {
		t.Fatalf("expected exactly one headline line, got %q", b.Headline)
	}
	wordCount := len(strings.Fields(b.Narrative))
	if wordCount < 120 || wordCount > 220 {
		t.Fatalf("expected narrative word count in [120,220], got %d", wordCount)
	}
	if len(b.ActionItems) < 1 {
		t.Fatalf("expected at least one action item, got %+v", b.ActionItems)
	}
	if len(b.Themes) < 1 {
		t.Fatalf("expected at least one theme, got %+v", b.Themes)
	}
	if b.EstimatedReadSeconds < 30 || b.EstimatedReadSeconds > 90 {
		t.Fatalf("expected estimatedReadSeconds in [30,90], got %d", b.EstimatedReadSeconds)
	}
}

func TestGenerate_EstimatesReadSecondsFromNarrativeWordCount(t *testing.T) {
	g := &Generator{LLM: &llm.Fake{
		Narrative: llm.DailyNarrative{
			Headline:  "h",
			Narrative: "one two three four five six seven eight nine ten",
		},
	}}

	b, err := g.Generate(context.Background(), "2026-07-20", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.EstimateReadSeconds(10)
	if b.EstimatedReadSeconds != want {
		t.Fatalf("expected %d read seconds, got %d", want, b.EstimatedReadSeconds)
	}
}
