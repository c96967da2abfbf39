package analyzers

import (
	"context"
	"errors"

	"github.com/ignite/inbox-agent/internal/llm"
)

// erroringLLM always fails, for exercising analyzers' LLM-unavailable
// degradation path (§4.3 "must tolerate ... LLM errors").
type erroringLLM struct{}

func (e *erroringLLM) StrategicAnalysis(ctx context.Context, subject, body, senderContext string) (llm.StrategicAnalysis, error) {
	return llm.StrategicAnalysis{}, errors.New("unavailable")
}

func (e *erroringLLM) ThreadSummary(ctx context.Context, threadText string) (llm.ThreadSummary, error) {
	return llm.ThreadSummary{}, errors.New("unavailable")
}

func (e *erroringLLM) DailyNarrative(ctx context.Context, factsPrompt string) (llm.DailyNarrative, error) {
	return llm.DailyNarrative{}, errors.New("unavailable")
}

func (e *erroringLLM) UrgencyScore(ctx context.Context, subject, body string) (llm.UrgencyScore, error) {
	return llm.UrgencyScore{}, errors.New("unavailable")
}
