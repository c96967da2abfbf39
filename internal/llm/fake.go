package llm

import "context"

// Fake is a deterministic, in-memory Capability for tests and LLM-free local
// runs — analyzers depend only on the Capability interface (Design Notes
// "global mutable state" redesign), so this substitutes cleanly.
type Fake struct {
	Strategic StrategicAnalysis
	Thread    ThreadSummary
	Narrative DailyNarrative
	Urgency   UrgencyScore
	Err       error
}

func (f *Fake) StrategicAnalysis(ctx context.Context, subject, body, senderContext string) (StrategicAnalysis, error) {
	return f.Strategic, f.Err
}

func (f *Fake) ThreadSummary(ctx context.Context, threadText string) (ThreadSummary, error) {
	return f.Thread, f.Err
}

func (f *Fake) DailyNarrative(ctx context.Context, factsPrompt string) (DailyNarrative, error) {
	return f.Narrative, f.Err
}

func (f *Fake) UrgencyScore(ctx context.Context, subject, body string) (UrgencyScore, error) {
	return f.Urgency, f.Err
}
