// Package llm defines the constrained JSON capability analyzers and brief
// generation depend on, and a Bedrock-backed implementation of it. Callers
// never receive free-form text: every Capability method unmarshals into one
// of the four fixed result shapes from §6.
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the capability cannot produce a result —
// timeout, transport failure, or output that fails JSON-schema validation.
// Callers degrade to a low-confidence Assessment per §7's "LLMUnavailable"
// kind rather than propagating this further.
var ErrUnavailable = errors.New("llm: capability unavailable")

// DefaultTimeout is the per-call timeout (§5 "LLM calls have a per-call
// timeout (default 30s)").
const DefaultTimeout = 30 * time.Second

// StrategicAnalysis is JSON shape 1 (§6).
type StrategicAnalysis struct {
	Labels              []string `json:"labels"`
	StrategicImportance string   `json:"strategicImportance"` // critical|high|medium|low
	RequiresAction      bool     `json:"requiresAction"`
	DelegationHint      string   `json:"delegationHint,omitempty"`
	EstMinutesToHandle  int      `json:"estMinutesToHandle"`
	KeyInsight          string   `json:"keyInsight"`
	DecisionPoints      []string `json:"decisionPoints"`
	Sentiment           string   `json:"sentiment"` // positive|neutral|negative|urgent
}

// ThreadActionItem is one entry of ThreadSummary.ActionItems.
type ThreadActionItem struct {
	Action   string `json:"action"`
	Owner    string `json:"owner,omitempty"`
	Deadline string `json:"deadline,omitempty"`
}

// ThreadSummary is JSON shape 2 (§6).
type ThreadSummary struct {
	Summary      string             `json:"summary"`
	KeyDecisions []string           `json:"keyDecisions"`
	ActionItems  []ThreadActionItem `json:"actionItems"`
	Status       string             `json:"status"` // resolved|ongoing|stalled|escalated
	Priority     string             `json:"priority"`
	Sentiment    string             `json:"sentiment"`
	NextSteps    []string           `json:"nextSteps"`
}

// DailyNarrative is JSON shape 3 (§6).
type DailyNarrative struct {
	Headline    string   `json:"headline"`
	Narrative   string   `json:"narrative"`
	ActionItems []string `json:"actionItems"`
	Deadlines   []string `json:"deadlines"`
	Characters  []string `json:"characters"`
	Themes      []string `json:"themes"`
}

// UrgencyScore is JSON shape 4 (§6).
type UrgencyScore struct {
	Score float64 `json:"score"` // [0,1]
}

// Capability is the LLM boundary analyzers and brief generation depend on
// (Design Notes "global mutable state" redesign: injected, not a package
// singleton, so tests substitute a fake).
type Capability interface {
	StrategicAnalysis(ctx context.Context, subject, body, senderContext string) (StrategicAnalysis, error)
	ThreadSummary(ctx context.Context, threadText string) (ThreadSummary, error)
	DailyNarrative(ctx context.Context, factsPrompt string) (DailyNarrative, error)
	UrgencyScore(ctx context.Context, subject, body string) (UrgencyScore, error)
}
