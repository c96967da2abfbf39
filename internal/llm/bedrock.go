package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/inbox-agent/internal/pkg/backoff"
	"github.com/ignite/inbox-agent/internal/pkg/logger"
)

// bedrockMessage and bedrockRequest/bedrockResponse mirror the Anthropic
// messages API shape Bedrock's Claude models expect.
type bedrockMessage struct {
	Role    string        `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []contentBlock `json:"content"`
}

// retryPolicy is deliberately much shorter than backoff.DefaultPolicy,
// which is sized for the connector's rate-limit backoff (§5: initial 30s,
// capped at 10min) — an LLM call already has its own 30s timeout, so a
// retry delay in that range would blow the budget for the whole analyzer.
var retryPolicy = backoff.Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

// Bedrock implements Capability against AWS Bedrock. Every call is
// constrained by a system prompt instructing the model to reply with only
// the target JSON shape; a response that fails to unmarshal is retried once
// (§5 "retry once with exponential backoff on transient errors") before
// returning ErrUnavailable.
type Bedrock struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrock builds a Bedrock capability using the default AWS credential
// chain, matching the teacher's BedrockAgent construction.
func NewBedrock(ctx context.Context, region, modelID string) (*Bedrock, error) {
	if region == "" {
		region = "us-east-1"
	}
	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("llm: load aws config: %w", err)
	}
	return &Bedrock{client: bedrockruntime.NewFromConfig(cfg), modelID: modelID}, nil
}

func (b *Bedrock) invoke(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        2000,
		System:           systemPrompt + "\n\nReply with ONLY a single JSON object matching the requested shape. No prose, no markdown fences.",
		Messages:         []bedrockMessage{{Role: "user", Content: []contentBlock{{Type: "text", Text: userPrompt}}}},
		Temperature:      0.2,
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ErrUnavailable
			case <-time.After(retryPolicy.Delay(attempt)):
			}
		}
		if err := b.call(ctx, req, out); err != nil {
			lastErr = err
			logger.Warn("llm: bedrock call failed", "attempt", attempt, "error", err)
			continue
		}
		return nil
	}
	logger.Error("llm: bedrock unavailable after retries", "error", lastErr)
	return ErrUnavailable
}

func (b *Bedrock) call(ctx context.Context, req bedrockRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("bedrock invoke: %w", err)
	}

	var parsed bedrockResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return fmt.Errorf("parse bedrock response: %w", err)
	}

	var text strings.Builder
	for _, c := range parsed.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	if err := json.Unmarshal([]byte(extractJSONObject(text.String())), out); err != nil {
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	return nil
}

// extractJSONObject trims anything outside the outermost {...} pair, since
// models occasionally wrap JSON in prose or a markdown fence despite the
// system prompt's instruction.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func (b *Bedrock) StrategicAnalysis(ctx context.Context, subject, body, senderContext string) (StrategicAnalysis, error) {
	var out StrategicAnalysis
	prompt := fmt.Sprintf("Subject: %s\nSender context: %s\nBody:\n%s\n\nShape: {labels:[string], strategicImportance:critical|high|medium|low, requiresAction:bool, delegationHint?:string, estMinutesToHandle:int, keyInsight:string, decisionPoints:[string], sentiment:positive|neutral|negative|urgent}", subject, senderContext, body)
	err := b.invoke(ctx, "You are an executive assistant triaging a single email for strategic importance.", prompt, &out)
	return out, err
}

func (b *Bedrock) ThreadSummary(ctx context.Context, threadText string) (ThreadSummary, error) {
	var out ThreadSummary
	prompt := fmt.Sprintf("Thread:\n%s\n\nShape: {summary:string, keyDecisions:[string], actionItems:[{action,owner?,deadline?}], status:resolved|ongoing|stalled|escalated, priority:string, sentiment:string, nextSteps:[string]}", threadText)
	err := b.invoke(ctx, "You summarize an email thread into structured state.", prompt, &out)
	return out, err
}

func (b *Bedrock) DailyNarrative(ctx context.Context, factsPrompt string) (DailyNarrative, error) {
	var out DailyNarrative
	prompt := fmt.Sprintf("%s\n\nShape: {headline:string, narrative:string (150-200 words), actionItems:[string], deadlines:[string], characters:[string], themes:[string]}", factsPrompt)
	err := b.invoke(ctx, "You write a daily inbox narrative brief from the supplied facts.", prompt, &out)
	return out, err
}

func (b *Bedrock) UrgencyScore(ctx context.Context, subject, body string) (UrgencyScore, error) {
	var out UrgencyScore
	prompt := fmt.Sprintf("Subject: %s\nBody:\n%s\n\nShape: {score: number in [0,1]}", subject, body)
	err := b.invoke(ctx, "You rate how urgently an email requires a reply, 0 (none) to 1 (immediate).", prompt, &out)
	return out, err
}
