// Package classify turns a news (title, body) pair into an industry tag,
// an importance score and a short rationale by delegating to a local
// text-completion service. It never fails outward: every error path
// degrades to a defined neutral result so a slow or dead classifier can
// only soften scores, not block the pipeline.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"market-pulse/internal/api"
	"market-pulse/internal/logger"
	"market-pulse/internal/trace"
)

// Fallback values used when the completion service is unreachable or its
// output cannot be parsed. These exact strings are part of the persisted
// record contract.
const (
	FallbackIndustry  = "unclassified"
	FallbackScore     = 50
	ReasonUnavailable = "classification service unavailable"
	ReasonParseFailed = "failed to parse classification result"
)

// Defaults substituted per field when the response is valid JSON but a key
// is missing.
const (
	DefaultIndustry = "general"
	DefaultScore    = 50
)

// maxBodyRunes bounds how much article body is sent to the model.
const maxBodyRunes = 500

// Result is the classification triple for one news item.
type Result struct {
	Industry string
	Score    int // always in [0,100]
	Reason   string
}

// Params configures the classifier
type Params struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Classifier calls the completion service's generate endpoint once per
// invocation, with no retries.
type Classifier struct {
	api   *api.Client
	model string
}

// New creates a classifier
func New(p Params) *Classifier {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{
		api: api.NewClient(
			api.WithBaseURL(p.BaseURL),
			api.WithTimeout(timeout),
		),
		model: p.Model,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Classify analyzes one news item. All failures are converted into the
// fallback triple; callers never see an error.
func (c *Classifier) Classify(ctx context.Context, title, body string) Result {
	ctx, span := trace.StartSpan(ctx, "classify-news")
	defer span.End()

	req := generateRequest{
		Model:  c.model,
		Prompt: buildPrompt(title, body),
		Stream: false,
		Format: "json",
	}

	var resp generateResponse
	if err := c.api.PostJSON(ctx, "/api/generate", req, &resp); err != nil {
		logger.ErrorWithErr(ctx, "Classification call failed", err, "title", title)
		return Result{Industry: FallbackIndustry, Score: FallbackScore, Reason: ReasonUnavailable}
	}

	result, err := parseResult(resp.Response)
	if err != nil {
		logger.Warn(ctx, "Classification response unparseable", "error", err, "title", title)
		return Result{Industry: FallbackIndustry, Score: FallbackScore, Reason: ReasonParseFailed}
	}
	return result
}

// buildPrompt asks for strict JSON with exactly the three fields the
// parser extracts.
func buildPrompt(title, body string) string {
	if runes := []rune(body); len(runes) > maxBodyRunes {
		body = string(runes[:maxBodyRunes])
	}

	return fmt.Sprintf(`You are a financial news analyst. Analyze this news item:
Title: %s
Content: %s

Tasks:
1. Name the industry sector it belongs to (e.g. "Food & Beverage - Liquor", "Electronics - Semiconductors", "Macro - Monetary Policy").
2. Give an importance score from 0 to 100, where 0 is irrelevant noise and 100 is a major market-moving event.
3. State the reason in one short sentence.

Respond with strict JSON only, no markdown fences:
{
  "industry": "sector name",
  "score": 85,
  "reason": "..."
}`, title, body)
}

// parseResult defensively extracts the triple from the model's text blob.
// Missing fields get per-field defaults; a score that is present but not a
// number is treated as a parse failure, as is anything that is not a JSON
// object.
func parseResult(text string) (Result, error) {
	text = stripFences(text)
	if text == "" {
		return Result{}, fmt.Errorf("empty response")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Result{}, fmt.Errorf("invalid JSON: %w", err)
	}

	result := Result{Industry: DefaultIndustry, Score: DefaultScore}

	if v, ok := fields["industry"]; ok {
		if s, ok := v.(string); ok && s != "" {
			result.Industry = s
		}
	}
	if v, ok := fields["score"]; ok {
		n, err := coerceScore(v)
		if err != nil {
			return Result{}, err
		}
		result.Score = clampScore(n)
	}
	if v, ok := fields["reason"]; ok {
		if s, ok := v.(string); ok {
			result.Reason = s
		}
	}
	return result, nil
}

// stripFences removes markdown code fences some models wrap around their
// JSON despite instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	return text
}

// coerceScore accepts JSON numbers and numeric strings; anything else is a
// parse failure for the whole triple.
func coerceScore(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("score not coercible to an integer: %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("score not coercible to an integer: %v", v)
	}
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
