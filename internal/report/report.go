// Package report asks the completion service for a short narrative review
// and merges it into the persisted multi-period report document.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-pulse/internal/api"
	"market-pulse/internal/trace"
	"market-pulse/internal/types"
)

// Params configures the synthesizer
type Params struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Synthesizer generates one period's report entry. Unlike the classifier it
// propagates failures: a partial or garbled report must never reach the
// document, so the caller skips the write on error.
type Synthesizer struct {
	api   *api.Client
	model string
	now   func() time.Time
}

// New creates a report synthesizer
func New(p Params) *Synthesizer {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Synthesizer{
		api: api.NewClient(
			api.WithBaseURL(p.BaseURL),
			api.WithTimeout(timeout),
			api.WithHeader("Authorization", "Bearer "+p.APIKey),
		),
		model: p.Model,
		now:   time.Now,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Synthesize generates the narrative for one period and merges it into doc.
// A nil doc initializes a fresh document dated today; an existing document
// keeps its date and all entries for other periods. On error the input
// document is returned untouched.
func (s *Synthesizer) Synthesize(ctx context.Context, period string, doc *types.ReportDocument) (*types.ReportDocument, error) {
	ctx, span := trace.StartSpan(ctx, "synthesize-report")
	defer span.End()

	content, err := s.generate(ctx, period)
	if err != nil {
		return doc, fmt.Errorf("report generation failed for period %s: %w", period, err)
	}

	now := s.now()
	if doc == nil {
		doc = &types.ReportDocument{Date: now.Format("2006-01-02")}
	}
	doc.SetEntry(period, types.ReportEntry{
		Title:   fmt.Sprintf("%s review", period),
		Time:    now.Format("15:04"),
		Content: content,
	})
	return doc, nil
}

// generate sends the fixed prompt template and extracts the first message's
// text verbatim. No JSON parsing of the narrative itself.
func (s *Synthesizer) generate(ctx context.Context, period string) (string, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(period)},
		},
	}

	var resp chatResponse
	if err := s.api.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildPrompt(period string) string {
	return fmt.Sprintf("As a senior market analyst, write an A-share %s review. "+
		"Focus on index movements, leading sectors and capital flows. "+
		"Keep it under 200 words.", period)
}
