// Package assist wraps the optional text-assist service: summaries, tag
// suggestions and effort estimates. Every call is best effort: on any
// failure the caller gets a fixed fallback value and the error is logged.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/item"
)

// Fallback values returned when the service fails or is disabled.
const (
	FallbackSummary = "Could not summarize text."
	FallbackEffort  = "Could not estimate effort."
)

// MaxSuggestedTags caps a tag suggestion.
const MaxSuggestedTags = 3

const systemPrompt = "You are a concise assistant for a personal task inbox. Answer with the requested content only."

// Text is a text-valued assist result.
type Text struct {
	Value    string `json:"value"`
	Fallback bool   `json:"fallback"`
}

// Tags is a tag-suggestion result.
type Tags struct {
	Values   []string `json:"values"`
	Fallback bool     `json:"fallback"`
}

// Assistant is the text-assist contract the core consumes.
type Assistant interface {
	Summarize(ctx context.Context, text string) Text
	SuggestTags(ctx context.Context, it *item.Item) Tags
	EstimateEffort(ctx context.Context, it *item.Item) Text
}

// Completer sends a prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Service implements Assistant over a Completer. A nil Completer means
// assists are disabled and every call returns its fallback.
type Service struct {
	llm     Completer
	timeout time.Duration
	logger  *slog.Logger
}

// NewService builds a Service. timeout bounds each call; zero means none.
func NewService(llm Completer, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{llm: llm, timeout: timeout, logger: logger}
}

// FromConfig builds a Service from the assist settings. An empty provider
// yields a disabled service.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg.Assist.Provider == "" {
		return NewService(nil, 0, logger), nil
	}
	client, err := NewClient(cfg.Assist.Provider, cfg.Assist.APIKey,
		WithBaseURL(cfg.Assist.BaseURL),
		WithModel(cfg.Assist.Model),
	)
	if err != nil {
		return nil, err
	}
	return NewService(client, cfg.AssistTimeout(), logger), nil
}

// Enabled reports whether a model is configured.
func (s *Service) Enabled() bool {
	return s.llm != nil
}

func (s *Service) complete(ctx context.Context, op, prompt string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("assist is not configured")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	out, err := s.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "assist call failed", "op", op, "error", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Summarize returns a one- or two-sentence summary of text.
func (s *Service) Summarize(ctx context.Context, text string) Text {
	prompt := "Summarize the following text in one or two sentences:\n\n" + PlainText(text)
	out, err := s.complete(ctx, "summarize", prompt)
	if err != nil || out == "" {
		return Text{Value: FallbackSummary, Fallback: true}
	}
	return Text{Value: out}
}

// SuggestTags proposes up to three tags for it.
func (s *Service) SuggestTags(ctx context.Context, it *item.Item) Tags {
	prompt := fmt.Sprintf(`Based on the following item, suggest up to %d relevant tags.
Title: %s
Content: %s
Existing Tags: %s

Return a JSON array of strings. For example: ["project-x", "urgent", "marketing"]`,
		MaxSuggestedTags, it.Title, PlainText(it.Body), strings.Join(it.Tags, ", "))

	out, err := s.complete(ctx, "suggest_tags", prompt)
	if err != nil {
		return Tags{Values: []string{}, Fallback: true}
	}
	tags, err := parseTags(out)
	if err != nil {
		s.logger.WarnContext(ctx, "assist returned unparseable tags", "op", "suggest_tags", "error", err)
		return Tags{Values: []string{}, Fallback: true}
	}
	return Tags{Values: tags}
}

// EstimateEffort returns a time-based estimate such as "1 hour".
func (s *Service) EstimateEffort(ctx context.Context, it *item.Item) Text {
	prompt := fmt.Sprintf(`Estimate the effort required for the following task. Provide a common time-based estimate like "15 minutes", "1 hour", "4 hours", or "1 day".
Title: %s
Content: %s`, it.Title, PlainText(it.Body))

	out, err := s.complete(ctx, "estimate_effort", prompt)
	if err != nil || out == "" {
		return Text{Value: FallbackEffort, Fallback: true}
	}
	return Text{Value: out}
}

// parseTags reads a JSON string array from a model reply, tolerating code
// fences and surrounding prose.
func parseTags(reply string) ([]string, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in reply")
	}
	var raw []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, err
	}
	tags := item.NormalizeTags(raw)
	if len(tags) > MaxSuggestedTags {
		tags = tags[:MaxSuggestedTags]
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
