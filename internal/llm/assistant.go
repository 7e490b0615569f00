package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"SLH-Bot/pkg/logger"
)

const (
	// FallbackMessage is shown when no provider is configured or a call fails.
	FallbackMessage = "🤖 מצטער, שירות AI לא זמין כרגע."
	// UsageMessage answers an empty /ai command.
	UsageMessage = "🤖 שלח שאלה אחרי הפקודה, לדוגמה: /ai מה זה SLH?"

	maxQuestionRunes = 2000
	defaultTimeout   = 30 * time.Second
)

// Assistant wraps a provider client for chat use.
type Assistant struct {
	client  Client
	system  string
	timeout time.Duration
	logger  *slog.Logger
}

// AssistantOption customises an Assistant.
type AssistantOption func(*Assistant)

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(prompt string) AssistantOption {
	return func(a *Assistant) {
		if strings.TrimSpace(prompt) != "" {
			a.system = prompt
		}
	}
}

// WithTimeout bounds a single question.
func WithTimeout(d time.Duration) AssistantOption {
	return func(a *Assistant) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithAssistantLogger sets the logger used for provider failures.
func WithAssistantLogger(l *slog.Logger) AssistantOption {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAssistant accepts a nil client; every answer is then FallbackMessage.
func NewAssistant(client Client, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		client:  client,
		system:  DefaultSystemPrompt,
		timeout: defaultTimeout,
		logger:  logger.Named("llm"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enabled reports whether a provider is configured.
func (a *Assistant) Enabled() bool {
	return a != nil && a.client != nil
}

// Ask returns the model's answer or a user-facing fallback.
func (a *Assistant) Ask(ctx context.Context, question string) string {
	return a.AskAs(ctx, "", question)
}

// AskAs is Ask with a one-off system prompt. An empty system keeps the
// configured one.
func (a *Assistant) AskAs(ctx context.Context, system, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return UsageMessage
	}
	if !a.Enabled() {
		return FallbackMessage
	}
	if runes := []rune(question); len(runes) > maxQuestionRunes {
		question = string(runes[:maxQuestionRunes])
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if strings.TrimSpace(system) == "" {
		system = a.system
	}
	resp, err := a.client.Generate(ctx, Request{System: system, Question: question})
	if err != nil {
		a.logger.Warn("AI 请求失败", slog.Any("error", err))
		return FallbackMessage
	}
	reply := strings.TrimSpace(resp.Reply)
	if reply == "" {
		return FallbackMessage
	}
	return reply
}
