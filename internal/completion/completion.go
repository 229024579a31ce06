// Package completion adapts text-completion providers to the roadmap
// normalizer.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

// ErrNoCredentials is returned when a provider that needs an API key has none.
var ErrNoCredentials = errors.New("completion provider has no API key")

// ErrDisabled is returned by the "none" provider.
var ErrDisabled = errors.New("completion provider disabled")

// Completer produces a completion for a system instruction and a prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMCompleter sends prompts to a langchaingo model.
type LLMCompleter struct {
	model       llms.Model
	provider    string
	temperature float64
	logger      *slog.Logger
}

// NewLLMCompleter wraps model. provider is used in logs and results.
func NewLLMCompleter(model llms.Model, provider string, temperature float64, logger *slog.Logger) *LLMCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMCompleter{
		model:       model,
		provider:    provider,
		temperature: temperature,
		logger:      logger,
	}
}

// Provider returns the provider name.
func (c *LLMCompleter) Provider() string {
	return c.provider
}

// Complete sends system and prompt as a two-message conversation and returns
// the first choice's text.
func (c *LLMCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", trackrerrors.ErrCompletionTimeout(time.Since(start).Round(time.Millisecond).String()).WithCause(err)
		}
		return "", fmt.Errorf("%s completion: %w", c.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s completion: empty response", c.provider)
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	c.logger.Debug("completion received",
		"provider", c.provider,
		"duration", time.Since(start),
		"chars", len(text),
	)
	return text, nil
}

// Unavailable is a Completer that always fails with its reason. It stands in
// for providers that cannot be constructed so callers fall back locally.
type Unavailable struct {
	Reason error
}

// Complete always returns a COMPLETION_UNAVAILABLE error.
func (u Unavailable) Complete(context.Context, string, string) (string, error) {
	reason := "no provider"
	if u.Reason != nil {
		reason = u.Reason.Error()
	}
	return "", trackrerrors.ErrCompletionUnavailable(reason).WithCause(u.Reason)
}
