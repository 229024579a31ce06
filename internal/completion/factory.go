package completion

import (
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/randalmurphal/trackr/internal/config"
)

// New builds the completer selected by cfg. Missing credentials yield
// ErrNoCredentials; provider "none" yields ErrDisabled.
func New(cfg config.CompletionConfig, logger *slog.Logger) (*LLMCompleter, error) {
	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewLLMCompleter(model, cfg.Provider, cfg.Temperature, logger), nil
}

// NewOrUnavailable is New, but a failure becomes an Unavailable completer so
// the normalizer degrades to its local fallback.
func NewOrUnavailable(cfg config.CompletionConfig, logger *slog.Logger) Completer {
	c, err := New(cfg, logger)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Debug("completion provider unavailable", "provider", cfg.Provider, "error", err)
		return Unavailable{Reason: err}
	}
	return c
}

func newModel(cfg config.CompletionConfig) (llms.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return createOpenAI(cfg)
	case config.ProviderAnthropic:
		return createAnthropic(cfg)
	case config.ProviderOllama:
		return createOllama(cfg)
	case config.ProviderNone, "":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}
}

func createOpenAI(cfg config.CompletionConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoCredentials
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

func createAnthropic(cfg config.CompletionConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoCredentials
	}
	if cfg.BaseURL != "" {
		return nil, fmt.Errorf("anthropic does not support a custom base URL")
	}
	return anthropic.New(
		anthropic.WithModel(cfg.Model),
		anthropic.WithToken(cfg.APIKey),
	)
}

func createOllama(cfg config.CompletionConfig) (llms.Model, error) {
	opts := []ollama.Option{
		ollama.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	return ollama.New(opts...)
}
