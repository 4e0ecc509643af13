package services

import (
	"context"

	"mediahub/config"
	"mediahub/logger"
)

// NewProvider builds the language model selected by cfg. A nil Provider with a
// nil error means fallback-only mode.
func NewProvider(ctx context.Context, cfg *config.Config, log *logger.Logger) (Provider, error) {
	switch cfg.LLMProvider {
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			log.Warn("OPENAI_API_KEY not set, analysis will use the fallback scorer")
			return nil, nil
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.LLMTimeout,
		}), nil
	case ProviderGemini:
		if cfg.GeminiKey == "" {
			log.Warn("GEMINI_API_KEY not set, analysis will use the fallback scorer")
			return nil, nil
		}
		g, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.GeminiKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiURL,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, nil
	}
}
