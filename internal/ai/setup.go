package ai

import (
	"fmt"
	"log/slog"

	"github.com/p-n-ai/curriculum-atlas/internal/platform/config"
)

// NewRouterFromConfig registers every configured provider in fallback order:
// OpenAI, Anthropic, DeepSeek, OpenRouter, then Ollama. An empty router is
// not an error; its Complete returns ErrNoProvider.
func NewRouterFromConfig(cfg config.AIConfig) (*Router, error) {
	router := NewRouter()

	if key := cfg.OpenAI.APIKey; key != "" {
		p, err := NewOpenAIProvider(key, WithModel(cfg.OpenAI.Model))
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		router.Register("openai", p)
	}
	if key := cfg.Anthropic.APIKey; key != "" {
		p, err := NewAnthropicProvider(key, cfg.Anthropic.Model)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		router.Register("anthropic", p)
	}
	if key := cfg.DeepSeek.APIKey; key != "" {
		p, err := NewDeepSeekProvider(key, WithModel(cfg.DeepSeek.Model))
		if err != nil {
			return nil, fmt.Errorf("deepseek provider: %w", err)
		}
		router.Register("deepseek", p)
	}
	if key := cfg.OpenRouter.APIKey; key != "" {
		p, err := NewOpenRouterProvider(key, WithModel(cfg.OpenRouter.Model))
		if err != nil {
			return nil, fmt.Errorf("openrouter provider: %w", err)
		}
		router.Register("openrouter", p)
	}
	if cfg.Ollama.Enabled {
		p, err := NewOllamaProvider(cfg.Ollama.URL, cfg.Ollama.Model)
		if err != nil {
			return nil, fmt.Errorf("ollama provider: %w", err)
		}
		router.Register("ollama", p)
	}

	slog.Info("ai providers configured", "providers", router.Names(), "models", router.Models())
	return router, nil
}
