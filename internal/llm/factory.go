package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/infoase/internal/config"
)

const defaultOllamaURL = "http://localhost:11434"

func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL).
			WithSampling(cfg.Temperature, cfg.MaxOutputTokens), nil

	case "azure":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("azure provider needs base_url set to the resource endpoint")
		}
		return NewAzureOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.APIVersion, cfg.Deployment, cfg.Model).
			WithSampling(cfg.Temperature, cfg.MaxOutputTokens), nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c.WithSampling(cfg.Temperature, cfg.MaxOutputTokens), nil

	case "claude":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxOutputTokens).
			WithTemperature(cfg.Temperature), nil

	case "ollama":
		// Ollama serves an OpenAI-compatible API under /v1 and ignores the key.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, baseURL).
			WithSampling(cfg.Temperature, cfg.MaxOutputTokens), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
