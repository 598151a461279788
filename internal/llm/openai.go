package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIClient(apiKey string, model string, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return newOpenAIClient(config, model)
}

// NewAzureOpenAIClient talks to an Azure OpenAI resource. Every model name
// maps to the one deployment.
func NewAzureOpenAIClient(apiKey, endpoint, apiVersion, deployment, model string) *OpenAIClient {
	config := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		config.APIVersion = apiVersion
	}
	if deployment != "" {
		config.AzureModelMapperFunc = func(string) string { return deployment }
	}
	return newOpenAIClient(config, model)
}

func newOpenAIClient(config openai.ClientConfig, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// WithSampling sets the temperature and the completion length cap.
func (c *OpenAIClient) WithSampling(temperature float32, maxTokens int) *OpenAIClient {
	c.temperature = temperature
	c.maxTokens = maxTokens
	return c
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("no response choices")
}
