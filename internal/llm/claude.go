package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// defaultClaudeMaxTokens is used when no cap is configured; the messages
// API requires one.
const defaultClaudeMaxTokens = 4096

type ClaudeClient struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewClaudeClient(apiKey string, model string, baseURL string, maxTokens int) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}
	return &ClaudeClient{
		client:    anthropic.NewClient(apiKey, opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// WithTemperature sets the sampling temperature sent with every request.
func (c *ClaudeClient) WithTemperature(temperature float32) *ClaudeClient {
	c.temperature = temperature
	return c
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: &c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("claude completion failed: %w", err)
	}

	var sb strings.Builder
	for _, part := range resp.Content {
		if part.Text != nil {
			sb.WriteString(*part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no response content")
	}
	return sb.String(), nil
}
