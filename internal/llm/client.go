package llm

import (
	"context"
)

// LLMClient is a text completion model. Completions are untrusted text.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateFunc adapts a function to LLMClient.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
