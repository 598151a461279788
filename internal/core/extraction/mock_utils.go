package extraction

import (
	"context"
	"fmt"
	"sync"
)

// MockLLMClient replays Responses in order and records every prompt. Once
// the responses run out the last one repeats. Err, when set, is returned
// for every call.
type MockLLMClient struct {
	Responses []string
	Err       error

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock llm: no responses configured")
	}
	i := len(m.Prompts) - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
