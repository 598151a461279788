package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/infoase/internal/core/chunker"
	"github.com/agenthands/infoase/internal/core/model"
	"github.com/agenthands/infoase/internal/core/parser"
)

var wordCounter = chunker.CounterFunc(func(s string) int { return len(strings.Fields(s)) })

const twoParagraphs = "Alice lives in Delft with Bob\n\nWalter owns a bakery in Utrecht"

const (
	firstChunkResponse = `Nodes: [['Alice', 'Person', {'city': 'Delft'}], ['Bob', 'Person', {}]]
Relationships: [['Alice', 'KNOWS', 'Bob', {}], ['Alice', 'KNOWS', 'Carol', {}]]`
	secondChunkResponse = `Nodes: [['Walter', 'Person', {}], ['Bakery', 'Business', {}]]
Relationships: [['Walter', 'OWNS', 'Bakery', {}]]`
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newTestExtractor uses a three-word prompt so a 11 token window leaves
// eight words per chunk, which splits twoParagraphs in two.
func newTestExtractor(client *MockLLMClient, opts ...Option) *Extractor {
	base := []Option{
		WithPrompt(Prompt{System: "Extract."}),
		WithCounter(wordCounter),
		WithTokenBudget(11, 0),
		WithIDGenerator(sequentialIDs()),
	}
	return NewExtractor(client, append(base, opts...)...)
}

func TestRunAccumulatesLabelsAcrossChunks(t *testing.T) {
	client := &MockLLMClient{Responses: []string{firstChunkResponse, secondChunkResponse}}
	ex := newTestExtractor(client)

	res, err := ex.Run(context.Background(), twoParagraphs)
	require.NoError(t, err)
	require.Len(t, res.Fragments, 2)
	require.Equal(t, 2, client.Calls())

	assert.Contains(t, client.Prompts[0], "Types: []")
	assert.Contains(t, client.Prompts[0], "Data: Alice lives in Delft with Bob")
	assert.Contains(t, client.Prompts[1], "Types: ['Person']")
	assert.Contains(t, client.Prompts[1], "Data: Walter owns a bakery in Utrecht")

	assert.Equal(t, "id-1", res.RunID)
	assert.Equal(t, []string{"Person", "Business"}, res.Labels)

	first := res.Fragments[0]
	assert.Len(t, first.Nodes, 2)
	assert.Len(t, first.Relationships, 1)
	assert.Equal(t, "Alice lives in Delft with Bob", first.Source.Content)
	assert.Equal(t, 0, first.Source.Metadata[chunker.ChunkIndexKey])
	assert.Equal(t, 1, res.Fragments[1].Source.Metadata[chunker.ChunkIndexKey])

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, model.DiagUnknownTarget, res.Diagnostics[0].Code)
	assert.Equal(t, 0, res.Diagnostics[0].Chunk)
	assert.Equal(t, "carol", res.Diagnostics[0].Subject)

	g := res.Graph()
	assert.Equal(t, []string{"alice", "bob", "walter", "bakery"}, g.NodeIDs())
	assert.Len(t, g.Relationships, 2)
}

func TestRunAbortsOnMalformedChunk(t *testing.T) {
	client := &MockLLMClient{Responses: []string{firstChunkResponse, "Sorry, I cannot help with that."}}
	ex := newTestExtractor(client)

	res, err := ex.Run(context.Background(), twoParagraphs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrMalformedResponse))
	assert.Contains(t, err.Error(), "chunk 2/2")
	assert.Empty(t, res.Fragments)
	assert.Equal(t, 2, client.Calls())
}

func TestRunAbortsOnModelError(t *testing.T) {
	boom := errors.New("rate limited")
	client := &MockLLMClient{Err: boom}

	_, err := newTestExtractor(client).Run(context.Background(), twoParagraphs)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, client.Calls())
}

func TestRunRepairsMalformedResponse(t *testing.T) {
	client := &MockLLMClient{Responses: []string{"Here is the graph you asked for", firstChunkResponse}}
	ex := newTestExtractor(client, WithRepairAttempts(1))

	res, err := ex.Run(context.Background(), "Alice lives with Bob")
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	require.Equal(t, 2, client.Calls())

	fix := client.Prompts[1]
	assert.Contains(t, fix, "Completion:\n--------------\nHere is the graph you asked for")
	assert.Contains(t, fix, parser.SchemaHint)
	assert.Contains(t, fix, "did not satisfy the constraints")
}

func TestRepairGivesUpAfterAttempts(t *testing.T) {
	client := &MockLLMClient{Responses: []string{"no graph here"}}
	ex := newTestExtractor(client, WithRepairAttempts(2))

	_, err := ex.Run(context.Background(), "Alice lives with Bob")
	require.ErrorIs(t, err, parser.ErrMalformedResponse)
	assert.Equal(t, 3, client.Calls())
}

func TestRepairerLeavesGoodResponsesAlone(t *testing.T) {
	client := &MockLLMClient{Responses: []string{"unused"}}
	r := &Repairer{LLM: client, Attempts: 3}

	res, err := r.Parse(context.Background(), secondChunkResponse)
	require.NoError(t, err)
	assert.Len(t, res.Nodes, 2)
	assert.Equal(t, 0, client.Calls())
}

func TestRunBudgetExhausted(t *testing.T) {
	client := &MockLLMClient{Responses: []string{firstChunkResponse}}
	ex := newTestExtractor(client, WithTokenBudget(3, 0))

	_, err := ex.Run(context.Background(), twoParagraphs)
	require.ErrorIs(t, err, chunker.ErrTokenBudgetExhausted)
	assert.Equal(t, 0, client.Calls())
}

func TestRunNoDocuments(t *testing.T) {
	client := &MockLLMClient{Responses: []string{firstChunkResponse}}

	_, err := newTestExtractor(client).RunDocuments(context.Background(), nil)
	require.ErrorIs(t, err, chunker.ErrNoDocuments)
	assert.Equal(t, 0, client.Calls())
}

func TestRunHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &MockLLMClient{Responses: []string{firstChunkResponse}}

	_, err := newTestExtractor(client).Run(ctx, twoParagraphs)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, client.Calls())
}

func TestDefaultPrompt(t *testing.T) {
	p := DefaultPrompt()
	out := p.Render(InputWithLabels("Alice knows Bob", []string{"Person"}))

	assert.True(t, strings.HasPrefix(out, "System: You are a data scientist"))
	assert.Contains(t, out, parser.FormatInstructions())
	assert.Len(t, p.Examples, 2)
	assert.True(t, strings.HasSuffix(out, "\nHuman: \nData: Alice knows Bob\nTypes: ['Person']"))

	custom := NewPrompt("Only extract people.")
	assert.True(t, strings.HasPrefix(custom.System, "Only extract people.\n\n"))
}

func TestDefaultExamplesParse(t *testing.T) {
	for i, ex := range defaultExamples() {
		res, err := parser.Parse(ex.Output)
		require.NoError(t, err, "example %d", i)
		assert.Empty(t, res.Diagnostics, "example %d", i)
		assert.NotEmpty(t, res.Relationships, "example %d", i)
	}

	res, err := parser.Parse(defaultExamples()[0].Output)
	require.NoError(t, err)
	assert.Equal(t, "Alice", res.Nodes[0].Properties.Name())
	assert.Equal(t, "Persoon", res.Nodes[0].Type)
}

func TestInputWithLabels(t *testing.T) {
	assert.Equal(t, "\nData: x\nTypes: []", InputWithLabels("x", nil))
	assert.Equal(t, "\nData: x\nTypes: ['A', 'B']", InputWithLabels("x", []string{"A", "B"}))
	assert.Equal(t, `['O\'Brien']`, pyList([]string{"O'Brien"}))
}

func TestLabelSet(t *testing.T) {
	s := NewLabelSet("Person")
	s.Add("Business", "Person", "", "Place")
	assert.Equal(t, []string{"Person", "Business", "Place"}, s.List())
	assert.Equal(t, 3, s.Len())

	l := s.List()
	l[0] = "changed"
	assert.Equal(t, "Person", s.List()[0])
}
