package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wordCounter = CounterFunc(func(text string) int { return len(strings.Fields(text)) })

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("chunk-%d", n)
	}
}

func TestBudget(t *testing.T) {
	size, err := Budget(4096, 596, DefaultSafetyMargin)
	require.NoError(t, err)
	assert.Equal(t, 3100, size)

	_, err = Budget(1000, 700, 400)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenBudgetExhausted))

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSplitKeepsWordsInOrderAndRespectsSize(t *testing.T) {
	text := "Alice lives in Delft with Bob\n\n" +
		"Bob works as a journalist for the local paper and writes about the city council every week\n\n" +
		"Walter owns a bakery"

	c := New(wordCounter, 6)
	c.NewID = sequentialIDs()

	chunks, err := c.Split([]Document{{Text: text, Metadata: map[string]interface{}{"title": "notes"}}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	var words []string
	for i, ch := range chunks {
		assert.LessOrEqual(t, wordCounter.Count(ch.Content), 6, ch.Content)
		assert.Equal(t, fmt.Sprintf("chunk-%d", i+1), ch.ID)
		assert.Equal(t, i, ch.Metadata[ChunkIndexKey])
		assert.Equal(t, 0, ch.Metadata[DocumentIndexKey])
		assert.Equal(t, "notes", ch.Metadata["title"])
		words = append(words, strings.Fields(ch.Content)...)
	}
	assert.Equal(t, strings.Fields(text), words)
}

func TestSplitKeepsSentencePunctuation(t *testing.T) {
	text := "Alice lives in Delft. Bob works in Leiden. Walter owns a bakery."

	chunks, err := New(wordCounter, 6).Split([]Document{{Text: text}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var contents []string
	for _, ch := range chunks {
		contents = append(contents, ch.Content)
	}
	joined := strings.Join(contents, " ")
	assert.Equal(t, strings.Count(text, "."), strings.Count(joined, "."), joined)
	assert.Contains(t, joined, "Delft")
	assert.Contains(t, joined, "bakery.")
}

func TestSplitSmallDocumentIsOneChunk(t *testing.T) {
	chunks, err := New(wordCounter, 100).Split([]Document{{Text: "Alice knows Bob"}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Alice knows Bob", chunks[0].Content)
	assert.NotEmpty(t, chunks[0].ID)
}

func TestSplitMultipleDocuments(t *testing.T) {
	docs := []Document{
		{Text: "first document"},
		{Text: "   "},
		{Text: "third document", Metadata: map[string]interface{}{"source": "c.txt"}},
	}
	chunks, err := New(wordCounter, 100).Split(docs)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].Metadata[DocumentIndexKey])
	assert.Equal(t, 2, chunks[1].Metadata[DocumentIndexKey])
	assert.Equal(t, 1, chunks[1].Metadata[ChunkIndexKey])
	assert.Equal(t, "c.txt", chunks[1].Metadata["source"])
	assert.Nil(t, docs[2].Metadata[DocumentIndexKey])
}

func TestSplitNoDocuments(t *testing.T) {
	for _, docs := range [][]Document{nil, {{Text: ""}, {Text: "\n"}}} {
		_, err := New(wordCounter, 10).Split(docs)
		assert.ErrorIs(t, err, ErrNoDocuments)
	}
}

func TestSplitRejectsNonPositiveSize(t *testing.T) {
	_, err := New(wordCounter, 0).Split([]Document{{Text: "x"}})
	assert.ErrorIs(t, err, ErrTokenBudgetExhausted)
}

func TestNewDefaultsToRuneCounter(t *testing.T) {
	c := New(nil, 10)
	assert.Equal(t, 5, c.Counter.Count("héllo"))
}
