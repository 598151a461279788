// Package chunker splits source documents into pieces that fit the model's
// context window next to the extraction prompt.
package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/agenthands/infoase/internal/core/model"
)

const (
	// DefaultSafetyMargin is subtracted from the token budget on top of the
	// prompt itself.
	DefaultSafetyMargin = 400

	ChunkIndexKey    = "chunk_index"
	DocumentIndexKey = "document_index"
)

// DefaultSeparators go from paragraph to sentence to word to a hard break.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

var (
	ErrTokenBudgetExhausted = errors.New("prompt leaves no room for input")
	ErrNoDocuments          = errors.New("no documents to split")
)

// ConfigError reports a chunking setup that can never succeed.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return "chunker: " + e.Reason + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Budget returns the chunk size left once the prompt and the safety margin
// are taken out of maxTokens.
func Budget(maxTokens, promptOverhead, safetyMargin int) (int, error) {
	size := maxTokens - promptOverhead - safetyMargin
	if size <= 0 {
		return 0, &ConfigError{
			Reason: fmt.Sprintf("max tokens %d minus prompt %d minus margin %d is %d",
				maxTokens, promptOverhead, safetyMargin, size),
			Err: ErrTokenBudgetExhausted,
		}
	}
	return size, nil
}

// Document is one input text with caller metadata.
type Document struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type Chunker struct {
	Counter    TokenCounter
	ChunkSize  int
	Separators []string
	NewID      func() string
}

// New returns a chunker measuring chunkSize with counter. A nil counter
// counts runes.
func New(counter TokenCounter, chunkSize int) *Chunker {
	if counter == nil {
		counter = RuneCounter
	}
	return &Chunker{
		Counter:    counter,
		ChunkSize:  chunkSize,
		Separators: DefaultSeparators,
		NewID:      uuid.NewString,
	}
}

// Split cuts docs into ordered chunks without overlap. Every chunk keeps
// its document's metadata plus chunk_index and document_index.
func (c *Chunker) Split(docs []Document) ([]model.Source, error) {
	if c.ChunkSize <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("chunk size %d", c.ChunkSize), Err: ErrTokenBudgetExhausted}
	}

	input := make([]schema.Document, 0, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		meta := make(map[string]interface{}, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			meta[k] = v
		}
		meta[DocumentIndexKey] = i
		input = append(input, schema.Document{PageContent: d.Text, Metadata: meta})
	}
	if len(input) == 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("%d documents, none with text", len(docs)), Err: ErrNoDocuments}
	}

	separators := c.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.ChunkSize),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators(separators),
		textsplitter.WithKeepSeparator(true),
		textsplitter.WithLenFunc(c.Counter.Count),
	)

	pieces, err := textsplitter.SplitDocuments(splitter, input)
	if err != nil {
		return nil, fmt.Errorf("failed to split documents: %w", err)
	}

	newID := c.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	chunks := make([]model.Source, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p.PageContent) == "" {
			continue
		}
		meta := make(map[string]interface{}, len(p.Metadata)+1)
		for k, v := range p.Metadata {
			meta[k] = v
		}
		meta[ChunkIndexKey] = len(chunks)
		chunks = append(chunks, model.Source{
			ID:       newID(),
			Content:  p.PageContent,
			Metadata: meta,
		})
	}
	return chunks, nil
}
