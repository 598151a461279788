package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding matches the GPT-3.5/4 family tokenizer.
const DefaultEncoding = "cl100k_base"

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// CounterFunc adapts a plain function to TokenCounter.
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int { return f(text) }

// RuneCounter over-estimates tokens for most languages; it needs no
// encoding files.
var RuneCounter = CounterFunc(utf8.RuneCountInString)

// TiktokenCounter counts BPE tokens with a tiktoken encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding; an empty name selects
// DefaultEncoding.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
