package tokenizer

import (
	"errors"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// ErrUnavailable reports that the underlying encoding could not be
// constructed. Chunking must abort for the document in that case; falling
// back to character counts would silently violate token budgets.
var ErrUnavailable = errors.New("tokenizer unavailable")

const defaultEncoding = "cl100k_base"

// Codec counts tokens against a tiktoken encoding. It is safe for concurrent
// use and deterministic for identical input.
type Codec struct {
	enc *tiktoken.Tiktoken
}

// New builds a Codec for the named encoding (empty selects the default).
func New(encoding string) (*Codec, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: get encoding %q: %v", ErrUnavailable, encoding, err)
	}
	return &Codec{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Codec) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
