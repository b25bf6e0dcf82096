// Package tokenizer supplies the cost function that all budget math is
// priced in. The real encoder is tiktoken's cl100k_base (a good
// approximation across providers); when the encoding cannot be loaded
// a bytes-per-token heuristic takes over.
package tokenizer

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// CostFunc prices a string in the host's token units. All clipping and
// selection treats it as opaque.
type CostFunc func(text string) int

// Tokenizer wraps a tiktoken encoding for token counting.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New creates a Tokenizer using the cl100k_base encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding: %w", err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}

// Cost returns t.Count as a CostFunc.
func (t *Tokenizer) Cost() CostFunc { return t.Count }

// Heuristic returns an approximate cost function:
// tokens ≈ ceil(len(bytes)/bytesPerToken). bytesPerToken <= 0 selects
// the conventional default of 4.
func Heuristic(bytesPerToken int) CostFunc {
	bpt := bytesPerToken
	if bpt <= 0 {
		bpt = 4
	}
	return func(s string) int {
		n := len(s)
		if n == 0 {
			return 0
		}
		return (n + bpt - 1) / bpt
	}
}

// Default returns the tiktoken cost function, falling back to the
// 4-bytes-per-token heuristic when the encoding is unavailable.
func Default() CostFunc {
	t, err := New()
	if err != nil {
		return Heuristic(0)
	}
	return t.Cost()
}
