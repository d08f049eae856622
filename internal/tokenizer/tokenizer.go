// Package tokenizer counts language-model tokens for budget enforcement.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	tiktoken.SetBpeLoader(bpeLoader{
		offline: tiktoken_loader.NewOfflineLoader(),
		online:  tiktoken.NewDefaultBpeLoader(),
	})
}

// bpeLoader reads BPE ranks embedded in the binary and downloads only encodings it does not carry.
type bpeLoader struct {
	offline tiktoken.BpeLoader
	online  tiktoken.BpeLoader
}

func (l bpeLoader) LoadTiktokenBpe(file string) (map[string]int, error) {
	if ranks, err := l.offline.LoadTiktokenBpe(file); err == nil {
		return ranks, nil
	}
	return l.online.LoadTiktokenBpe(file) //nolint:wrapcheck // wrapped by NewTiktoken
}

// Encodings accepted by New.
const (
	EncodingCL100K = "cl100k_base"
	EncodingO200K  = "o200k_base"
	EncodingWords  = "words"
)

// Tokenizer counts the tokens a text occupies.
type Tokenizer interface {
	Count(text string) int
}

// New returns a tokenizer for the named encoding. Empty defaults to cl100k_base.
func New(encoding string) (Tokenizer, error) {
	switch encoding {
	case "", EncodingCL100K:
		return NewTiktoken(EncodingCL100K)
	case EncodingWords:
		return Words{}, nil
	default:
		return NewTiktoken(encoding)
	}
}

// Tiktoken counts BPE tokens with an OpenAI encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads a BPE encoding by name.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Count returns the number of BPE tokens, treating special-token text as plain text.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.EncodeOrdinary(text))
}

// Words approximates tokens as whitespace-separated words.
// Used in tests that pin token counts to word counts.
type Words struct{}

// Count returns the number of whitespace-separated fields.
func (Words) Count(text string) int {
	return len(strings.Fields(text))
}
