// Package nlp turns raw utterances into scored intent candidates. Both steps
// are pure: normalization is deterministic and idempotent, and scoring depends
// only on the query and the lexicon, never on session state.
package nlp

import (
	"errors"
	"strings"
	"unicode"

	"buddy-agent/internal/domain"
)

// ErrEmptyInput is returned when an utterance contains no scoreable text.
// The engine routes it straight to the fallback handler.
var ErrEmptyInput = errors.New("nlp: empty input")

// Normalize lower-cases the text, strips punctuation, collapses whitespace and
// tokenizes. Normalizing an already-normalized query returns the same value.
func Normalize(text string) (domain.NormalizedQuery, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'':
			// Drop apostrophes entirely so "what's" and "whats" normalize
			// identically.
			return -1
		default:
			return ' '
		}
	}, text)

	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return domain.NormalizedQuery{}, ErrEmptyInput
	}

	return domain.NormalizedQuery{
		Raw:    text,
		Text:   strings.Join(tokens, " "),
		Tokens: tokens,
	}, nil
}
