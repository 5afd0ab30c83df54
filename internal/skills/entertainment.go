package skills

import (
	"context"
	"sync/atomic"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

// JokeSkill serves jokes from a static rotation. Content is static data; the
// skill never fails.
type JokeSkill struct {
	jokes []string
	next  atomic.Uint64
}

var defaultJokes = []string{
	"Why don't scientists trust atoms? Because they make up everything!",
	"Why did the scarecrow win an award? He was outstanding in his field!",
	"Why don't programmers like nature? It has too many bugs.",
	"I told my wife she was drawing her eyebrows too high. She looked surprised.",
	"What do you call a fake noodle? An impasta!",
}

func NewJokeSkill(jokes ...string) *JokeSkill {
	if len(jokes) == 0 {
		jokes = defaultJokes
	}
	return &JokeSkill{jokes: jokes}
}

func (s *JokeSkill) Process(_ context.Context, _ domain.NormalizedQuery, _ *conversation.View) (domain.Response, error) {
	n := s.next.Add(1) - 1
	return domain.Response{
		Text:   s.jokes[n%uint64(len(s.jokes))],
		Source: "joke",
	}, nil
}

// QuoteSkill serves inspirational quotes from a static rotation.
type QuoteSkill struct {
	quotes []string
	next   atomic.Uint64
}

var defaultQuotes = []string{
	"The only way to do great work is to love what you do. — Steve Jobs",
	"It does not matter how slowly you go as long as you do not stop. — Confucius",
	"Success is not final, failure is not fatal: it is the courage to continue that counts. — Winston Churchill",
	"Believe you can and you're halfway there. — Theodore Roosevelt",
}

func NewQuoteSkill(quotes ...string) *QuoteSkill {
	if len(quotes) == 0 {
		quotes = defaultQuotes
	}
	return &QuoteSkill{quotes: quotes}
}

func (s *QuoteSkill) Process(_ context.Context, _ domain.NormalizedQuery, _ *conversation.View) (domain.Response, error) {
	n := s.next.Add(1) - 1
	return domain.Response{
		Text:   s.quotes[n%uint64(len(s.quotes))],
		Source: "quote",
	}, nil
}
