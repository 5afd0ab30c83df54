// Package lexicon holds the static term-to-intent tables the scorer matches
// against. Entries are pure data; declaration order is significant because the
// scorer reports tied candidates in it and the resolver uses registration
// order as the final tie-breaker.
package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

// Entry is one trigger term for an intent. MaxDistance bounds the edit
// distance tolerated when matching the term against query tokens; zero means
// exact match only. Short terms should stay exact to avoid false positives.
type Entry struct {
	Term        string
	MaxDistance int
}

// Lexicon maps intent ids to their trigger terms in declaration order.
type Lexicon struct {
	order   []string
	entries map[string][]Entry
}

// New returns an empty lexicon.
func New() *Lexicon {
	return &Lexicon{entries: make(map[string][]Entry)}
}

// Add appends entries for an intent, creating the intent on first use.
// Terms are normalized to lower case; empty terms are rejected.
func (l *Lexicon) Add(intent string, entries ...Entry) error {
	intent = strings.TrimSpace(intent)
	if intent == "" {
		return errors.New("lexicon: intent id must not be empty")
	}
	for _, e := range entries {
		term := strings.ToLower(strings.TrimSpace(e.Term))
		if term == "" {
			return fmt.Errorf("lexicon: empty term for intent %q", intent)
		}
		if e.MaxDistance < 0 {
			return fmt.Errorf("lexicon: negative distance for term %q", e.Term)
		}
		if _, ok := l.entries[intent]; !ok {
			l.order = append(l.order, intent)
		}
		l.entries[intent] = append(l.entries[intent], Entry{Term: term, MaxDistance: e.MaxDistance})
	}
	return nil
}

// Intents returns the intent ids in declaration order.
func (l *Lexicon) Intents() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Terms returns the entries declared for an intent.
func (l *Lexicon) Terms(intent string) []Entry {
	entries := l.entries[intent]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Exact is shorthand for an exact-match entry.
func Exact(term string) Entry {
	return Entry{Term: term}
}

// Fuzzy is shorthand for an entry tolerating up to dist edits.
func Fuzzy(term string, dist int) Entry {
	return Entry{Term: term, MaxDistance: dist}
}
