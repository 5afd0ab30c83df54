package domain

// NormalizedQuery is the comparable form of an utterance produced by the
// normalizer. Raw preserves the original text for handlers that extract
// entities (e.g. location names) from it.
type NormalizedQuery struct {
	Raw    string
	Text   string
	Tokens []string
}

// IntentCandidate is one scored intent for a query. MatchedTerms records the
// lexicon terms that contributed to the score; the resolver uses the longest
// one as a specificity tie-breaker.
type IntentCandidate struct {
	Intent       string
	Score        float64
	MatchedTerms []string
}

// LongestMatchedTerm returns the lexically longest matched term, or "" when
// nothing matched.
func (c IntentCandidate) LongestMatchedTerm() string {
	longest := ""
	for _, term := range c.MatchedTerms {
		if len(term) > len(longest) {
			longest = term
		}
	}
	return longest
}
