package nlp

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"buddy-agent/internal/domain"
	"buddy-agent/internal/lexicon"
)

// shortTermRunes is the length at or below which a term only matches as an
// exact token. Fuzzy or substring matching of very short terms ("hi", "time")
// produces far too many false positives.
const shortTermRunes = 4

// Score computes one candidate per intent with at least one matching term,
// ordered by descending score. A candidate's score is the fraction of the
// intent's terms present in the query, so long queries do not spuriously
// favor intents with many common short terms. Tied candidates keep lexicon
// declaration order; tie-breaking is the resolver's job.
func Score(q domain.NormalizedQuery, lex *lexicon.Lexicon) []domain.IntentCandidate {
	var candidates []domain.IntentCandidate

	for _, intent := range lex.Intents() {
		entries := lex.Terms(intent)
		if len(entries) == 0 {
			continue
		}

		var matched []string
		for _, e := range entries {
			if termMatches(q, e) {
				matched = append(matched, e.Term)
			}
		}
		if len(matched) == 0 {
			continue
		}

		candidates = append(candidates, domain.IntentCandidate{
			Intent:       intent,
			Score:        float64(len(matched)) / float64(len(entries)),
			MatchedTerms: matched,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func termMatches(q domain.NormalizedQuery, e lexicon.Entry) bool {
	if strings.Contains(e.Term, " ") {
		return phraseMatches(q.Text, e.Term)
	}
	if utf8.RuneCountInString(e.Term) <= shortTermRunes {
		return tokenMatches(q.Tokens, e.Term, 0)
	}
	return tokenMatches(q.Tokens, e.Term, e.MaxDistance)
}

// phraseMatches reports whether a multi-word term appears in the query on
// token boundaries.
func phraseMatches(text, phrase string) bool {
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

func tokenMatches(tokens []string, term string, maxDistance int) bool {
	for _, tok := range tokens {
		if tok == term {
			return true
		}
		if maxDistance > 0 && withinDistance(tok, term, maxDistance) {
			return true
		}
	}
	return false
}

// withinDistance bounds the edit distance check. Tokens much shorter or longer
// than the term cannot be a registered misspelling of it, so skip the
// computation for them.
func withinDistance(tok, term string, maxDistance int) bool {
	lenDiff := utf8.RuneCountInString(tok) - utf8.RuneCountInString(term)
	if lenDiff > maxDistance || lenDiff < -maxDistance {
		return false
	}
	return levenshtein.ComputeDistance(tok, term) <= maxDistance
}
