package engine

import (
	"buddy-agent/internal/domain"
)

// Resolver turns ranked intent candidates into a single winning intent.
//
// Protected intents are skills that must never be pre-empted by the generic
// conversational/personalization pathway: when the top candidate is protected
// and clears the threshold it wins unconditionally, no matter what the
// session context suggests. This is a correctness invariant, not a heuristic;
// context-driven personalization used to intercept explicit skill requests
// like "tell me a joke" mid-chat.
type Resolver struct {
	protected map[string]bool
	threshold float64
	rank      func(intent string) int
}

// NewResolver creates a Resolver. rank supplies the registration position of
// an intent for the final tie-break; threshold is the minimum score a
// candidate needs to be considered at all.
func NewResolver(protected []string, threshold float64, rank func(intent string) int) *Resolver {
	set := make(map[string]bool, len(protected))
	for _, intent := range protected {
		set[intent] = true
	}
	if rank == nil {
		rank = func(string) int { return 0 }
	}
	return &Resolver{protected: set, threshold: threshold, rank: rank}
}

// Protected reports whether an intent is in the protected set.
func (r *Resolver) Protected(intent string) bool {
	return r.protected[intent]
}

// Resolve picks the winning intent from candidates ordered by descending
// score (ties in lexicon declaration order). history is the session's bounded
// turn history, oldest first. ok is false when no candidate clears the
// threshold; the caller then routes to the fallback handler.
//
// Tie-break order among equal top scores: context continuity (the most recent
// turn's intent), then specificity (longer matched term), then registration
// order.
func (r *Resolver) Resolve(candidates []domain.IntentCandidate, history []domain.Turn) (string, bool) {
	confident := candidates[:0:0]
	for _, c := range candidates {
		if c.Score >= r.threshold && c.Score > 0 {
			confident = append(confident, c)
		}
	}
	if len(confident) == 0 {
		return domain.FallbackIntent, false
	}

	top := confident[0]
	if r.protected[top.Intent] {
		return top.Intent, true
	}

	tied := confident[:1]
	for _, c := range confident[1:] {
		if c.Score != top.Score {
			break
		}
		tied = append(tied, c)
	}
	if len(tied) == 1 {
		return top.Intent, true
	}

	// A protected intent tied at the top still beats unprotected peers.
	for _, c := range tied {
		if r.protected[c.Intent] {
			return c.Intent, true
		}
	}

	if last, ok := lastIntent(history); ok {
		for _, c := range tied {
			if c.Intent == last {
				return c.Intent, true
			}
		}
	}

	winner := tied[0]
	for _, c := range tied[1:] {
		if len(c.LongestMatchedTerm()) > len(winner.LongestMatchedTerm()) {
			winner = c
		} else if len(c.LongestMatchedTerm()) == len(winner.LongestMatchedTerm()) &&
			r.rank(c.Intent) < r.rank(winner.Intent) {
			winner = c
		}
	}
	return winner.Intent, true
}

func lastIntent(history []domain.Turn) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Intent != "" && history[i].Intent != domain.FallbackIntent {
			return history[i].Intent, true
		}
	}
	return "", false
}
