package skills

import (
	"context"
	"fmt"
	"strings"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

// Ranker supplies the highest-usage intents for hinting.
type Ranker interface {
	Ranking(limit int) []string
}

// FallbackSkill is the terminal handler for queries no intent claims. It is
// stateless and never fails; when usage data exists it suggests the most used
// skills as hints.
type FallbackSkill struct {
	ranker Ranker
}

// NewFallbackSkill creates the fallback handler. ranker may be nil; hints are
// then omitted.
func NewFallbackSkill(ranker Ranker) *FallbackSkill {
	return &FallbackSkill{ranker: ranker}
}

func (s *FallbackSkill) Process(_ context.Context, _ domain.NormalizedQuery, _ *conversation.View) (domain.Response, error) {
	text := "I'm not sure what you're looking for. Could you rephrase that?"
	if hints := s.hints(3); len(hints) > 0 {
		text = fmt.Sprintf(
			"I'm not sure what you're looking for. You could try asking about %s.",
			joinHints(hints),
		)
	}
	return domain.Response{Text: text, Source: domain.FallbackIntent}, nil
}

func (s *FallbackSkill) hints(limit int) []string {
	if s.ranker == nil {
		return nil
	}
	var hints []string
	for _, intent := range s.ranker.Ranking(limit + 1) {
		if intent == domain.FallbackIntent {
			continue
		}
		hints = append(hints, intent)
		if len(hints) == limit {
			break
		}
	}
	return hints
}

func joinHints(hints []string) string {
	switch len(hints) {
	case 1:
		return hints[0]
	case 2:
		return hints[0] + " or " + hints[1]
	default:
		return strings.Join(hints[:len(hints)-1], ", ") + " or " + hints[len(hints)-1]
	}
}
