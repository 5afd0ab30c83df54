package engine

import (
	"context"
	"errors"
	"strings"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

// Handler is the single capability every skill implements. Process receives
// the normalized query (Raw preserved for entity extraction) and a session
// view; it returns a response or a handler-specific error.
type Handler interface {
	Process(ctx context.Context, q domain.NormalizedQuery, view *conversation.View) (domain.Response, error)
}

// Registry is the fixed intent -> handler table. Registration happens once at
// startup before the engine accepts traffic; lookups afterwards are
// read-only, so no locking is needed.
type Registry struct {
	order    []string
	skills   map[string]registration
	fallback Handler
}

type registration struct {
	desc    domain.SkillDescriptor
	handler Handler
	rank    int
}

// NewRegistry creates a Registry with the given terminal fallback handler.
func NewRegistry(fallback Handler) (*Registry, error) {
	if fallback == nil {
		return nil, errors.New("engine: fallback handler must not be nil")
	}
	return &Registry{
		skills:   make(map[string]registration),
		fallback: fallback,
	}, nil
}

// Register adds a skill. Registering an intent twice, the fallback id, or a
// nil handler fails; registration errors are fatal at startup.
func (r *Registry) Register(desc domain.SkillDescriptor, h Handler) error {
	intent := strings.TrimSpace(desc.Intent)
	if intent == "" {
		return newError(ErrorUnknownIntent, "empty_intent_id", nil)
	}
	if intent == domain.FallbackIntent {
		return newError(ErrorDuplicateIntent, "fallback_id_reserved", nil)
	}
	if h == nil {
		return newError(ErrorUnknownIntent, "nil_handler", nil)
	}
	if _, exists := r.skills[intent]; exists {
		return newError(ErrorDuplicateIntent, "intent_already_registered", nil)
	}
	r.skills[intent] = registration{desc: desc, handler: h, rank: len(r.order)}
	r.order = append(r.order, intent)
	return nil
}

// Handler returns the handler for an intent. Unknown ids (including the
// fallback id itself) resolve to the fallback handler.
func (r *Registry) Handler(intent string) Handler {
	if reg, ok := r.skills[intent]; ok {
		return reg.handler
	}
	return r.fallback
}

// Known reports whether an intent id is registered or is the fallback id.
func (r *Registry) Known(intent string) bool {
	if intent == domain.FallbackIntent {
		return true
	}
	_, ok := r.skills[intent]
	return ok
}

// Rank returns the registration position of an intent, for deterministic
// tie-breaking. Unregistered intents rank last.
func (r *Registry) Rank(intent string) int {
	if reg, ok := r.skills[intent]; ok {
		return reg.rank
	}
	return len(r.order)
}

// Descriptors returns the registered skills in registration order.
func (r *Registry) Descriptors() []domain.SkillDescriptor {
	out := make([]domain.SkillDescriptor, 0, len(r.order))
	for _, intent := range r.order {
		out = append(out, r.skills[intent].desc)
	}
	return out
}
