// Package engine is the intent resolution and skill routing core: it turns
// raw utterances into a dispatch decision, arbitrates between competing
// matches, and tracks per-skill usage for presentation ranking.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
	"buddy-agent/internal/lexicon"
	"buddy-agent/internal/nlp"
)

const defaultThreshold = 0.05

// Config carries the engine tunables read at bootstrap.
type Config struct {
	// Threshold is the minimum candidate score considered confident.
	Threshold float64
	// Protected lists intents that always win resolution when top-scored
	// above threshold, regardless of conversational context.
	Protected []string
	// HandlerTimeout bounds the wall-clock time of a single dispatch.
	HandlerTimeout time.Duration
}

// Input is one utterance to resolve and dispatch. An empty SessionID starts a
// new session.
type Input struct {
	SessionID string
	Text      string
}

// Output is the completed turn. SessionID echoes or newly assigns the session.
type Output struct {
	Response  domain.Response
	SessionID string
}

// Engine is the single entry point transport code calls. It never returns an
// error for normal operation: every request-time failure is recovered into a
// valid, possibly degraded, Response.
type Engine struct {
	lex      *lexicon.Lexicon
	registry *Registry
	resolver *Resolver
	modules  *ModuleManager
	contexts *conversation.Manager
	log      *slog.Logger

	// sessionLocks serializes turns within one session (FIFO by lock order)
	// while turns across sessions proceed in parallel.
	sessionLocks sync.Map
}

// New assembles an Engine. usage is the shared, injected aggregation store
// (also consumed by the fallback handler for hints); turns may be nil when
// persistence is disabled.
func New(cfg Config, lex *lexicon.Lexicon, contexts *conversation.Manager, usage *Usage, fallback Handler, turns TurnLogger, log *slog.Logger) (*Engine, error) {
	if lex == nil {
		return nil, errors.New("engine: lexicon must not be nil")
	}
	if contexts == nil {
		return nil, errors.New("engine: conversation manager must not be nil")
	}
	if usage == nil {
		return nil, errors.New("engine: usage aggregate must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}

	registry, err := NewRegistry(fallback)
	if err != nil {
		return nil, err
	}
	modules, err := NewModuleManager(registry, usage, turns, cfg.HandlerTimeout, log)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		lex:      lex,
		registry: registry,
		resolver: NewResolver(cfg.Protected, cfg.Threshold, registry.Rank),
		modules:  modules,
		contexts: contexts,
		log:      log,
	}
	return e, nil
}

// Register adds a skill and its lexicon terms. Called once per skill at
// startup, before the engine accepts traffic; errors are fatal there.
func (e *Engine) Register(desc domain.SkillDescriptor, h Handler, terms ...lexicon.Entry) error {
	if err := e.registry.Register(desc, h); err != nil {
		return err
	}
	if len(terms) > 0 {
		if err := e.lex.Add(desc.Intent, terms...); err != nil {
			return err
		}
	}
	return nil
}

// Usage exposes the shared usage aggregate, e.g. for seeding persisted counts
// at cold start or for status surfaces.
func (e *Engine) Usage() *Usage {
	return e.modules.usage
}

// Skills returns the registered skill descriptors in registration order.
func (e *Engine) Skills() []domain.SkillDescriptor {
	return e.registry.Descriptors()
}

// ResolveAndDispatch processes one turn: normalize, score, resolve, dispatch,
// record. Turns within a session are strictly sequential; unrelated sessions
// are not blocked by a suspended handler.
func (e *Engine) ResolveAndDispatch(ctx context.Context, in Input) Output {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newUUID()
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	view := e.contexts.View(sessionID)

	q, err := nlp.Normalize(in.Text)
	if err != nil {
		// Nothing to classify: straight to fallback, the scorer never runs.
		resp := e.modules.Dispatch(ctx, sessionID, domain.FallbackIntent, domain.NormalizedQuery{Raw: in.Text}, view)
		return Output{Response: resp, SessionID: sessionID}
	}

	candidates := e.knownCandidates(nlp.Score(q, e.lex))
	intent, confident := e.resolver.Resolve(candidates, e.contexts.History(sessionID))
	if !confident {
		intent = domain.FallbackIntent
	}

	resp := e.modules.Dispatch(ctx, sessionID, intent, q, view)

	e.contexts.Append(sessionID, domain.Turn{
		Utterance: q.Raw,
		Intent:    intent,
		Summary:   summarize(resp.Text),
		At:        time.Now(),
	})

	return Output{Response: resp, SessionID: sessionID}
}

// knownCandidates drops candidates whose intent has no registered handler.
// This only happens when lexicon terms exist for an unregistered intent, e.g.
// a stock vocabulary entry for a skill that was not wired at startup.
func (e *Engine) knownCandidates(candidates []domain.IntentCandidate) []domain.IntentCandidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if e.registry.Known(c.Intent) {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) lockSession(sessionID string) func() {
	v, _ := e.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

var newUUID = func() string {
	return uuid.NewString()
}
