package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

const (
	defaultHandlerTimeout = 8 * time.Second
	summaryMaxLen         = 160
)

// TurnLogger is the persistence collaborator for completed dispatches. Both
// operations are fire-and-forget from the engine's perspective: failures are
// logged and swallowed, never surfaced to the user-facing turn.
type TurnLogger interface {
	LogConversation(ctx context.Context, sessionID, utterance, intent, summary string, latency time.Duration, success bool) error
	LogUsage(ctx context.Context, intent, sessionID string, at time.Time, success bool, latency time.Duration) error
}

// ModuleManager wraps every handler dispatch: it enforces the per-turn time
// budget, records usage, and converts handler failures into degraded but
// valid responses. Usage data drives presentation ranking only, never intent
// resolution.
type ModuleManager struct {
	registry *Registry
	usage    *Usage
	turns    TurnLogger
	timeout  time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewModuleManager creates a ModuleManager. turns may be nil when persistence
// is disabled; a nil logger falls back to slog.Default.
func NewModuleManager(registry *Registry, usage *Usage, turns TurnLogger, timeout time.Duration, log *slog.Logger) (*ModuleManager, error) {
	if registry == nil {
		return nil, errors.New("engine: registry must not be nil")
	}
	if usage == nil {
		return nil, errors.New("engine: usage aggregate must not be nil")
	}
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &ModuleManager{
		registry: registry,
		usage:    usage,
		turns:    turns,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
	}, nil
}

type handlerResult struct {
	resp domain.Response
	err  error
}

// Dispatch invokes the handler for intent and returns its response. Handler
// errors and timeouts come back as degraded responses; the returned Response
// is always valid. Wall-clock time is bounded by the configured timeout
// regardless of handler misbehavior.
func (m *ModuleManager) Dispatch(ctx context.Context, sessionID, intent string, q domain.NormalizedQuery, view *conversation.View) domain.Response {
	handler := m.registry.Handler(intent)
	start := m.now()

	hctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	results := make(chan handlerResult, 1)
	go func() {
		resp, err := safeProcess(hctx, handler, q, view)
		results <- handlerResult{resp: resp, err: err}
	}()

	var resp domain.Response
	var dispatchErr *Error
	select {
	case r := <-results:
		if r.err != nil {
			dispatchErr = newError(ErrorHandlerFailed, "handler_error", r.err)
			resp = m.degradedResponse(intent)
		} else {
			resp = r.resp
		}
	case <-hctx.Done():
		// The handler goroutine is abandoned; its context is cancelled and
		// its buffered result, if any, is discarded.
		dispatchErr = newError(ErrorHandlerTimeout, "handler_timeout", hctx.Err())
		resp = m.degradedResponse(intent)
	}

	latency := m.now().Sub(start)
	success := dispatchErr == nil
	m.usage.Record(intent, latency, success)

	if dispatchErr != nil {
		m.log.Warn("dispatch degraded",
			"intent", intent,
			"session", sessionID,
			"code", string(dispatchErr.Code),
			"err", dispatchErr.Err,
		)
	}

	m.logTurn(ctx, sessionID, intent, q.Raw, resp, latency, success)
	return resp
}

// safeProcess shields the engine from panicking handlers; a panic is treated
// like any other handler error.
func safeProcess(ctx context.Context, h Handler, q domain.NormalizedQuery, view *conversation.View) (resp domain.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Process(ctx, q, view)
}

// degradedResponse phrases a handler failure as an actionable suggestion,
// never as raw error text.
func (m *ModuleManager) degradedResponse(intent string) domain.Response {
	name := intent
	for _, desc := range m.registry.Descriptors() {
		if desc.Intent == intent {
			name = desc.Name
			break
		}
	}
	text := fmt.Sprintf(
		"I couldn't finish that %s request right now. Please try again in a moment, or ask me about something else.",
		name,
	)
	if alt := firstAlternative(m.usage.Ranking(3), intent); alt != "" {
		text = fmt.Sprintf(
			"I couldn't finish that %s request right now. Please try again in a moment, or ask me about %s instead.",
			name, alt,
		)
	}
	return domain.Response{
		Text:     text,
		Source:   intent,
		Degraded: true,
	}
}

func firstAlternative(ranked []string, exclude string) string {
	for _, intent := range ranked {
		if intent != exclude && intent != domain.FallbackIntent {
			return intent
		}
	}
	return ""
}

func (m *ModuleManager) logTurn(ctx context.Context, sessionID, intent, utterance string, resp domain.Response, latency time.Duration, success bool) {
	if m.turns == nil {
		return
	}
	at := m.now()
	if err := m.turns.LogUsage(ctx, intent, sessionID, at, success, latency); err != nil {
		m.log.Warn("usage log write failed", "intent", intent, "err", err)
	}
	if err := m.turns.LogConversation(ctx, sessionID, utterance, intent, summarize(resp.Text), latency, success); err != nil {
		m.log.Warn("conversation log write failed", "session", sessionID, "err", err)
	}
}

// summarize truncates a response for the conversation log.
func summarize(text string) string {
	if len(text) <= summaryMaxLen {
		return text
	}
	return text[:summaryMaxLen]
}

// Stats exposes the usage aggregates for status surfaces.
func (m *ModuleManager) Stats() map[string]IntentStats {
	return m.usage.Stats()
}

// Ranking returns the most used intents, for presentation ordering.
func (m *ModuleManager) Ranking(limit int) []string {
	return m.usage.Ranking(limit)
}
