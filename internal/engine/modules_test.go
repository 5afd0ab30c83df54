package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

type stubHandler struct {
	resp     domain.Response
	err      error
	delay    time.Duration
	panicMsg string
	calls    int
}

func (s *stubHandler) Process(ctx context.Context, _ domain.NormalizedQuery, _ *conversation.View) (domain.Response, error) {
	s.calls++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return domain.Response{}, ctx.Err()
		}
	}
	return s.resp, s.err
}

type logCall struct {
	kind    string
	intent  string
	success bool
}

type stubTurnLogger struct {
	calls    []logCall
	convErr  error
	usageErr error
}

func (s *stubTurnLogger) LogConversation(_ context.Context, _, _, intent, _ string, _ time.Duration, success bool) error {
	s.calls = append(s.calls, logCall{kind: "conversation", intent: intent, success: success})
	return s.convErr
}

func (s *stubTurnLogger) LogUsage(_ context.Context, intent, _ string, _ time.Time, success bool, _ time.Duration) error {
	s.calls = append(s.calls, logCall{kind: "usage", intent: intent, success: success})
	return s.usageErr
}

func newTestRegistry(t *testing.T, handlers map[string]Handler) *Registry {
	t.Helper()
	registry, err := NewRegistry(&stubHandler{resp: domain.Response{Text: "fallback", Source: domain.FallbackIntent}})
	require.NoError(t, err)
	for intent, h := range handlers {
		require.NoError(t, registry.Register(domain.SkillDescriptor{Intent: intent, Name: intent}, h))
	}
	return registry
}

func testQuery() domain.NormalizedQuery {
	return domain.NormalizedQuery{Raw: "tell me a joke", Text: "tell me a joke", Tokens: []string{"tell", "me", "a", "joke"}}
}

func testView() *conversation.View {
	return conversation.NewManager(10).View("s1")
}

func TestDispatch_HappyPath(t *testing.T) {
	h := &stubHandler{resp: domain.Response{Text: "ha!", Source: "joke"}}
	registry := newTestRegistry(t, map[string]Handler{"joke": h})
	usage := NewUsage()
	turns := &stubTurnLogger{}

	m, err := NewModuleManager(registry, usage, turns, time.Second, slog.Default())
	require.NoError(t, err)

	resp := m.Dispatch(context.Background(), "s1", "joke", testQuery(), testView())
	require.Equal(t, "ha!", resp.Text)
	require.False(t, resp.Degraded)

	stats := usage.Stats()["joke"]
	require.Equal(t, int64(1), stats.Dispatches)
	require.Equal(t, int64(1), stats.Successes)

	require.Len(t, turns.calls, 2)
	require.Equal(t, "usage", turns.calls[0].kind)
	require.True(t, turns.calls[0].success)
	require.Equal(t, "conversation", turns.calls[1].kind)
}

func TestDispatch_HandlerErrorDegrades(t *testing.T) {
	h := &stubHandler{err: errors.New("upstream down")}
	registry := newTestRegistry(t, map[string]Handler{"weather": h})
	usage := NewUsage()

	m, err := NewModuleManager(registry, usage, nil, time.Second, slog.Default())
	require.NoError(t, err)

	resp := m.Dispatch(context.Background(), "s1", "weather", testQuery(), testView())
	require.True(t, resp.Degraded)
	require.Equal(t, "weather", resp.Source)
	require.NotContains(t, resp.Text, "upstream down")

	stats := usage.Stats()["weather"]
	require.Equal(t, int64(1), stats.Dispatches)
	require.Equal(t, int64(0), stats.Successes)
}

func TestDispatch_TimeoutDegrades(t *testing.T) {
	h := &stubHandler{delay: time.Second, resp: domain.Response{Text: "late"}}
	registry := newTestRegistry(t, map[string]Handler{"weather": h})

	m, err := NewModuleManager(registry, NewUsage(), nil, 20*time.Millisecond, slog.Default())
	require.NoError(t, err)

	start := time.Now()
	resp := m.Dispatch(context.Background(), "s1", "weather", testQuery(), testView())
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.True(t, resp.Degraded)
}

func TestDispatch_PanicDegrades(t *testing.T) {
	h := &stubHandler{panicMsg: "boom"}
	registry := newTestRegistry(t, map[string]Handler{"joke": h})

	m, err := NewModuleManager(registry, NewUsage(), nil, time.Second, slog.Default())
	require.NoError(t, err)

	resp := m.Dispatch(context.Background(), "s1", "joke", testQuery(), testView())
	require.True(t, resp.Degraded)
}

func TestDispatch_UnknownIntentRoutesToFallback(t *testing.T) {
	registry := newTestRegistry(t, nil)

	m, err := NewModuleManager(registry, NewUsage(), nil, time.Second, slog.Default())
	require.NoError(t, err)

	resp := m.Dispatch(context.Background(), "s1", "nope", testQuery(), testView())
	require.Equal(t, "fallback", resp.Text)
	require.False(t, resp.Degraded)
}

func TestDispatch_PersistenceFailuresAreSwallowed(t *testing.T) {
	h := &stubHandler{resp: domain.Response{Text: "ok", Source: "joke"}}
	registry := newTestRegistry(t, map[string]Handler{"joke": h})
	turns := &stubTurnLogger{convErr: errors.New("dynamo down"), usageErr: errors.New("dynamo down")}

	m, err := NewModuleManager(registry, NewUsage(), turns, time.Second, slog.Default())
	require.NoError(t, err)

	resp := m.Dispatch(context.Background(), "s1", "joke", testQuery(), testView())
	require.Equal(t, "ok", resp.Text)
	require.False(t, resp.Degraded)
}

func TestDispatch_DegradedSuggestsAlternative(t *testing.T) {
	h := &stubHandler{err: errors.New("down")}
	registry := newTestRegistry(t, map[string]Handler{"weather": h, "joke": &stubHandler{}})
	usage := NewUsage()
	usage.Seed(map[string]int64{"joke": 5})

	m, err := NewModuleManager(registry, usage, nil, time.Second, slog.Default())
	require.NoError(t, err)

	resp := m.Dispatch(context.Background(), "s1", "weather", testQuery(), testView())
	require.True(t, resp.Degraded)
	require.Contains(t, resp.Text, "joke")
}

func TestNewModuleManager_Validates(t *testing.T) {
	registry := newTestRegistry(t, nil)

	_, err := NewModuleManager(nil, NewUsage(), nil, time.Second, nil)
	require.Error(t, err)

	_, err = NewModuleManager(registry, nil, nil, time.Second, nil)
	require.Error(t, err)
}
