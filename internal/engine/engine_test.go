package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
	"buddy-agent/internal/lexicon"
)

type engineFixture struct {
	engine   *Engine
	contexts *conversation.Manager
	usage    *Usage
	handlers map[string]*stubHandler
}

func newTestEngine(t *testing.T, cfg Config, intents ...string) *engineFixture {
	t.Helper()

	lex := lexicon.New()
	require.NoError(t, lex.Add("weather", lexicon.Fuzzy("weather", 2), lexicon.Exact("rain")))
	require.NoError(t, lex.Add("forecast", lexicon.Fuzzy("forecast", 2), lexicon.Exact("outlook")))
	require.NoError(t, lex.Add("joke", lexicon.Exact("joke"), lexicon.Exact("funny")))
	require.NoError(t, lex.Add("smalltalk", lexicon.Exact("hello"), lexicon.Exact("chat")))
	require.NoError(t, lex.Add("ghost", lexicon.Exact("spooky")))

	contexts := conversation.NewManager(10)
	usage := NewUsage()

	eng, err := New(cfg, lex, contexts, usage,
		&stubHandler{resp: domain.Response{Text: "fallback reply", Source: domain.FallbackIntent}},
		nil, nil)
	require.NoError(t, err)

	if len(intents) == 0 {
		intents = []string{"weather", "forecast", "joke", "smalltalk"}
	}
	handlers := make(map[string]*stubHandler, len(intents))
	for _, intent := range intents {
		h := &stubHandler{resp: domain.Response{Text: intent + " reply", Source: intent}}
		handlers[intent] = h
		require.NoError(t, eng.Register(domain.SkillDescriptor{Intent: intent, Name: intent}, h))
	}

	return &engineFixture{engine: eng, contexts: contexts, usage: usage, handlers: handlers}
}

func TestResolveAndDispatch_RoutesToMatchingSkill(t *testing.T) {
	f := newTestEngine(t, Config{})

	out := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "Tell me a joke!"})
	require.Equal(t, "joke reply", out.Response.Text)
	require.Equal(t, "s1", out.SessionID)
	require.Equal(t, 1, f.handlers["joke"].calls)
}

func TestResolveAndDispatch_AssignsSessionID(t *testing.T) {
	restore := newUUID
	newUUID = func() string { return "generated-session" }
	defer func() { newUUID = restore }()

	f := newTestEngine(t, Config{})

	out := f.engine.ResolveAndDispatch(context.Background(), Input{Text: "tell me a joke"})
	require.Equal(t, "generated-session", out.SessionID)
}

func TestResolveAndDispatch_EmptyInputFallsBack(t *testing.T) {
	f := newTestEngine(t, Config{})

	out := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "  ?! "})
	require.Equal(t, "fallback reply", out.Response.Text)
	// Nothing was classified, so no turn is recorded.
	require.Empty(t, f.contexts.History("s1"))
}

func TestResolveAndDispatch_NoMatchFallsBack(t *testing.T) {
	f := newTestEngine(t, Config{})

	out := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "please do something entirely different"})
	require.Equal(t, "fallback reply", out.Response.Text)

	history := f.contexts.History("s1")
	require.Len(t, history, 1)
	require.Equal(t, domain.FallbackIntent, history[0].Intent)
}

func TestResolveAndDispatch_UnregisteredLexiconIntentFallsBack(t *testing.T) {
	// "ghost" has lexicon terms but no registered handler; its candidates must
	// not survive resolution.
	f := newTestEngine(t, Config{})

	out := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "something spooky"})
	require.Equal(t, "fallback reply", out.Response.Text)
}

func TestResolveAndDispatch_ProtectedSkillSurvivesChattyContext(t *testing.T) {
	f := newTestEngine(t, Config{Protected: []string{"joke"}})

	// Build up a personalized smalltalk session first.
	for i := 0; i < 3; i++ {
		out := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "hello, lets chat"})
		require.Equal(t, "smalltalk reply", out.Response.Text)
	}

	// "funny chat" ties joke and smalltalk at one matched term each; the
	// protected joke skill must win despite the conversational context.
	out := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "funny chat"})
	require.Equal(t, "joke reply", out.Response.Text)
}

func TestResolveAndDispatch_ContinuityBreaksTiesUnprotected(t *testing.T) {
	f := newTestEngine(t, Config{})

	out := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "whats the outlook for tomorrow"})
	require.Equal(t, "forecast reply", out.Response.Text)

	// "rain" (weather) and "outlook" (forecast) tie at one term each; the
	// previous forecast turn tips it.
	out = f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "any rain or outlook changes"})
	require.Equal(t, "forecast reply", out.Response.Text)
}

func TestResolveAndDispatch_RecordsTurnAndUsage(t *testing.T) {
	f := newTestEngine(t, Config{})

	f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "tell me a joke"})

	history := f.contexts.History("s1")
	require.Len(t, history, 1)
	require.Equal(t, "joke", history[0].Intent)
	require.Equal(t, "tell me a joke", history[0].Utterance)
	require.Equal(t, "joke reply", history[0].Summary)
	require.WithinDuration(t, time.Now(), history[0].At, time.Minute)

	require.Equal(t, int64(1), f.usage.Stats()["joke"].Dispatches)
}

func TestResolveAndDispatch_Deterministic(t *testing.T) {
	f := newTestEngine(t, Config{})

	first := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "is it going to rain"})
	second := f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s2", Text: "is it going to rain"})
	require.Equal(t, first.Response.Text, second.Response.Text)
	require.Equal(t, "weather reply", first.Response.Text)
}

func TestResolveAndDispatch_SessionsDoNotShareContext(t *testing.T) {
	f := newTestEngine(t, Config{})

	f.engine.ResolveAndDispatch(context.Background(), Input{SessionID: "s1", Text: "whats the forecast"})
	require.Empty(t, f.contexts.History("s2"))
}

func TestRegister_DuplicateIsRejected(t *testing.T) {
	f := newTestEngine(t, Config{})

	err := f.engine.Register(domain.SkillDescriptor{Intent: "joke"}, &stubHandler{})
	require.Error(t, err)
}

func TestNew_Validates(t *testing.T) {
	lex := lexicon.New()
	contexts := conversation.NewManager(10)
	usage := NewUsage()
	fallback := &stubHandler{}

	_, err := New(Config{}, nil, contexts, usage, fallback, nil, nil)
	require.Error(t, err)

	_, err = New(Config{}, lex, nil, usage, fallback, nil, nil)
	require.Error(t, err)

	_, err = New(Config{}, lex, contexts, nil, fallback, nil, nil)
	require.Error(t, err)

	_, err = New(Config{}, lex, contexts, usage, nil, nil, nil)
	require.Error(t, err)
}
