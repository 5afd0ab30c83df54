package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"buddy-agent/internal/domain"
)

type stubGetter struct {
	value   string
	err     error
	gotName string
}

func (s *stubGetter) GetParameter(_ context.Context, name string) (string, error) {
	s.gotName = name
	return s.value, s.err
}

func tokenGetter() *stubGetter {
	return &stubGetter{value: `{"token":"sk-test"}`}
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient(nil, "/buddy")
	require.Error(t, err)

	_, err = NewClient(tokenGetter(), "  ")
	require.Error(t, err)
}

func TestChat_HappyPath(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Hello!"}},
			},
		})
	}))
	defer srv.Close()

	getter := tokenGetter()
	c, err := NewClient(getter, "/buddy", WithBaseURL(srv.URL))
	require.NoError(t, err)

	answer, err := c.Chat(context.Background(), "gpt-4o-mini", []domain.ChatMessage{
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	require.Equal(t, "Hello!", answer)
	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Equal(t, "/buddy/open-ai-token", getter.gotName)
}

func TestChat_RequiresModel(t *testing.T) {
	c, err := NewClient(tokenGetter(), "/buddy")
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "", nil)
	require.Error(t, err)
}

func TestChat_TokenFetchFails(t *testing.T) {
	c, err := NewClient(&stubGetter{err: errors.New("ssm down")}, "/buddy")
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "gpt-4o-mini", nil)
	require.ErrorContains(t, err, "ssm down")
}

func TestChat_TokenNotJSON(t *testing.T) {
	c, err := NewClient(&stubGetter{value: "sk-raw"}, "/buddy")
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "gpt-4o-mini", nil)
	require.Error(t, err)
}

func TestChat_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient(tokenGetter(), "/buddy", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "gpt-4o-mini", nil)
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c, err := NewClient(tokenGetter(), "/buddy", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "gpt-4o-mini", nil)
	require.ErrorContains(t, err, "no choices")
}

func TestChatURL(t *testing.T) {
	require.Equal(t, "https://api.openai.com/v1/chat/completions", chatURL(""))
	require.Equal(t, "https://example.com/v1/chat/completions", chatURL("https://example.com"))
	require.Equal(t, "https://example.com/v1/chat/completions", chatURL("https://example.com/v1/"))
}
