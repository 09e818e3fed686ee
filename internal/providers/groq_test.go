package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroqCompleteSendsPromptsAndDecodingParams(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Jane Doe wrote it."}}]}`))
	}))
	defer srv.Close()

	p := NewGroqProvider("", Options{BaseURL: srv.URL})
	resp, info, err := p.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "sys",
		UserPrompt:   "user",
		Model:        "llama-3.2-1b-preview",
		Temperature:  0.7,
		MaxTokens:    500,
	})
	require.NoError(t, err)
	require.Equal(t, "Jane Doe wrote it.", resp.Text)
	require.Equal(t, "groq", info.Name)
	require.Equal(t, "llama-3.2-1b-preview", info.Model)

	require.Equal(t, "llama-3.2-1b-preview", got["model"])
	require.EqualValues(t, 0.7, got["temperature"])
	require.EqualValues(t, 500, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	require.Equal(t, "system", msgs[0].(map[string]any)["role"])
	require.Equal(t, "user", msgs[1].(map[string]any)["content"])
}

func TestGroqCompleteErrorStatus(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	_, _, err := NewGroqProvider("", Options{BaseURL: srv.URL}).Complete(context.Background(), CompletionRequest{UserPrompt: "q"})
	require.Error(t, err)
	require.Equal(t, ErrorRate, ClassifyError(err))
}

func TestGroqMissingKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	_, _, err := NewGroqProvider("alias1", Options{}).Complete(context.Background(), CompletionRequest{UserPrompt: "q"})
	require.ErrorContains(t, err, "groq key missing")
}

func TestResolveGroqKeyAlias(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "default")
	t.Setenv("DOCQA_GROQ_KEY_TEAM_A", "team")
	require.Equal(t, "team", resolveGroqKey("team-a"))
	require.Equal(t, "default", resolveGroqKey("other"))
}
