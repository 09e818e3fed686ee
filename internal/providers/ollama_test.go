package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveOllamaModel_Default(t *testing.T) {
	t.Setenv("DOCQA_OLLAMA_MODEL", "")
	if got := resolveOllamaModel(""); got != "llama3.2" {
		t.Fatalf("expected default llama3.2, got %q", got)
	}
	if got := resolveOllamaModel("qwen2.5:3b"); got != "qwen2.5:3b" {
		t.Fatalf("expected direct model tag, got %q", got)
	}
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"local answer"}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider("llama", Options{BaseURL: srv.URL})
	resp, info, err := p.Complete(context.Background(), CompletionRequest{UserPrompt: "q"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "local answer" || info.Model != "llama3.2" {
		t.Fatalf("unexpected response %+v %+v", resp, info)
	}
}
