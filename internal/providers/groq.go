package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider calls Groq's OpenAI-compatible chat completions API.
type GroqProvider struct {
	keyName string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

func NewGroqProvider(keyName string, opts Options) *GroqProvider {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = strings.TrimSpace(os.Getenv("DOCQA_GROQ_MODEL"))
	}
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	return &GroqProvider{
		keyName: keyName,
		apiKey:  resolveGroqKey(keyName),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  opts.httpClient(60 * time.Second),
		limiter: newLimiter(opts.RequestsPerMinute),
	}
}

func (g *GroqProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, ProviderInfo, error) {
	model := g.model
	if req.Model != "" {
		model = req.Model
	}
	info := ProviderInfo{Name: "groq", Key: g.keyName, Model: model}
	if g.apiKey == "" {
		return CompletionResponse{}, info, fmt.Errorf("groq key missing for alias %q", g.keyName)
	}
	if err := wait(ctx, g.limiter); err != nil {
		return CompletionResponse{}, info, fmt.Errorf("groq limiter: %w", err)
	}
	text, err := openAIChat(ctx, g.client, "groq", g.baseURL+"/chat/completions", g.apiKey, model, req)
	if err != nil {
		return CompletionResponse{}, info, err
	}
	return CompletionResponse{Text: text}, info, nil
}

func resolveGroqKey(alias string) string {
	if alias != "" {
		if v := os.Getenv("DOCQA_GROQ_KEY_" + strings.ToUpper(sanitizeEnvToken(alias))); v != "" {
			return v
		}
	}
	return os.Getenv("GROQ_API_KEY")
}
