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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider uses the standard OpenAI chat completions API when a key is
// configured.
type OpenAIProvider struct {
	keyName string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

func NewOpenAIProvider(keyName string, opts Options) *OpenAIProvider {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		keyName: keyName,
		apiKey:  resolveOpenAIKey(keyName),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  opts.httpClient(60 * time.Second),
		limiter: newLimiter(opts.RequestsPerMinute),
	}
}

// Complete ignores the request model: a Groq model name means nothing to
// OpenAI, so the provider keeps its own.
func (o *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "openai", Key: o.keyName, Model: o.model}
	if o.apiKey == "" {
		return CompletionResponse{}, info, fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	if err := wait(ctx, o.limiter); err != nil {
		return CompletionResponse{}, info, fmt.Errorf("openai limiter: %w", err)
	}
	text, err := openAIChat(ctx, o.client, "openai", o.baseURL+"/chat/completions", o.apiKey, o.model, req)
	if err != nil {
		return CompletionResponse{}, info, err
	}
	return CompletionResponse{Text: text}, info, nil
}

func resolveOpenAIKey(alias string) string {
	if alias != "" {
		k := os.Getenv("DOCQA_OPENAI_KEY_" + strings.ToUpper(sanitizeEnvToken(alias)))
		if k != "" {
			return k
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}
