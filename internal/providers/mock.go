package providers

import (
	"context"
	"strings"

	"docqa/internal/util"
)

// MockProvider answers deterministically without a network call. It quotes
// the start of the supplied document content so tests can see what the model
// would have been given.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

const mockNoAnswer = "The document does not contain this information."

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	content := strings.TrimSpace(between(req.UserPrompt, "---\n", "\n---"))
	if content == "" {
		return CompletionResponse{Text: mockNoAnswer}, info, nil
	}
	return CompletionResponse{Text: "Based on the document: " + util.DisplaySnippet(content, 160)}, info, nil
}

func between(s, open, close string) string {
	i := strings.Index(s, open)
	if i < 0 {
		return ""
	}
	s = s[i+len(open):]
	j := strings.Index(s, close)
	if j < 0 {
		return s
	}
	return s[:j]
}
