package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"docqa/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// Manager owns the configured providers and answers completions with the
// first one that succeeds. Providers that hit quota or rate limits are parked
// for the cooldown period.
type Manager struct {
	llmProviders  []NamedLLMProvider
	cooldown      time.Duration
	now           func() time.Time
	mu            sync.Mutex
	disabledUntil map[int]time.Time
}

func NewManager(cfg config.Config) (*Manager, error) {
	opts := Options{RequestsPerMinute: cfg.LLMRequestsPerMinute}
	m := newManager(time.Duration(cfg.ProviderCooldownSecs) * time.Second)
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, opts)
		if err != nil {
			return nil, err
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: p})
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: mockRef, Provider: NewMockProvider()}}
	}
	return m, nil
}

// NewManagerWith wraps already built providers, in preference order.
func NewManagerWith(cooldown time.Duration, named ...NamedLLMProvider) *Manager {
	m := newManager(cooldown)
	m.llmProviders = append(m.llmProviders, named...)
	return m
}

func newManager(cooldown time.Duration) *Manager {
	return &Manager{
		cooldown:      cooldown,
		now:           time.Now,
		disabledUntil: map[int]time.Time{},
	}
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}

func (m *Manager) Refs() []ProviderRef {
	out := make([]ProviderRef, 0, len(m.llmProviders))
	for i := range m.llmProviders {
		out = append(out, m.llmProviders[i].Ref)
	}
	return out
}

func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func (m *Manager) available(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.disabledUntil[i]
	if !ok {
		return true
	}
	if m.now().Before(until) {
		return false
	}
	delete(m.disabledUntil, i)
	return true
}

func (m *Manager) park(i int) {
	if m.cooldown <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabledUntil[i] = m.now().Add(m.cooldown)
}

// Complete tries providers in preferred order. Quota, rate and transient
// failures fall through to the next provider; anything else is returned.
func (m *Manager) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, ProviderInfo, error) {
	var lastErr error
	var lastInfo ProviderInfo
	tried := 0
	for _, i := range m.PreferredLLMOrder() {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return CompletionResponse{}, lastInfo, lastErr
		}
		if !m.available(i) {
			continue
		}
		tried++
		resp, info, err := m.llmProviders[i].Provider.Complete(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		kind := ClassifyError(err)
		lastErr = fmt.Errorf("%w: %w", sentinelFor(kind), err)
		lastInfo = info
		if kind == ErrorQuota || kind == ErrorRate {
			m.park(i)
		}
		if !kind.Fallthrough() {
			return CompletionResponse{}, info, lastErr
		}
	}
	if tried == 0 {
		return CompletionResponse{}, lastInfo, errors.New("no llm provider available")
	}
	return CompletionResponse{}, lastInfo, lastErr
}

func buildProvider(ref ProviderRef, opts Options) (LLMProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias, opts), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias, opts), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias, opts), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
