package qa

import (
	"context"
	"time"

	"docqa/internal/cache"
)

// MemoryAnswerCache keeps answers in process.
type MemoryAnswerCache struct {
	table *cache.TTL[string]
}

func NewMemoryAnswerCache(ttl time.Duration, opts ...cache.Option) *MemoryAnswerCache {
	return &MemoryAnswerCache{table: cache.New[string](ttl, opts...)}
}

func (m *MemoryAnswerCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.table.Get(key)
	return v, ok, nil
}

func (m *MemoryAnswerCache) Put(_ context.Context, key, value string) error {
	m.table.Put(key, value)
	return nil
}

func (m *MemoryAnswerCache) Clear(context.Context) error {
	m.table.Clear()
	return nil
}
