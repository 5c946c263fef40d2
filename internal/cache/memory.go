package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache — потокобезопасный in-memory кэш с TTL.
// Используется при работе без Redis и в тестах.
type MemoryCache struct {
	mu           sync.RWMutex
	entries      map[string]memoryEntry
	cleanupEvery time.Duration
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache создаёт in-memory кэш. cleanupEvery задаёт период
// фоновой чистки; просроченные записи в любом случае отфильтровываются при чтении.
func NewMemoryCache(cleanupEvery time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:      make(map[string]memoryEntry),
		cleanupEvery: cleanupEvery,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	ent, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(ent.expiresAt) {
		return nil, false, nil
	}
	return ent.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Cleanup удаляет просроченные записи.
func (c *MemoryCache) Cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, ent := range c.entries {
		if now.After(ent.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// StartJanitor запускает периодическую чистку. Останавливается по отмене контекста.
func (c *MemoryCache) StartJanitor(ctx context.Context) {
	if c.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(c.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.Cleanup()
			}
		}
	}()
}
