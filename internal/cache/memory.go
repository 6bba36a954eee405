package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry is a stored value with its expiry deadline.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process LRU backend with access-time TTL checks. An expired
// entry is removed on read and reported as a miss — stale values are never
// returned. Safe for concurrent use.
type Memory struct {
	mu  sync.Mutex
	lru *lru.Cache[string, entry]
	now func() time.Time
}

// MemoryOption customizes a Memory backend.
type MemoryOption func(*Memory)

// WithClock overrides the time source. Tests use this to cross TTL deadlines
// without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an LRU-bounded in-memory backend.
func NewMemory(size int, opts ...MemoryOption) (*Memory, error) {
	if size <= 0 {
		size = 1000
	}
	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	m := &Memory{lru: l, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get returns the value if present and not expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expiresAt) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	// Copy out so callers cannot mutate the stored slice.
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true, nil
}

// Set stores a complete value. Adds are atomic under the lock, so a race
// between two populates leaves one full value, never a partial write.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, entry{value: stored, expiresAt: m.now().Add(ttl)})
	return nil
}

// Invalidate removes every key with the given prefix.
func (m *Memory) Invalidate(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range m.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.lru.Remove(key)
		}
	}
	return nil
}

// Len reports the current entry count, expired entries included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}
