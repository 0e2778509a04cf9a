package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryItem[V any] struct {
	expiresAt time.Time // zero = no expiry
	value     V
	key       string
}

func (it *memoryItem[V]) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// Memory is a process-local cache with per-entry TTL and optional LRU
// eviction once MaxEntries is reached. The most recently used entry sits at
// the front of the recency list.
type Memory[V any] struct {
	index   map[string]*list.Element
	recency *list.List
	opts    *memoryOptions
	onEvict func(key string, value V)
	stop    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewMemory creates an in-memory cache and starts its janitor when a cleanup
// interval is configured.
//
//	c := cache.NewMemory[string](
//	    cache.WithDefaultTTL(5 * time.Minute),
//	    cache.WithMaxEntries(10000),
//	)
//	defer c.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory[V]{
		index:   make(map[string]*list.Element),
		recency: list.New(),
		opts:    o,
		stop:    make(chan struct{}),
	}
	if o.cleanupInterval > 0 {
		go m.janitor(o.cleanupInterval)
	}
	return m
}

// SetEvictCallback registers fn to run whenever an entry leaves the cache
// (eviction, expiry, deletion or Clear).
func (m *Memory[V]) SetEvictCallback(fn func(key string, value V)) {
	m.mu.Lock()
	m.onEvict = fn
	m.mu.Unlock()
}

// Get returns the value for key and marks it recently used.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.index[key]
	if !ok {
		return zero, ErrNotFound
	}
	it := el.Value.(*memoryItem[V])
	if it.expired(time.Now()) {
		m.drop(el)
		return zero, ErrNotFound
	}
	m.recency.MoveToFront(el)
	return it.value, nil
}

// Set stores value under key. ttl 0 uses the default, ttl < 0 never expires.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	expiresAt := expiryFor(ttl, m.opts.defaultTTL)

	if el, ok := m.index[key]; ok {
		it := el.Value.(*memoryItem[V])
		it.value, it.expiresAt = value, expiresAt
		m.recency.MoveToFront(el)
		return nil
	}

	if m.opts.maxEntries > 0 && len(m.index) >= m.opts.maxEntries {
		if oldest := m.recency.Back(); oldest != nil {
			m.drop(oldest)
		}
	}

	m.index[key] = m.recency.PushFront(&memoryItem[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.index[key]; ok {
		m.drop(el)
	}
	return nil
}

// Has reports whether key holds a live entry.
func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.index[key]
	if !ok {
		return false, nil
	}
	if el.Value.(*memoryItem[V]).expired(time.Now()) {
		m.drop(el)
		return false, nil
	}
	return true, nil
}

// Clear removes every entry.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.onEvict != nil {
		for _, el := range m.index {
			it := el.Value.(*memoryItem[V])
			m.onEvict(it.key, it.value)
		}
	}
	m.index = make(map[string]*list.Element)
	m.recency.Init()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// collected.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.index)
}

// GC removes expired entries and returns how many were dropped.
func (m *Memory[V]) GC(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for el := m.recency.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memoryItem[V]).expired(now) {
			m.drop(el)
			removed++
		}
		el = prev
	}
	return removed, nil
}

// Close stops the janitor. Further writes fail with ErrClosed.
// Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	return nil
}

func (m *Memory[V]) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			_, _ = m.GC(context.Background())
		}
	}
}

// drop unlinks el and fires the eviction callback. Caller holds mu.
func (m *Memory[V]) drop(el *list.Element) {
	m.recency.Remove(el)
	it := el.Value.(*memoryItem[V])
	delete(m.index, it.key)
	if m.onEvict != nil {
		m.onEvict(it.key, it.value)
	}
}

var (
	_ Cache[any] = (*Memory[any])(nil)
	_ Collector  = (*Memory[any])(nil)
)
