package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

// Object is a stored blob kept by Memory.
type Object struct {
	ContentType string
	Data        []byte
}

// Memory keeps objects in a map. URLs are baseURL + "/" + key.
type Memory struct {
	objects map[string]Object
	baseURL string
	mu      sync.RWMutex
}

// NewMemory creates an empty in-process store.
func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string]Object), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: contentType, Data: buf.Bytes()}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) URL(key string) string {
	return m.baseURL + "/" + key
}

// Get returns the object stored under key.
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ Storage = (*Memory)(nil)
