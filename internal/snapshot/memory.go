package snapshot

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process store for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryEntry
	puts    int
}

type memoryEntry struct {
	meta Metadata
	data map[string]any
}

func NewMemory() *MemoryStore {
	return &MemoryStore{objects: map[string]memoryEntry{}}
}

func memoryKey(id ID, stage string) string {
	return stage + "/" + id.String()
}

func (m *MemoryStore) Get(_ context.Context, id ID, stage string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.objects[memoryKey(id, stage)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, stage, id)
	}
	out := make(map[string]any, len(e.data))
	for k, v := range e.data {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Put(_ context.Context, id ID, stage string, meta Metadata, payload map[string]any) error {
	data := make(map[string]any, len(payload))
	for k, v := range payload {
		data[k] = v
	}
	m.mu.Lock()
	m.objects[memoryKey(id, stage)] = memoryEntry{meta: meta, data: data}
	m.puts++
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Puts reports the number of writes, used by tests asserting idempotency.
func (m *MemoryStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// Meta returns the stored write metadata for (id, stage).
func (m *MemoryStore) Meta(id ID, stage string) (Metadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.objects[memoryKey(id, stage)]
	return e.meta, ok
}
