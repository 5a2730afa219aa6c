package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type memoryEntry struct {
	version Version
	value   []byte
}

// Memory is an in-process VersionedStore. Versions come from a single counter
// shared by all keys, so they are totally ordered across concurrent writers.
type Memory struct {
	mu      sync.RWMutex
	seq     uint64
	history map[string][]memoryEntry
	// Hook, when set, runs before every operation; a non-nil return aborts it.
	// Tests use it to simulate an unreachable store.
	Hook func(op, key string) error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{history: make(map[string][]memoryEntry)}
}

func (m *Memory) hook(op, key string) error {
	if m.Hook == nil {
		return nil
	}
	return m.Hook(op, key)
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key string, value []byte) (Version, error) {
	if err := m.hook("put", key); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	v := Version(fmt.Sprintf("%020d", m.seq))
	m.history[key] = append(m.history[key], memoryEntry{version: v, value: slices.Clone(value)})
	return v, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if err := m.hook("get", key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.history[key]
	if len(h) == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return slices.Clone(h[len(h)-1].value), nil
}

// ListVersions implements VersionedStore.
func (m *Memory) ListVersions(_ context.Context, key string) ([]Version, error) {
	if err := m.hook("list", key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.history[key]
	out := make([]Version, 0, len(h))
	for _, e := range h {
		out = append(out, e.version)
	}
	return out, nil
}

// Writes returns how many times key was written.
func (m *Memory) Writes(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history[key])
}
