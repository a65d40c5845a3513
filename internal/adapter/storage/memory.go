package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/niksmo/kiksniks/internal/core/port"
)

var (
	_ port.SessionStorage = (*Memory)(nil)
	_ port.SessionPurger  = (*Memory)(nil)
)

type memoryEntry struct {
	value     []byte
	updatedAt time.Time
}

// Memory is a process-local session storage for development and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]memoryEntry
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *Memory) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	const op = "Memory.Get"

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[sessionID][key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return slices.Clone(e.value), nil
}

func (m *Memory) Put(_ context.Context, sessionID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys, ok := m.data[sessionID]
	if !ok {
		keys = make(map[string]memoryEntry)
		m.data[sessionID] = keys
	}
	keys[key] = memoryEntry{value: slices.Clone(value), updatedAt: m.now()}
	return nil
}

func (m *Memory) Delete(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data[sessionID], key)
	if len(m.data[sessionID]) == 0 {
		delete(m.data, sessionID)
	}
	return nil
}

func (m *Memory) PurgeSessions(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for sid, keys := range m.data {
		for k, e := range keys {
			if e.updatedAt.Before(before) {
				delete(keys, k)
				n++
			}
		}
		if len(keys) == 0 {
			delete(m.data, sid)
		}
	}
	return n, nil
}
