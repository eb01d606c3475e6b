package store

import (
	"strconv"
	"sync"

	"nickandperla.net/wildprompt/internal/dict"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	data     *dict.Mapping
	metadata map[string]string
}

// NewMemory creates a new in-memory store holding a copy of initial, which
// may be nil.
func NewMemory(initial *dict.Mapping) *Memory {
	if initial == nil {
		initial = dict.NewMapping()
	}
	return &Memory{
		data:     initial.Clone(),
		metadata: make(map[string]string),
	}
}

// LoadAll returns a copy of the stored mapping.
func (m *Memory) LoadAll() (*dict.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Clone(), nil
}

// Persist stores a copy of mapping.
func (m *Memory) Persist(mapping *dict.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = mapping.Clone()
	m.metadata[MetaSlotCount] = strconv.Itoa(mapping.Len())
	return nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
