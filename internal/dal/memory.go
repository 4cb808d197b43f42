package dal

import (
	"sync"
)

// MemoryDAL implements DraftDAL using in-memory storage
type MemoryDAL struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryDAL creates a new in-memory data access layer
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{
		values: make(map[string][]byte),
	}
}

func (m *MemoryDAL) Load(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	// Copy to avoid callers sharing the stored buffer
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryDAL) Save(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

func (m *MemoryDAL) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemoryDAL) Ping() error {
	return nil
}

func (m *MemoryDAL) Close() error {
	return nil
}
