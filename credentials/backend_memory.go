package credentials

import (
	"context"
	"maps"
	"sync"
)

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps the credential entries in process memory
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values: make(map[string]string),
	}
}

func (b *MemoryBackend) Load(_ context.Context) (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.values), nil
}

func (b *MemoryBackend) Save(_ context.Context, values map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Copy to avoid external modifications
	b.values = maps.Clone(values)
	if b.values == nil {
		b.values = make(map[string]string)
	}
	return nil
}

func (b *MemoryBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values = make(map[string]string)
	return nil
}
