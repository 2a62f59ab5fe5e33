package storage

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{values: make(map[string][]byte)}
}

func (m *memoryBackend) List(context.Context) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]byte, len(m.values))
	for k, v := range m.values {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (m *memoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryBackend) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string][]byte)
	return nil
}
