// Package storage is the client's local key/value store. Values are JSON
// documents kept in memory and written through to a Backend on every
// change, so readers in the same process never touch the database.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Backend persists raw values. localstorage.SQLiteRepository satisfies it.
type Backend interface {
	List(ctx context.Context) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type Storage struct {
	mu      sync.RWMutex
	backend Backend
	values  map[string][]byte
}

// New loads every value from backend.
func New(ctx context.Context, backend Backend) (*Storage, error) {
	s := &Storage{backend: backend}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemory returns an empty store that persists nowhere.
func NewMemory() *Storage {
	return &Storage{backend: newMemoryBackend(), values: make(map[string][]byte)}
}

// Reload replaces the in-memory view with the backend's contents. Use it
// after another process may have written to a shared backend.
func (s *Storage) Reload(ctx context.Context) error {
	values, err := s.backend.List(ctx)
	if err != nil {
		return fmt.Errorf("load storage: %w", err)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Get decodes the value at key into v. It reports false when the key is
// missing or its value cannot be decoded into v.
func (s *Storage) Get(key string, v any) bool {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()

	if !ok || raw == nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (s *Storage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Keys returns the stored keys in lexical order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set encodes v as JSON and stores it under key.
func (s *Storage) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Set(ctx, key, raw); err != nil {
		return err
	}
	s.values[key] = raw
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, key); err != nil {
		return err
	}
	delete(s.values, key)
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Clear(ctx); err != nil {
		return err
	}
	s.values = make(map[string][]byte)
	return nil
}
