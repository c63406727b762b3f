package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore holds blobs for the lifetime of the process only
type MemoryStore struct {
	mu           sync.RWMutex
	data         map[string][]byte
	maxBlobBytes int
}

func NewMemoryStore(maxBlobBytes int) *MemoryStore {
	return &MemoryStore{
		data:         make(map[string][]byte),
		maxBlobBytes: maxBlobBytes,
	}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetPath() string {
	return ":memory:"
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Put(key string, value []byte) error {
	if err := checkQuota(key, value, s.maxBlobBytes); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("empty key")
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.mu.Lock()
	s.data[key] = v
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
