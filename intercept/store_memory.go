package intercept

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process ResourceStore.
type MemoryStore struct {
	mu          sync.RWMutex
	generations map[string]map[string]CachedResource
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{generations: make(map[string]map[string]CachedResource)}
}

func (s *MemoryStore) Open(ctx context.Context, generation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generations[generation]; !ok {
		s.generations[generation] = make(map[string]CachedResource)
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, generation, key string) (CachedResource, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.generations[generation][key]
	return res, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, generation, key string, res CachedResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.generations[generation]
	if !ok {
		gen = make(map[string]CachedResource)
		s.generations[generation] = gen
	}
	gen[key] = res
	return nil
}

func (s *MemoryStore) Generations(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.generations))
	for g := range s.generations {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) DeleteGeneration(ctx context.Context, generation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.generations, generation)
	return nil
}

// Len returns the number of entries in one generation.
func (s *MemoryStore) Len(generation string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.generations[generation])
}

var _ ResourceStore = (*MemoryStore)(nil)
