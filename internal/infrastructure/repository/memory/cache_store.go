package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/mlb-scorecard/internal/platform/cache"
)

type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]cache.Entry
}

func NewCacheStore() *CacheStore {
	return &CacheStore{entries: make(map[string]cache.Entry)}
}

func (s *CacheStore) Load(_ context.Context, key string) (cache.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return cache.Entry{}, false, nil
	}
	e.Data = append([]byte(nil), e.Data...)
	return e, true, nil
}

func (s *CacheStore) Save(_ context.Context, key string, entry cache.Entry) error {
	entry.Data = append([]byte(nil), entry.Data...)
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}
