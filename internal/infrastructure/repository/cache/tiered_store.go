package cache

import (
	"context"
	"sync"
	"time"

	basecache "github.com/riskibarqy/mlb-scorecard/internal/platform/cache"
)

// TieredStore keeps recently read entries in process in front of a shared
// store. Local copies are dropped after localTTL so other instances' writes
// become visible.
type TieredStore struct {
	next     basecache.Store
	localTTL time.Duration
	maxItems int

	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

type localEntry struct {
	entry    basecache.Entry
	cachedAt time.Time
}

func NewTieredStore(next basecache.Store, localTTL time.Duration, maxItems int) *TieredStore {
	if localTTL <= 0 {
		localTTL = 5 * time.Second
	}
	if maxItems < 1 {
		maxItems = 512
	}
	return &TieredStore{
		next:     next,
		localTTL: localTTL,
		maxItems: maxItems,
		entries:  make(map[string]localEntry),
		now:      time.Now,
	}
}

func (s *TieredStore) Load(ctx context.Context, key string) (basecache.Entry, bool, error) {
	if entry, ok := s.local(key); ok {
		return entry, true, nil
	}
	entry, ok, err := s.next.Load(ctx, key)
	if err != nil || !ok {
		return basecache.Entry{}, ok, err
	}
	s.remember(key, entry)
	return cloneEntry(entry), true, nil
}

func (s *TieredStore) Save(ctx context.Context, key string, entry basecache.Entry) error {
	if err := s.next.Save(ctx, key, entry); err != nil {
		return err
	}
	s.remember(key, entry)
	return nil
}

func (s *TieredStore) local(key string) (basecache.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return basecache.Entry{}, false
	}
	if s.now().Sub(e.cachedAt) >= s.localTTL {
		delete(s.entries, key)
		return basecache.Entry{}, false
	}
	return cloneEntry(e.entry), true
}

func (s *TieredStore) remember(key string, entry basecache.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxItems {
		s.evictLocked(now)
	}
	s.entries[key] = localEntry{entry: cloneEntry(entry), cachedAt: now}
}

// evictLocked drops expired entries, or the oldest one when none have expired.
func (s *TieredStore) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, e := range s.entries {
		if now.Sub(e.cachedAt) >= s.localTTL {
			delete(s.entries, k)
			continue
		}
		if oldestKey == "" || e.cachedAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.cachedAt
		}
	}
	if len(s.entries) >= s.maxItems && oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func cloneEntry(e basecache.Entry) basecache.Entry {
	e.Data = append([]byte(nil), e.Data...)
	return e
}
