package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mapStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func (s *mapStore) Load(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *mapStore) Save(_ context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = map[string]Entry{}
	}
	s.entries[key] = entry
	return nil
}

func TestLoader_ServesFreshEntry(t *testing.T) {
	store := &mapStore{}
	l := NewLoader(store)
	now := time.Date(2025, 4, 7, 18, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	var calls atomic.Int32
	load := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(`{"v":1}`), nil
	}

	for i := 0; i < 3; i++ {
		got, err := l.GetOrLoad(context.Background(), "cache:boxscore:g1", MaxAge(time.Minute), load)
		if err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
		if string(got) != `{"v":1}` {
			t.Fatalf("unexpected payload %s", got)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream load, got %d", calls.Load())
	}

	now = now.Add(2 * time.Minute)
	if _, err := l.GetOrLoad(context.Background(), "cache:boxscore:g1", MaxAge(time.Minute), load); err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected stale entry to reload, got %d loads", calls.Load())
	}
	if !store.entries["cache:boxscore:g1"].FetchedAt.Equal(now) {
		t.Fatalf("fetched_at not refreshed")
	}
}

func TestLoader_SurfacesLoadError(t *testing.T) {
	l := NewLoader(&mapStore{})
	wantErr := errors.New("upstream 502")

	_, err := l.GetOrLoad(context.Background(), "k", Always, func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestMaxAge_ZeroNeverExpires(t *testing.T) {
	fresh := MaxAge(0)
	if !fresh(Entry{FetchedAt: time.Unix(0, 0)}, time.Now()) {
		t.Fatalf("expected zero max age to keep entries")
	}
}
