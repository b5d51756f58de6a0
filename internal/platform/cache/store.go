package cache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a cached payload plus the time it was fetched from its source.
type Entry struct {
	Data      []byte
	FetchedAt time.Time
}

// Store persists entries without expiry. Freshness is decided by the reader.
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, entry Entry) error
}

// FreshFunc reports whether a cached entry can be served as-is.
type FreshFunc func(entry Entry, now time.Time) bool

// MaxAge treats entries younger than d as fresh. d <= 0 never expires.
func MaxAge(d time.Duration) FreshFunc {
	return func(entry Entry, now time.Time) bool {
		if d <= 0 {
			return true
		}
		return now.Sub(entry.FetchedAt) < d
	}
}

// Always forces a reload on every call.
func Always(Entry, time.Time) bool { return false }

type Loader struct {
	store  Store
	flight singleflight.Group
	now    func() time.Time
}

func NewLoader(store Store) *Loader {
	return &Loader{store: store, now: time.Now}
}

// GetOrLoad returns the cached payload for key when fresh reports it usable,
// otherwise calls load and stores its result. Concurrent loads for one key collapse.
func (l *Loader) GetOrLoad(ctx context.Context, key string, fresh FreshFunc, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if load == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if fresh == nil {
		fresh = MaxAge(0)
	}

	if entry, ok, err := l.store.Load(ctx, key); err != nil {
		return nil, fmt.Errorf("load cache key=%s: %w", key, err)
	} else if ok && fresh(entry, l.now()) {
		return entry.Data, nil
	}

	v, err, _ := l.flight.Do(key, func() (any, error) {
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := l.store.Save(ctx, key, Entry{Data: data, FetchedAt: l.now().UTC()}); err != nil {
			return nil, fmt.Errorf("save cache key=%s: %w", key, err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
