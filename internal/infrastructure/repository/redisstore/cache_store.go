package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/cache"
)

// CacheStore keeps provider payloads next to their fetch time. Keys carry no
// expiry; freshness is decided by the reader.
type CacheStore struct {
	client *redis.Client
}

func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

func (s *CacheStore) Load(ctx context.Context, key string) (cache.Entry, bool, error) {
	pipe := s.client.Pipeline()
	data := pipe.Get(ctx, cacheKey(key))
	fetchedAt := pipe.Get(ctx, cacheFetchedAtKey(key))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return cache.Entry{}, false, fmt.Errorf("load cache key=%s: %w", key, err)
	}

	raw, err := data.Bytes()
	if errors.Is(err, redis.Nil) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("load cache key=%s: %w", key, err)
	}

	entry := cache.Entry{Data: raw}
	if ms, err := fetchedAt.Int64(); err == nil {
		entry.FetchedAt = time.UnixMilli(ms).UTC()
	}
	return entry, true, nil
}

func (s *CacheStore) Save(ctx context.Context, key string, entry cache.Entry) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, cacheKey(key), entry.Data, 0)
	pipe.Set(ctx, cacheFetchedAtKey(key), entry.FetchedAt.UnixMilli(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save cache key=%s: %w", key, err)
	}
	return nil
}
