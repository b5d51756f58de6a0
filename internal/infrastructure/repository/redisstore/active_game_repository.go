package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type ActiveGameRepository struct {
	client *redis.Client
}

func NewActiveGameRepository(client *redis.Client) *ActiveGameRepository {
	return &ActiveGameRepository{client: client}
}

func (r *ActiveGameRepository) MarkActive(ctx context.Context, gameID, postID string) error {
	if err := r.client.HSet(ctx, keyActiveGames, gameID, postID).Err(); err != nil {
		return fmt.Errorf("hset active game game_id=%s: %w", gameID, err)
	}
	return nil
}

func (r *ActiveGameRepository) ListActive(ctx context.Context) (map[string]string, error) {
	items, err := r.client.HGetAll(ctx, keyActiveGames).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall active games: %w", err)
	}
	return items, nil
}

func (r *ActiveGameRepository) RemoveActive(ctx context.Context, gameID string) error {
	if err := r.client.HDel(ctx, keyActiveGames, gameID).Err(); err != nil {
		return fmt.Errorf("hdel active game game_id=%s: %w", gameID, err)
	}
	return nil
}
