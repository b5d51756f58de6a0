package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/reminder"
)

// ReminderRepository stores scheduled games in a sorted set scored by start
// time (unix ms) and each game's subscribers in a sorted set scored by opt-in time.
type ReminderRepository struct {
	client *redis.Client
}

func NewReminderRepository(client *redis.Client) *ReminderRepository {
	return &ReminderRepository{client: client}
}

func (r *ReminderRepository) Schedule(ctx context.Context, entry reminder.Entry) error {
	err := r.client.ZAdd(ctx, keyReminders, redis.Z{
		Score:  float64(entry.StartAt.UnixMilli()),
		Member: entry.EventID,
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd reminders event_id=%s: %w", entry.EventID, err)
	}
	return nil
}

func (r *ReminderRepository) AddSubscriber(ctx context.Context, eventID, username string, at time.Time) error {
	err := r.client.ZAdd(ctx, subscribersKey(eventID), redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: username,
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd subscribers event_id=%s: %w", eventID, err)
	}
	return nil
}

func (r *ReminderRepository) ListScheduled(ctx context.Context) ([]reminder.Entry, error) {
	items, err := r.client.ZRangeWithScores(ctx, keyReminders, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange reminders: %w", err)
	}
	out := make([]reminder.Entry, 0, len(items))
	for _, item := range items {
		eventID, ok := item.Member.(string)
		if !ok || eventID == "" {
			continue
		}
		out = append(out, reminder.Entry{
			EventID: eventID,
			StartAt: time.UnixMilli(int64(item.Score)).UTC(),
		})
	}
	return out, nil
}

func (r *ReminderRepository) ListSubscribers(ctx context.Context, eventID string) ([]string, error) {
	users, err := r.client.ZRange(ctx, subscribersKey(eventID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange subscribers event_id=%s: %w", eventID, err)
	}
	return users, nil
}

func (r *ReminderRepository) Remove(ctx context.Context, eventID string) error {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, keyReminders, eventID)
	pipe.Del(ctx, subscribersKey(eventID), claimKey(eventID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove reminder event_id=%s: %w", eventID, err)
	}
	return nil
}

// Claim takes the per-game firing lock. It expires on its own after ttl.
func (r *ReminderRepository) Claim(ctx context.Context, eventID, token string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, claimKey(eventID), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim reminder event_id=%s: %w", eventID, err)
	}
	return ok, nil
}

var releaseClaimScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *ReminderRepository) Release(ctx context.Context, eventID, token string) error {
	if err := releaseClaimScript.Run(ctx, r.client, []string{claimKey(eventID)}, token).Err(); err != nil {
		return fmt.Errorf("release reminder claim event_id=%s: %w", eventID, err)
	}
	return nil
}
