package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/poll"
)

type PollRepository struct {
	client *redis.Client
}

func NewPollRepository(client *redis.Client) *PollRepository {
	return &PollRepository{client: client}
}

// recordVoteScript adds the voter and bumps the side in one step so a vote is
// never counted in the voter set without reaching the tally.
var recordVoteScript = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("HINCRBY", KEYS[2], ARGV[2], 1)
return 1
`)

// RecordVote gates on the voter set; only a first vote increments the tally.
func (r *PollRepository) RecordVote(ctx context.Context, gameID, username string, side poll.Side) (bool, error) {
	added, err := recordVoteScript.Run(ctx, r.client, []string{pollVotersKey(gameID), pollKey(gameID)}, username, string(side)).Int()
	if err != nil {
		return false, fmt.Errorf("record vote game_id=%s: %w", gameID, err)
	}
	return added == 1, nil
}

func (r *PollRepository) Tally(ctx context.Context, gameID string) (poll.Tally, error) {
	values, err := r.client.HGetAll(ctx, pollKey(gameID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return poll.Tally{}, fmt.Errorf("hgetall poll game_id=%s: %w", gameID, err)
	}
	home, _ := strconv.ParseInt(values[string(poll.SideHome)], 10, 64)
	away, _ := strconv.ParseInt(values[string(poll.SideAway)], 10, 64)
	return poll.Tally{Home: home, Away: away}, nil
}
