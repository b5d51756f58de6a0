package redisstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	keyReminders   = "reminders"
	keyActiveGames = "active_games"
)

func cacheKey(key string) string { return "cache:" + key }

func cacheFetchedAtKey(key string) string { return "cache:" + key + ":fetched_at" }

func subscribersKey(eventID string) string { return "reminders:" + eventID + ":subscribers" }

func claimKey(eventID string) string { return "reminders:" + eventID + ":claim" }

func pollKey(gameID string) string { return "poll:" + gameID }

func pollVotersKey(gameID string) string { return "poll:" + gameID + ":voters" }

func sessionKey(sessionID string) string { return "post-setup:" + sessionID }

func postKey(postID string) string { return "post:" + postID }

func liveChannel(gameID string) string { return "game:" + gameID + ":live" }

// NewClient parses a redis:// or rediss:// URL and verifies the connection.
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
