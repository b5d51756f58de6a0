package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/postsetup"
)

type PostSetupRepository struct {
	client *redis.Client
}

func NewPostSetupRepository(client *redis.Client) *PostSetupRepository {
	return &PostSetupRepository{client: client}
}

func (r *PostSetupRepository) SaveSession(ctx context.Context, session postsetup.Session, ttl time.Duration) error {
	return r.put(ctx, sessionKey(session.ID), session, ttl)
}

func (r *PostSetupRepository) GetSession(ctx context.Context, sessionID string) (postsetup.Session, bool, error) {
	var session postsetup.Session
	ok, err := r.get(ctx, sessionKey(sessionID), &session)
	return session, ok, err
}

func (r *PostSetupRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session session_id=%s: %w", sessionID, err)
	}
	return nil
}

func (r *PostSetupRepository) SavePost(ctx context.Context, post postsetup.Post) error {
	return r.put(ctx, postKey(post.ID), post, 0)
}

func (r *PostSetupRepository) GetPost(ctx context.Context, postID string) (postsetup.Post, bool, error) {
	var post postsetup.Post
	ok, err := r.get(ctx, postKey(postID), &post)
	return post, ok, err
}

func (r *PostSetupRepository) put(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *PostSetupRepository) get(ctx context.Context, key string, out any) (bool, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := sonic.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
