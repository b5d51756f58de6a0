package postsetup

import (
	"context"
	"time"
)

type Repository interface {
	SaveSession(ctx context.Context, session Session, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (Session, bool, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SavePost(ctx context.Context, post Post) error
	GetPost(ctx context.Context, postID string) (Post, bool, error)
}
