package reminder

import (
	"context"
	"time"
)

type Repository interface {
	Schedule(ctx context.Context, entry Entry) error
	AddSubscriber(ctx context.Context, eventID, username string, at time.Time) error
	ListScheduled(ctx context.Context) ([]Entry, error)
	ListSubscribers(ctx context.Context, eventID string) ([]string, error)
	// Remove deletes the event, its subscriber set and its claim together.
	Remove(ctx context.Context, eventID string) error
	// Claim takes a one-time token for eventID; false means another scan holds it.
	Claim(ctx context.Context, eventID, token string, ttl time.Duration) (bool, error)
	// Release drops the claim if token still holds it.
	Release(ctx context.Context, eventID, token string) error
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
