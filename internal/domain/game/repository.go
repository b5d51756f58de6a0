package game

import "context"

// ActiveRepository tracks games with a live post attached.
type ActiveRepository interface {
	MarkActive(ctx context.Context, gameID, postID string) error
	ListActive(ctx context.Context) (map[string]string, error)
	RemoveActive(ctx context.Context, gameID string) error
}
