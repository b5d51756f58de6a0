package memory

import (
	"context"
	"maps"
	"sync"
)

type ActiveGameRepository struct {
	mu    sync.RWMutex
	games map[string]string
}

func NewActiveGameRepository() *ActiveGameRepository {
	return &ActiveGameRepository{games: make(map[string]string)}
}

func (r *ActiveGameRepository) MarkActive(_ context.Context, gameID, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[gameID] = postID
	return nil
}

func (r *ActiveGameRepository) ListActive(_ context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.games), nil
}

func (r *ActiveGameRepository) RemoveActive(_ context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, gameID)
	return nil
}
