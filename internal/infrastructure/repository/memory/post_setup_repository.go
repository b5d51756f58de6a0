package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/postsetup"
)

type sessionEntry struct {
	session   postsetup.Session
	expiresAt time.Time
}

type PostSetupRepository struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	posts    map[string]postsetup.Post
	now      func() time.Time
}

func NewPostSetupRepository() *PostSetupRepository {
	return &PostSetupRepository{
		sessions: make(map[string]sessionEntry),
		posts:    make(map[string]postsetup.Post),
		now:      time.Now,
	}
}

func (r *PostSetupRepository) SaveSession(_ context.Context, session postsetup.Session, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = sessionEntry{session: session, expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *PostSetupRepository) GetSession(_ context.Context, sessionID string) (postsetup.Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return postsetup.Session{}, false, nil
	}
	if !r.now().Before(e.expiresAt) {
		delete(r.sessions, sessionID)
		return postsetup.Session{}, false, nil
	}
	return e.session, true, nil
}

func (r *PostSetupRepository) DeleteSession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *PostSetupRepository) SavePost(_ context.Context, post postsetup.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = post
	return nil
}

func (r *PostSetupRepository) GetPost(_ context.Context, postID string) (postsetup.Post, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	return p, ok, nil
}
