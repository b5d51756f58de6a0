package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/poll"
)

type PollRepository struct {
	mu      sync.Mutex
	tallies map[string]poll.Tally
	voters  map[string]map[string]poll.Side
}

func NewPollRepository() *PollRepository {
	return &PollRepository{
		tallies: make(map[string]poll.Tally),
		voters:  make(map[string]map[string]poll.Side),
	}
}

func (r *PollRepository) RecordVote(_ context.Context, gameID, username string, side poll.Side) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	voters, ok := r.voters[gameID]
	if !ok {
		voters = make(map[string]poll.Side)
		r.voters[gameID] = voters
	}
	if _, voted := voters[username]; voted {
		return false, nil
	}
	voters[username] = side

	t := r.tallies[gameID]
	switch side {
	case poll.SideHome:
		t.Home++
	case poll.SideAway:
		t.Away++
	}
	r.tallies[gameID] = t
	return true, nil
}

func (r *PollRepository) Tally(_ context.Context, gameID string) (poll.Tally, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tallies[gameID], nil
}
