package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/reminder"
)

type claim struct {
	token     string
	expiresAt time.Time
}

type ReminderRepository struct {
	mu          sync.Mutex
	schedule    map[string]time.Time
	subscribers map[string]map[string]time.Time
	claims      map[string]claim
	now         func() time.Time
}

func NewReminderRepository() *ReminderRepository {
	return &ReminderRepository{
		schedule:    make(map[string]time.Time),
		subscribers: make(map[string]map[string]time.Time),
		claims:      make(map[string]claim),
		now:         time.Now,
	}
}

func (r *ReminderRepository) Schedule(_ context.Context, entry reminder.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedule[entry.EventID] = entry.StartAt
	return nil
}

func (r *ReminderRepository) AddSubscriber(_ context.Context, eventID, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.subscribers[eventID]
	if !ok {
		subs = make(map[string]time.Time)
		r.subscribers[eventID] = subs
	}
	subs[username] = at
	return nil
}

func (r *ReminderRepository) ListScheduled(_ context.Context) ([]reminder.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reminder.Entry, 0, len(r.schedule))
	for eventID, start := range r.schedule {
		out = append(out, reminder.Entry{EventID: eventID, StartAt: start})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].EventID < out[j].EventID
	})
	return out, nil
}

func (r *ReminderRepository) ListSubscribers(_ context.Context, eventID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subscribers[eventID]
	out := make([]string, 0, len(subs))
	for username := range subs {
		out = append(out, username)
	}
	sort.Slice(out, func(i, j int) bool {
		if !subs[out[i]].Equal(subs[out[j]]) {
			return subs[out[i]].Before(subs[out[j]])
		}
		return out[i] < out[j]
	})
	return out, nil
}

func (r *ReminderRepository) Remove(_ context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schedule, eventID)
	delete(r.subscribers, eventID)
	delete(r.claims, eventID)
	return nil
}

func (r *ReminderRepository) Claim(_ context.Context, eventID, token string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if c, ok := r.claims[eventID]; ok && now.Before(c.expiresAt) {
		return false, nil
	}
	r.claims[eventID] = claim{token: token, expiresAt: now.Add(ttl)}
	return true, nil
}

func (r *ReminderRepository) Release(_ context.Context, eventID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.claims[eventID]; ok && c.token == token {
		delete(r.claims, eventID)
	}
	return nil
}
