package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/rawdata"
)

type fakeProvider struct {
	mu        sync.Mutex
	schedules map[string]string
	boxscores map[string]string
	summaries map[string]string
	pbp       map[string]string
	err       error
	calls     map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		schedules: map[string]string{},
		boxscores: map[string]string{},
		summaries: map[string]string{},
		pbp:       map[string]string{},
		calls:     map[string]int{},
	}
}

func (p *fakeProvider) get(kind string, docs map[string]string, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[kind+":"+key]++
	if p.err != nil {
		return nil, p.err
	}
	doc, ok := docs[key]
	if !ok {
		return nil, fmt.Errorf("provider status=404 %s %s", kind, key)
	}
	return []byte(doc), nil
}

func (p *fakeProvider) callCount(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[key]
}

func (p *fakeProvider) setBoxscore(gameID, doc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boxscores[gameID] = doc
}

func (p *fakeProvider) FetchDailySchedule(_ context.Context, day time.Time) ([]byte, error) {
	return p.get("schedule", p.schedules, day.Format(time.DateOnly))
}

func (p *fakeProvider) FetchBoxscore(_ context.Context, gameID string) ([]byte, error) {
	return p.get("boxscore", p.boxscores, gameID)
}

func (p *fakeProvider) FetchSummary(_ context.Context, gameID string) ([]byte, error) {
	return p.get("summary", p.summaries, gameID)
}

func (p *fakeProvider) FetchPlayByPlay(_ context.Context, gameID string) ([]byte, error) {
	return p.get("pbp", p.pbp, gameID)
}

func boxscoreDoc(gameID, status string, start time.Time) string {
	return fmt.Sprintf(`{"game":{"id":%q,"status":%q,"scheduled":%q,
	  "venue":{"name":"Fenway Park","city":"Boston","state":"MA","time_zone":"America/New_York"},
	  "home":{"id":"bos","name":"Red Sox","market":"Boston","abbr":"BOS","win":4,"loss":2,"runs":3},
	  "away":{"id":"nyy","name":"Yankees","market":"New York","abbr":"NYY","win":3,"loss":3,"runs":1}}}`,
		gameID, status, start.UTC().Format(time.RFC3339))
}

type stubGames map[string]game.Info

func (s stubGames) GetGameInfo(_ context.Context, gameID string) (game.Info, error) {
	info, ok := s[gameID]
	if !ok {
		return game.Info{}, fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	return info, nil
}

type recordingArchive struct {
	mu    sync.Mutex
	items []rawdata.Payload
}

func (a *recordingArchive) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, items...)
	return nil
}

func (a *recordingArchive) Latest(_ context.Context, source, entityType, entityKey string) (rawdata.Payload, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.items) - 1; i >= 0; i-- {
		item := a.items[i]
		if item.Source == source && item.EntityType == entityType && item.EntityKey == entityKey {
			return item, true, nil
		}
	}
	return rawdata.Payload{}, false, nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
	err  error
}

type queuedJob struct {
	Path    string
	Delay   time.Duration
	DedupID string
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, _ any, delay time.Duration, dedupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedJob{Path: path, Delay: delay, DedupID: dedupID})
	return nil
}
