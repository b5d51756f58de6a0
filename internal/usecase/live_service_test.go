package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/playbyplay"
	"github.com/riskibarqy/mlb-scorecard/internal/infrastructure/repository/memory"
	livemock "github.com/riskibarqy/mlb-scorecard/internal/mocks/domain/live"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type stubSnapshots struct {
	mu    sync.Mutex
	games map[string]game.Info
	plays map[string][]playbyplay.HalfInning
}

func (s *stubSnapshots) Snapshot(_ context.Context, gameID string) (game.Info, []playbyplay.HalfInning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.games[gameID]
	if !ok {
		return game.Info{}, nil, errors.New("sportradar status=404")
	}
	return info, s.plays[gameID], nil
}

func TestLiveService_SyncActive(t *testing.T) {
	ctx := t.Context()
	active := memory.NewActiveGameRepository()
	for gameID, postID := range map[string]string{"live": "p1", "final": "p2", "pre": "p3", "broken": "p4"} {
		if err := active.MarkActive(ctx, gameID, postID); err != nil {
			t.Fatalf("mark active: %v", err)
		}
	}
	snapshots := &stubSnapshots{
		games: map[string]game.Info{
			"live":  {ID: "live", Status: game.StatusInProgress},
			"final": {ID: "final", Status: game.StatusClosed},
			"pre":   {ID: "pre", Status: game.StatusScheduled},
		},
		plays: map[string][]playbyplay.HalfInning{
			"live": {{TeamName: "New York Yankees", Inning: 1, Half: playbyplay.HalfTop, Plays: []string{"Judge walks."}}},
		},
	}

	publisher := livemock.NewPublisher(t)
	publisher.On("Publish", mock.Anything, "live", mock.MatchedBy(func(m live.Message) bool {
		return m.Game.ID == "live" && len(m.PlayByPlayData) == 1
	})).Return(nil).Once()
	publisher.On("Publish", mock.Anything, "final", mock.MatchedBy(func(m live.Message) bool {
		return m.Game.Status == game.StatusClosed
	})).Return(nil).Once()

	svc := NewLiveService(snapshots, active, publisher, nil, 2, logging.NewNop())
	result, err := svc.SyncActive(ctx)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	want := LiveSyncResult{Active: 4, Published: 1, Finished: 1, Failed: 1}
	if result != want {
		t.Fatalf("unexpected result: %+v want %+v", result, want)
	}

	remaining, _ := active.ListActive(ctx)
	if _, ok := remaining["final"]; ok {
		t.Fatalf("expected final game to be retired, got %v", remaining)
	}
	if len(remaining) != 3 {
		t.Fatalf("unexpected remaining active games: %v", remaining)
	}
}

func TestLiveService_SyncActive_PublishFailureKeepsGameActive(t *testing.T) {
	ctx := t.Context()
	active := memory.NewActiveGameRepository()
	_ = active.MarkActive(ctx, "final", "p1")
	snapshots := &stubSnapshots{games: map[string]game.Info{"final": {ID: "final", Status: game.StatusComplete}}}

	publisher := livemock.NewPublisher(t)
	publisher.On("Publish", mock.Anything, "final", mock.Anything).Return(errors.New("redis down")).Once()

	svc := NewLiveService(snapshots, active, publisher, nil, 1, logging.NewNop())
	result, err := svc.SyncActive(ctx)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.Failed != 1 || result.Finished != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	remaining, _ := active.ListActive(ctx)
	if remaining["final"] != "p1" {
		t.Fatalf("expected game to stay active for the next sync, got %v", remaining)
	}
}

func TestLiveService_Follow_SkipsMalformedMessages(t *testing.T) {
	broker := memory.NewLiveBroker(8)
	svc := NewLiveService(&stubSnapshots{}, memory.NewActiveGameRepository(), broker, broker, 1, logging.NewNop())

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	received := make(chan live.Message, 2)
	done := make(chan error, 1)
	go func() {
		done <- svc.Follow(ctx, "g1", func(m live.Message) error {
			received <- m
			if len(received) == 2 {
				cancel()
			}
			return nil
		})
	}()

	waitForSubscriber(t, broker, "g1")
	if err := broker.PublishRaw("g1", []byte("not json")); err != nil {
		t.Fatalf("publish raw: %v", err)
	}
	first := live.Message{Game: game.Info{ID: "g1", Status: game.StatusInProgress}, PlayByPlayData: []playbyplay.HalfInning{}}
	if err := broker.Publish(ctx, "g1", first); err != nil {
		t.Fatalf("publish: %v", err)
	}
	second := live.Message{Game: game.Info{ID: "g1", Status: game.StatusClosed}, PlayByPlayData: []playbyplay.HalfInning{}}
	if err := broker.Publish(ctx, "g1", second); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("follow returned error: %v", err)
	}
	close(received)
	var statuses []string
	for m := range received {
		statuses = append(statuses, m.Game.Status)
	}
	if len(statuses) != 2 || statuses[0] != game.StatusInProgress || statuses[1] != game.StatusClosed {
		t.Fatalf("unexpected messages: %v", statuses)
	}
}

func TestLiveService_Follow_StopsOnHandlerError(t *testing.T) {
	broker := memory.NewLiveBroker(8)
	svc := NewLiveService(&stubSnapshots{}, memory.NewActiveGameRepository(), broker, broker, 1, logging.NewNop())

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	errClosed := errors.New("client gone")
	done := make(chan error, 1)
	go func() {
		done <- svc.Follow(ctx, "g1", func(live.Message) error { return errClosed })
	}()

	waitForSubscriber(t, broker, "g1")
	_ = broker.Publish(ctx, "g1", live.Message{Game: game.Info{ID: "g1"}})

	if err := <-done; !errors.Is(err, errClosed) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if n := broker.Subscribers("g1"); n != 0 {
		t.Fatalf("expected subscription closed, %d left", n)
	}
}

func TestLiveService_Current(t *testing.T) {
	snapshots := &stubSnapshots{games: map[string]game.Info{"g1": {ID: "g1", Status: game.StatusInProgress}}}
	svc := NewLiveService(snapshots, memory.NewActiveGameRepository(), nil, nil, 1, logging.NewNop())

	msg, err := svc.Current(t.Context(), "g1")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if msg.Game.ID != "g1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if _, err := svc.Current(t.Context(), "missing"); err == nil {
		t.Fatalf("expected snapshot error")
	}
}

func waitForSubscriber(t *testing.T, broker *memory.LiveBroker, gameID string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for broker.Subscribers(gameID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber for %s never registered", gameID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
