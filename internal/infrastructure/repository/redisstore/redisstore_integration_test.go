//go:build integration

package redisstore

import (
	"context"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/postsetup"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/reminder"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/cache"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, url)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestCacheStore(t *testing.T) {
	store := NewCacheStore(testClient(t))
	ctx := t.Context()

	if _, ok, err := store.Load(ctx, "boxscore:g1"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	at := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, "boxscore:g1", cache.Entry{Data: []byte(`{"game":{}}`), FetchedAt: at}); err != nil {
		t.Fatalf("save: %v", err)
	}
	entry, ok, err := store.Load(ctx, "boxscore:g1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(entry.Data) != `{"game":{}}` || !entry.FetchedAt.Equal(at) {
		t.Fatalf("unexpected entry: %s %s", entry.Data, entry.FetchedAt)
	}
}

func TestReminderRepository(t *testing.T) {
	repo := NewReminderRepository(testClient(t))
	ctx := t.Context()
	start := time.Date(2025, 7, 4, 23, 5, 0, 0, time.UTC)

	_ = repo.Schedule(ctx, reminder.Entry{EventID: "late", StartAt: start.Add(time.Hour)})
	_ = repo.Schedule(ctx, reminder.Entry{EventID: "early", StartAt: start})
	_ = repo.AddSubscriber(ctx, "early", "bob", start.Add(-2*time.Hour))
	_ = repo.AddSubscriber(ctx, "early", "alice", start.Add(-time.Hour))

	entries, err := repo.ListScheduled(ctx)
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(entries) != 2 || entries[0].EventID != "early" || !entries[0].StartAt.Equal(start) {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	users, _ := repo.ListSubscribers(ctx, "early")
	if !reflect.DeepEqual(users, []string{"bob", "alice"}) {
		t.Fatalf("unexpected subscribers: %v", users)
	}

	if ok, _ := repo.Claim(ctx, "early", "a", time.Minute); !ok {
		t.Fatalf("expected first claim")
	}
	if ok, _ := repo.Claim(ctx, "early", "b", time.Minute); ok {
		t.Fatalf("expected second claim to fail")
	}

	if err := repo.Remove(ctx, "early"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	entries, _ = repo.ListScheduled(ctx)
	users, _ = repo.ListSubscribers(ctx, "early")
	if len(entries) != 1 || len(users) != 0 {
		t.Fatalf("expected event and subscribers removed, entries=%+v users=%v", entries, users)
	}
	if ok, _ := repo.Claim(ctx, "early", "c", time.Minute); !ok {
		t.Fatalf("expected claim to be free after remove")
	}
	_ = repo.Release(ctx, "early", "not-c")
	if ok, _ := repo.Claim(ctx, "early", "d", time.Minute); ok {
		t.Fatalf("expected foreign release to keep the claim")
	}
	if err := repo.Release(ctx, "early", "c"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := repo.Claim(ctx, "early", "e", time.Minute); !ok {
		t.Fatalf("expected claim to be free after release")
	}
}

func TestPollRepository(t *testing.T) {
	repo := NewPollRepository(testClient(t))
	ctx := t.Context()

	if ok, _ := repo.RecordVote(ctx, "g1", "alice", "home"); !ok {
		t.Fatalf("expected vote recorded")
	}
	if ok, _ := repo.RecordVote(ctx, "g1", "alice", "away"); ok {
		t.Fatalf("expected duplicate vote rejected")
	}
	_, _ = repo.RecordVote(ctx, "g1", "bob", "away")

	tally, err := repo.Tally(ctx, "g1")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally.Home != 1 || tally.Away != 1 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
}

func TestPollRepository_ConcurrentVotesCountOnce(t *testing.T) {
	repo := NewPollRepository(testClient(t))
	ctx := t.Context()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.RecordVote(ctx, "g2", "alice", "home")
			if err != nil {
				t.Errorf("record vote: %v", err)
				return
			}
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	tally, err := repo.Tally(ctx, "g2")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if granted != 1 || tally.Home != 1 {
		t.Fatalf("expected exactly one counted vote, granted=%d tally=%+v", granted, tally)
	}
}

func TestActiveAndPostSetupRepositories(t *testing.T) {
	client := testClient(t)
	active := NewActiveGameRepository(client)
	posts := NewPostSetupRepository(client)
	ctx := t.Context()

	_ = active.MarkActive(ctx, "g1", "p1")
	_ = active.MarkActive(ctx, "g2", "p2")
	_ = active.RemoveActive(ctx, "g2")
	games, _ := active.ListActive(ctx)
	if !reflect.DeepEqual(games, map[string]string{"g1": "p1"}) {
		t.Fatalf("unexpected active games: %v", games)
	}

	session := postsetup.Session{ID: "s1", Date: "2025-07-04", SelectedGameID: "g1"}
	if err := posts.SaveSession(ctx, session, time.Minute); err != nil {
		t.Fatalf("save session: %v", err)
	}
	got, ok, err := posts.GetSession(ctx, "s1")
	if err != nil || !ok || got.SelectedGameID != "g1" {
		t.Fatalf("unexpected session: %+v ok=%v err=%v", got, ok, err)
	}
	if ttl := client.TTL(ctx, sessionKey("s1")).Val(); ttl <= 0 {
		t.Fatalf("expected session ttl, got %s", ttl)
	}
	_ = posts.DeleteSession(ctx, "s1")
	if _, ok, _ := posts.GetSession(ctx, "s1"); ok {
		t.Fatalf("expected session deleted")
	}
}

func TestLivePubSub(t *testing.T) {
	ps := NewLivePubSub(testClient(t), 4)
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	sub, err := ps.Subscribe(ctx, "g1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if err := ps.Publish(ctx, "g1", live.Message{Game: game.Info{ID: "g1"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case payload := <-sub.Messages():
		if len(payload) == 0 {
			t.Fatalf("empty payload")
		}
	case <-ctx.Done():
		t.Fatalf("no live message received")
	}
}
