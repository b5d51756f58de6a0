package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/reminder"
	"github.com/riskibarqy/mlb-scorecard/internal/infrastructure/repository/memory"
	remindermock "github.com/riskibarqy/mlb-scorecard/internal/mocks/domain/reminder"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/id"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var reminderNow = time.Date(2025, 7, 4, 15, 0, 0, 0, time.UTC)

func newTestReminderService(t *testing.T, games GameInfoReader, repo reminder.Repository, notifier reminder.Notifier, claim bool) *ReminderService {
	t.Helper()
	svc := NewReminderService(games, repo, notifier, &id.Sequence{IDs: []string{"claim-1", "claim-2", "claim-3"}}, ReminderConfig{
		Window:        12 * time.Hour,
		ClaimEnabled:  claim,
		NotifyWorkers: 2,
	}, logging.NewNop())
	svc.now = func() time.Time { return reminderNow }
	return svc
}

func seedReminder(t *testing.T, repo reminder.Repository, eventID string, start time.Time, users ...string) {
	t.Helper()
	ctx := t.Context()
	if err := repo.Schedule(ctx, reminder.Entry{EventID: eventID, StartAt: start}); err != nil {
		t.Fatalf("schedule reminder: %v", err)
	}
	for i, u := range users {
		if err := repo.AddSubscriber(ctx, eventID, u, reminderNow.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("add subscriber: %v", err)
		}
	}
}

func forUser(name string) any {
	return mock.MatchedBy(func(n reminder.Notification) bool { return n.Username == name })
}

func TestReminderService_Scan_NotifiesDueGameOnce(t *testing.T) {
	repo := memory.NewReminderRepository()
	start := reminderNow.Add(time.Hour)
	seedReminder(t, repo, "g1", start, "alice", "bob")

	games := stubGames{"g1": {
		ID:       "g1",
		Status:   game.StatusScheduled,
		Date:     "Friday, July 4, 2025",
		Time:     "12:00 PM",
		TimeZone: "America/New_York",
		Location: "Fenway Park, Boston, MA",
		Home:     game.TeamInfo{Market: "Boston", Name: "Red Sox"},
		Away:     game.TeamInfo{Market: "New York", Name: "Yankees"},
	}}

	notifier := remindermock.NewNotifier(t)
	notifier.On("Notify", mock.Anything, forUser("alice")).Return(nil).Once()
	notifier.On("Notify", mock.Anything, forUser("bob")).Return(nil).Once()

	svc := newTestReminderService(t, games, repo, notifier, true)

	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Due != 1 || result.Notified != 2 || result.Failed != 0 {
		t.Fatalf("unexpected scan result: %+v", result)
	}

	entries, _ := repo.ListScheduled(t.Context())
	if len(entries) != 0 {
		t.Fatalf("expected fired reminder to be removed, got %+v", entries)
	}

	second, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if second.Scanned != 0 || second.Notified != 0 {
		t.Fatalf("expected empty second scan, got %+v", second)
	}
}

func TestReminderService_Scan_MessageNamesMatchup(t *testing.T) {
	repo := memory.NewReminderRepository()
	seedReminder(t, repo, "g1", reminderNow.Add(2*time.Hour), "alice")
	games := stubGames{"g1": {
		ID:   "g1",
		Home: game.TeamInfo{Market: "Boston", Name: "Red Sox"},
		Away: game.TeamInfo{Market: "New York", Name: "Yankees"},
	}}

	var (
		mu   sync.Mutex
		sent []reminder.Notification
	)
	notifier := remindermock.NewNotifier(t)
	notifier.On("Notify", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			mu.Lock()
			defer mu.Unlock()
			sent = append(sent, args.Get(1).(reminder.Notification))
		}).
		Return(nil).Once()

	svc := newTestReminderService(t, games, repo, notifier, false)
	if _, err := svc.Scan(t.Context()); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sent))
	}
	if !strings.Contains(sent[0].Subject, "New York Yankees @ Boston Red Sox") {
		t.Fatalf("unexpected subject: %q", sent[0].Subject)
	}
}

func TestReminderService_Scan_GenericMessageWhenGameUnknown(t *testing.T) {
	repo := memory.NewReminderRepository()
	seedReminder(t, repo, "g9", reminderNow.Add(3*time.Hour), "alice")

	notifier := remindermock.NewNotifier(t)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n reminder.Notification) bool {
		return n.Subject == "Game reminder" && strings.Contains(n.Body, "3 hours")
	})).Return(nil).Once()

	svc := newTestReminderService(t, stubGames{}, repo, notifier, false)
	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Notified != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestReminderService_Scan_RemovesStartedGameWithoutNotifying(t *testing.T) {
	repo := memory.NewReminderRepository()
	seedReminder(t, repo, "g1", reminderNow.Add(-time.Minute), "alice")

	notifier := remindermock.NewNotifier(t)
	svc := newTestReminderService(t, stubGames{}, repo, notifier, true)

	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Due != 0 || result.Expired != 1 {
		t.Fatalf("unexpected scan result: %+v", result)
	}
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)

	entries, _ := repo.ListScheduled(t.Context())
	if len(entries) != 0 {
		t.Fatalf("expected started game to be removed, got %+v", entries)
	}
}

func TestReminderService_Scan_LeavesFarFutureGames(t *testing.T) {
	repo := memory.NewReminderRepository()
	seedReminder(t, repo, "g1", reminderNow.Add(13*time.Hour), "alice")

	notifier := remindermock.NewNotifier(t)
	svc := newTestReminderService(t, stubGames{}, repo, notifier, true)

	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Scanned != 1 || result.Due != 0 || result.Expired != 0 {
		t.Fatalf("unexpected scan result: %+v", result)
	}
	entries, _ := repo.ListScheduled(t.Context())
	if len(entries) != 1 {
		t.Fatalf("expected game to stay scheduled, got %+v", entries)
	}
}

func TestReminderService_Scan_SkipsClaimedGame(t *testing.T) {
	repo := memory.NewReminderRepository()
	seedReminder(t, repo, "g1", reminderNow.Add(time.Hour), "alice")
	claimed, err := repo.Claim(t.Context(), "g1", "other-worker", time.Hour)
	if err != nil || !claimed {
		t.Fatalf("pre-claim failed: claimed=%v err=%v", claimed, err)
	}

	notifier := remindermock.NewNotifier(t)
	svc := newTestReminderService(t, stubGames{}, repo, notifier, true)

	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Due != 1 || result.Skipped != 1 || result.Notified != 0 {
		t.Fatalf("unexpected scan result: %+v", result)
	}
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestReminderService_Scan_DeliveryFailureDoesNotStopBatch(t *testing.T) {
	repo := memory.NewReminderRepository()
	seedReminder(t, repo, "g1", reminderNow.Add(time.Hour), "alice", "bob", "carol")

	notifier := remindermock.NewNotifier(t)
	notifier.On("Notify", mock.Anything, forUser("alice")).Return(nil).Once()
	notifier.On("Notify", mock.Anything, forUser("bob")).Return(errors.New("reddit status=403")).Once()
	notifier.On("Notify", mock.Anything, forUser("carol")).Return(nil).Once()

	svc := newTestReminderService(t, stubGames{}, repo, notifier, true)
	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Notified != 2 || result.Failed != 1 {
		t.Fatalf("unexpected scan result: %+v", result)
	}
	entries, _ := repo.ListScheduled(t.Context())
	if len(entries) != 0 {
		t.Fatalf("expected reminder to be removed after partial failure, got %+v", entries)
	}
}

func TestReminderService_Subscribe(t *testing.T) {
	start := reminderNow.Add(5 * time.Hour)
	games := stubGames{
		"pre":  {ID: "pre", Status: game.StatusScheduled, ScheduledAt: start},
		"live": {ID: "live", Status: game.StatusInProgress, ScheduledAt: start},
	}

	tests := []struct {
		name     string
		gameID   string
		username string
		wantErr  error
	}{
		{name: "scheduled game", gameID: "pre", username: "alice"},
		{name: "blank username", gameID: "pre", username: "  ", wantErr: ErrInvalidInput},
		{name: "game in progress", gameID: "live", username: "alice", wantErr: ErrWrongPhase},
		{name: "unknown game", gameID: "nope", username: "alice", wantErr: ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := memory.NewReminderRepository()
			svc := newTestReminderService(t, games, repo, remindermock.NewNotifier(t), true)

			err := svc.Subscribe(t.Context(), tc.gameID, tc.username)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("subscribe failed: %v", err)
			}
			entries, _ := repo.ListScheduled(t.Context())
			if len(entries) != 1 || !entries[0].StartAt.Equal(start) {
				t.Fatalf("unexpected schedule: %+v", entries)
			}
		})
	}
}

func TestReminderService_Subscribe_Idempotent(t *testing.T) {
	games := stubGames{"g1": {ID: "g1", Status: game.StatusScheduled, ScheduledAt: reminderNow.Add(time.Hour)}}
	repo := memory.NewReminderRepository()
	svc := newTestReminderService(t, games, repo, remindermock.NewNotifier(t), true)

	ctx := context.Background()
	for range 2 {
		if err := svc.Subscribe(ctx, "g1", "alice"); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}
	users, err := repo.ListSubscribers(ctx, "g1")
	if err != nil {
		t.Fatalf("list subscribers: %v", err)
	}
	if len(users) != 1 || users[0] != "alice" {
		t.Fatalf("unexpected subscribers: %v", users)
	}
}

func TestReminderService_Scan_NotifiesLateSubscriber(t *testing.T) {
	games := stubGames{"g1": {ID: "g1", Status: game.StatusScheduled, ScheduledAt: reminderNow.Add(time.Hour)}}
	repo := memory.NewReminderRepository()

	notifier := remindermock.NewNotifier(t)
	notifier.On("Notify", mock.Anything, forUser("alice")).Return(nil).Once()
	notifier.On("Notify", mock.Anything, forUser("bob")).Return(nil).Once()

	svc := newTestReminderService(t, games, repo, notifier, true)
	ctx := t.Context()

	if err := svc.Subscribe(ctx, "g1", "alice"); err != nil {
		t.Fatalf("subscribe alice: %v", err)
	}
	first, err := svc.Scan(ctx)
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if first.Due != 1 || first.Notified != 1 {
		t.Fatalf("unexpected first scan: %+v", first)
	}

	if err := svc.Subscribe(ctx, "g1", "bob"); err != nil {
		t.Fatalf("subscribe bob: %v", err)
	}
	second, err := svc.Scan(ctx)
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if second.Due != 1 || second.Skipped != 0 || second.Notified != 1 {
		t.Fatalf("expected late subscriber to be notified, got %+v", second)
	}
}

type flakySubscriberRepo struct {
	*memory.ReminderRepository
	failures int
}

func (r *flakySubscriberRepo) ListSubscribers(ctx context.Context, eventID string) ([]string, error) {
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("redis: connection reset")
	}
	return r.ReminderRepository.ListSubscribers(ctx, eventID)
}

func TestReminderService_Scan_ReleasesClaimWhenSubscribersUnavailable(t *testing.T) {
	mem := memory.NewReminderRepository()
	seedReminder(t, mem, "g1", reminderNow.Add(time.Hour), "alice")
	repo := &flakySubscriberRepo{ReminderRepository: mem, failures: 1}

	notifier := remindermock.NewNotifier(t)
	notifier.On("Notify", mock.Anything, forUser("alice")).Return(nil).Once()

	svc := newTestReminderService(t, stubGames{}, repo, notifier, true)

	first, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if first.Due != 1 || first.Skipped != 1 || first.Notified != 0 {
		t.Fatalf("unexpected first scan: %+v", first)
	}

	second, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if second.Skipped != 0 || second.Notified != 1 {
		t.Fatalf("expected retry after released claim, got %+v", second)
	}
}
