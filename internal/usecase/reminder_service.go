package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/reminder"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/id"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
)

const DefaultReminderWindow = 12 * time.Hour

type ReminderConfig struct {
	Window        time.Duration
	ClaimEnabled  bool
	NotifyWorkers int
}

type ScanResult struct {
	Scanned  int `json:"scanned"`
	Due      int `json:"due"`
	Skipped  int `json:"skipped"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
	Expired  int `json:"expired"`
}

type ReminderService struct {
	games    GameInfoReader
	repo     reminder.Repository
	notifier reminder.Notifier
	ids      id.Generator
	cfg      ReminderConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewReminderService(
	games GameInfoReader,
	repo reminder.Repository,
	notifier reminder.Notifier,
	ids id.Generator,
	cfg ReminderConfig,
	logger *logging.Logger,
) *ReminderService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultReminderWindow
	}
	if cfg.NotifyWorkers < 1 {
		cfg.NotifyWorkers = 8
	}
	return &ReminderService{
		games:    games,
		repo:     repo,
		notifier: notifier,
		ids:      ids,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Subscribe opts a user into a reminder for a game that has not started.
func (s *ReminderService) Subscribe(ctx context.Context, gameID, username string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReminderService.Subscribe", gameAttr(gameID))
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	info, err := s.games.GetGameInfo(ctx, gameID)
	if err != nil {
		return err
	}
	if phase := game.PhaseFromStatus(info.Status); phase != game.PhasePre {
		return fmt.Errorf("%w: reminders are only available before the game (phase=%s)", ErrWrongPhase, phase)
	}
	if info.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: game %s has no scheduled start", ErrInvalidInput, info.ID)
	}

	if err := s.repo.Schedule(ctx, reminder.Entry{EventID: info.ID, StartAt: info.ScheduledAt}); err != nil {
		return fmt.Errorf("schedule reminder game_id=%s: %w", info.ID, err)
	}
	if err := s.repo.AddSubscriber(ctx, info.ID, username, s.now()); err != nil {
		return fmt.Errorf("add reminder subscriber game_id=%s: %w", info.ID, err)
	}
	s.logger.InfoContext(ctx, "reminder subscribed", "game_id", info.ID, "username", username)
	return nil
}

// Scan notifies subscribers of games starting within the window and drops
// entries whose start time has passed. Delivery failures are logged per user.
func (s *ReminderService) Scan(ctx context.Context) (ScanResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReminderService.Scan")
	defer span.End()

	entries, err := s.repo.ListScheduled(ctx)
	if err != nil {
		return ScanResult{}, fmt.Errorf("list scheduled reminders: %w", err)
	}

	workers, err := ants.NewPool(s.cfg.NotifyWorkers)
	if err != nil {
		return ScanResult{}, fmt.Errorf("create notify pool: %w", err)
	}
	defer workers.Release()

	now := s.now()
	result := ScanResult{Scanned: len(entries)}
	for _, entry := range entries {
		until := entry.StartAt.Sub(now)
		if until > 0 && until <= s.cfg.Window {
			result.Due++
			s.fire(ctx, workers, entry, &result)
		}
		if !entry.StartAt.After(now) {
			if err := s.repo.Remove(ctx, entry.EventID); err != nil {
				s.logger.WarnContext(ctx, "remove expired reminder failed", "game_id", entry.EventID, "error", err)
				continue
			}
			result.Expired++
		}
	}

	s.logger.InfoContext(ctx, "reminder scan finished",
		"scanned", result.Scanned,
		"due", result.Due,
		"skipped", result.Skipped,
		"notified", result.Notified,
		"failed", result.Failed,
		"expired", result.Expired,
	)
	return result, nil
}

func (s *ReminderService) fire(ctx context.Context, workers *ants.Pool, entry reminder.Entry, result *ScanResult) {
	var token string
	if s.cfg.ClaimEnabled {
		var err error
		token, err = s.ids.NewID()
		if err != nil {
			s.logger.WarnContext(ctx, "reminder claim token failed", "game_id", entry.EventID, "error", err)
			result.Skipped++
			return
		}
		claimed, err := s.repo.Claim(ctx, entry.EventID, token, s.cfg.Window)
		if err != nil || !claimed {
			s.logger.InfoContext(ctx, "reminder already claimed", "game_id", entry.EventID, "error", err)
			result.Skipped++
			return
		}
	}

	usernames, err := s.repo.ListSubscribers(ctx, entry.EventID)
	if err != nil {
		s.logger.WarnContext(ctx, "list reminder subscribers failed", "game_id", entry.EventID, "error", err)
		result.Skipped++
		if token != "" {
			if err := s.repo.Release(ctx, entry.EventID, token); err != nil {
				s.logger.WarnContext(ctx, "release reminder claim failed", "game_id", entry.EventID, "error", err)
			}
		}
		return
	}

	subject, body := s.message(ctx, entry)
	var (
		wg       sync.WaitGroup
		notified atomic.Int32
		failed   atomic.Int32
	)
	for _, username := range usernames {
		wg.Add(1)
		n := reminder.Notification{Username: username, Subject: subject, Body: body}
		task := func() {
			defer wg.Done()
			if err := s.notifier.Notify(ctx, n); err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "reminder delivery failed", "game_id", entry.EventID, "username", n.Username, "error", err)
				return
			}
			notified.Add(1)
		}
		if err := workers.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	result.Notified += int(notified.Load())
	result.Failed += int(failed.Load())

	if err := s.repo.Remove(ctx, entry.EventID); err != nil {
		s.logger.WarnContext(ctx, "remove fired reminder failed", "game_id", entry.EventID, "error", err)
	}
}

func (s *ReminderService) message(ctx context.Context, entry reminder.Entry) (string, string) {
	hours := int(entry.StartAt.Sub(s.now()) / time.Hour)
	subject := "Game reminder"
	body := fmt.Sprintf("The game you asked about starts in about %d hours.", hours)
	if hours < 1 {
		body = "The game you asked about starts in less than an hour."
	}

	info, err := s.games.GetGameInfo(ctx, entry.EventID)
	if err != nil {
		s.logger.DebugContext(ctx, "reminder message without game details", "game_id", entry.EventID, "error", err)
		return subject, body
	}
	matchup := info.Away.DisplayName() + " @ " + info.Home.DisplayName()
	subject = "Game reminder: " + matchup
	body = fmt.Sprintf("%s starts %s at %s (%s).", matchup, info.Date, info.Time, info.TimeZone)
	if info.Location != "" {
		body += " Venue: " + info.Location + "."
	}
	return subject, body
}
