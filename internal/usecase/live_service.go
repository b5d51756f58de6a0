package usecase

import (
	"context"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/playbyplay"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

type GameSnapshotter interface {
	Snapshot(ctx context.Context, gameID string) (game.Info, []playbyplay.HalfInning, error)
}

type LiveSyncResult struct {
	Active    int `json:"active"`
	Published int `json:"published"`
	Finished  int `json:"finished"`
	Failed    int `json:"failed"`
}

type LiveService struct {
	games      GameSnapshotter
	active     game.ActiveRepository
	publisher  live.Publisher
	subscriber live.Subscriber
	workers    int
	logger     *logging.Logger
}

func NewLiveService(
	games GameSnapshotter,
	active game.ActiveRepository,
	publisher live.Publisher,
	subscriber live.Subscriber,
	workers int,
	logger *logging.Logger,
) *LiveService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = 4
	}
	return &LiveService{
		games:      games,
		active:     active,
		publisher:  publisher,
		subscriber: subscriber,
		workers:    workers,
		logger:     logger,
	}
}

// SyncActive publishes a fresh snapshot for every active in-progress game
// and retires games that have reached a final status.
func (s *LiveService) SyncActive(ctx context.Context) (LiveSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveService.SyncActive")
	defer span.End()

	active, err := s.active.ListActive(ctx)
	if err != nil {
		return LiveSyncResult{}, fmt.Errorf("list active games: %w", err)
	}

	outcomes := make(chan string, len(active))
	p := pool.New().WithMaxGoroutines(s.workers)
	for gameID := range active {
		p.Go(func() {
			outcomes <- s.syncOne(ctx, gameID)
		})
	}
	p.Wait()
	close(outcomes)

	result := LiveSyncResult{Active: len(active)}
	for outcome := range outcomes {
		switch outcome {
		case "published":
			result.Published++
		case "finished":
			result.Finished++
		case "failed":
			result.Failed++
		}
	}
	s.logger.InfoContext(ctx, "live sync finished",
		"active", result.Active,
		"published", result.Published,
		"finished", result.Finished,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *LiveService) syncOne(ctx context.Context, gameID string) string {
	info, plays, err := s.games.Snapshot(ctx, gameID)
	if err != nil {
		s.logger.WarnContext(ctx, "live snapshot failed", "game_id", gameID, "error", err)
		return "failed"
	}

	switch game.PhaseFromStatus(info.Status) {
	case game.PhasePre:
		return "waiting"
	case game.PhasePost:
		if _, err := s.publish(ctx, gameID, info, plays); err != nil {
			return "failed"
		}
		if err := s.active.RemoveActive(ctx, gameID); err != nil {
			s.logger.WarnContext(ctx, "retire finished game failed", "game_id", gameID, "error", err)
		}
		return "finished"
	}

	if _, err := s.publish(ctx, gameID, info, plays); err != nil {
		return "failed"
	}
	return "published"
}

func (s *LiveService) publish(ctx context.Context, gameID string, info game.Info, plays []playbyplay.HalfInning) (live.Message, error) {
	msg := live.Message{Game: info, PlayByPlayData: plays}
	if err := s.publisher.Publish(ctx, gameID, msg); err != nil {
		s.logger.WarnContext(ctx, "live publish failed", "game_id", gameID, "error", err)
		return live.Message{}, err
	}
	return msg, nil
}

// Current builds the message a newly connected client starts from.
func (s *LiveService) Current(ctx context.Context, gameID string) (live.Message, error) {
	info, plays, err := s.games.Snapshot(ctx, gameID)
	if err != nil {
		return live.Message{}, err
	}
	return live.Message{Game: info, PlayByPlayData: plays}, nil
}

// Follow subscribes to a game's live channel and calls onMessage for every
// well-formed update until ctx ends or onMessage fails. Malformed payloads are skipped.
func (s *LiveService) Follow(ctx context.Context, gameID string, onMessage func(live.Message) error) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	sub, err := s.subscriber.Subscribe(ctx, gameID)
	if err != nil {
		return fmt.Errorf("subscribe live game_id=%s: %w", gameID, err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			var msg live.Message
			if err := sonic.Unmarshal(payload, &msg); err != nil {
				s.logger.WarnContext(ctx, "drop malformed live message", "game_id", gameID, "error", err)
				continue
			}
			if err := onMessage(msg); err != nil {
				return err
			}
		}
	}
}
