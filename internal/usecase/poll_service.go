package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/poll"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
)

// GameInfoReader is the slice of GameService other services depend on.
type GameInfoReader interface {
	GetGameInfo(ctx context.Context, gameID string) (game.Info, error)
}

type VoteInput struct {
	GameID   string
	Username string
	Side     string
}

type PollService struct {
	games  GameInfoReader
	repo   poll.Repository
	logger *logging.Logger
}

func NewPollService(games GameInfoReader, repo poll.Repository, logger *logging.Logger) *PollService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PollService{games: games, repo: repo, logger: logger}
}

// Vote records a prediction before first pitch. Each user votes once per game.
func (s *PollService) Vote(ctx context.Context, input VoteInput) (poll.Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PollService.Vote", gameAttr(input.GameID))
	defer span.End()

	username := strings.TrimSpace(input.Username)
	side, ok := poll.ParseSide(input.Side)
	if username == "" || !ok {
		return poll.Summary{}, fmt.Errorf("%w: username and side (home|away) are required", ErrInvalidInput)
	}

	info, err := s.games.GetGameInfo(ctx, input.GameID)
	if err != nil {
		return poll.Summary{}, err
	}
	if phase := game.PhaseFromStatus(info.Status); phase != game.PhasePre {
		return poll.Summary{}, fmt.Errorf("%w: voting is closed once the game starts (phase=%s)", ErrWrongPhase, phase)
	}

	recorded, err := s.repo.RecordVote(ctx, info.ID, username, side)
	if err != nil {
		return poll.Summary{}, fmt.Errorf("record vote game_id=%s: %w", info.ID, err)
	}
	if !recorded {
		return poll.Summary{}, ErrAlreadyVoted
	}
	s.logger.InfoContext(ctx, "vote recorded", "game_id", info.ID, "side", side)

	return s.Results(ctx, info.ID)
}

func (s *PollService) Results(ctx context.Context, gameID string) (poll.Summary, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return poll.Summary{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	tally, err := s.repo.Tally(ctx, gameID)
	if err != nil {
		return poll.Summary{}, fmt.Errorf("read poll game_id=%s: %w", gameID, err)
	}
	return poll.Results(tally), nil
}
