package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/playbyplay"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/poll"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/rawdata"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/cache"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

// SportDataProvider returns raw provider JSON documents.
type SportDataProvider interface {
	FetchDailySchedule(ctx context.Context, day time.Time) ([]byte, error)
	FetchBoxscore(ctx context.Context, gameID string) ([]byte, error)
	FetchSummary(ctx context.Context, gameID string) ([]byte, error)
	FetchPlayByPlay(ctx context.Context, gameID string) ([]byte, error)
}

type GameServiceConfig struct {
	CacheTTL        time.Duration
	DefaultLocation *time.Location
	ArchiveSource   string
}

type GameView struct {
	Phase     game.Phase    `json:"phase"`
	Game      game.Info     `json:"game"`
	Countdown *Countdown    `json:"countdown,omitempty"`
	Poll      *poll.Summary `json:"poll,omitempty"`
}

type GameService struct {
	provider SportDataProvider
	cache    *cache.Loader
	polls    poll.Repository
	archive  rawdata.Repository
	cfg      GameServiceConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewGameService(
	provider SportDataProvider,
	store cache.Store,
	polls poll.Repository,
	archive rawdata.Repository,
	cfg GameServiceConfig,
	logger *logging.Logger,
) *GameService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if strings.TrimSpace(cfg.ArchiveSource) == "" {
		cfg.ArchiveSource = "sportradar"
	}

	return &GameService{
		provider: provider,
		cache:    cache.NewLoader(store),
		polls:    polls,
		archive:  archive,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *GameService) Location() *time.Location {
	return s.cfg.DefaultLocation
}

func (s *GameService) ListSchedule(ctx context.Context, date string) ([]game.Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.ListSchedule")
	defer span.End()

	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(date), s.cfg.DefaultLocation)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	raw, err := s.fetch(ctx, "schedule", day.Format(time.DateOnly), "", cache.MaxAge(s.cfg.CacheTTL), func(ctx context.Context) ([]byte, error) {
		return s.provider.FetchDailySchedule(ctx, day)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch schedule date=%s: %w", day.Format(time.DateOnly), err)
	}
	return MapSchedule(raw)
}

// GetGameInfo maps the cached boxscore. Final games are served from cache indefinitely.
func (s *GameService) GetGameInfo(ctx context.Context, gameID string) (game.Info, error) {
	return s.gameInfo(ctx, gameID, s.finalOrYoungerThan(s.cfg.CacheTTL))
}

func (s *GameService) GetGame(ctx context.Context, gameID string) (GameView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.GetGame", gameAttr(gameID))
	defer span.End()

	info, err := s.GetGameInfo(ctx, gameID)
	if err != nil {
		return GameView{}, err
	}

	view := GameView{Phase: game.PhaseFromStatus(info.Status), Game: info}
	switch view.Phase {
	case game.PhasePre:
		countdown := ComputeCountdown(ctx, info.Date, info.Time, info.TimeZone, s.now(), s.logger)
		view.Countdown = &countdown
		if s.polls != nil {
			tally, err := s.polls.Tally(ctx, info.ID)
			if err != nil {
				return GameView{}, fmt.Errorf("read poll game_id=%s: %w", info.ID, err)
			}
			summary := poll.Results(tally)
			view.Poll = &summary
		}
	case game.PhasePost:
		stats, err := s.teamStats(ctx, info.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "extended summary unavailable", "game_id", info.ID, "error", err)
			break
		}
		view.Game.TeamStats = stats
	}
	return view, nil
}

func (s *GameService) GetPlayByPlay(ctx context.Context, gameID string) ([]playbyplay.HalfInning, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.GetPlayByPlay", gameAttr(gameID))
	defer span.End()

	raw, err := s.fetchPlayByPlay(ctx, gameID, s.finalOrYoungerThan(s.cfg.CacheTTL))
	if err != nil {
		return nil, err
	}
	plays, err := NormalizePlayByPlay(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "play-by-play parse failed", "game_id", gameID, "error", err)
		return nil, err
	}
	return plays, nil
}

func (s *GameService) GetCountdown(ctx context.Context, gameID string) (Countdown, error) {
	info, err := s.GetGameInfo(ctx, gameID)
	if err != nil {
		return Countdown{}, err
	}
	return ComputeCountdown(ctx, info.Date, info.Time, info.TimeZone, s.now(), s.logger), nil
}

// Snapshot refetches the boxscore and play-by-play concurrently, bypassing the cache.
// A missing play-by-play document yields an empty list.
func (s *GameService) Snapshot(ctx context.Context, gameID string) (game.Info, []playbyplay.HalfInning, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.Snapshot", gameAttr(gameID))
	defer span.End()

	var (
		info  game.Info
		plays []playbyplay.HalfInning
	)
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		info, err = s.gameInfo(ctx, gameID, cache.Always)
		return err
	})
	p.Go(func(ctx context.Context) error {
		raw, err := s.fetchPlayByPlay(ctx, gameID, cache.Always)
		if err != nil {
			return err
		}
		plays, err = NormalizePlayByPlay(raw)
		if errors.Is(err, ErrNoPlayByPlay) {
			plays = []playbyplay.HalfInning{}
			return nil
		}
		return err
	})
	if err := p.Wait(); err != nil {
		return game.Info{}, nil, err
	}
	return info, plays, nil
}

func (s *GameService) gameInfo(ctx context.Context, gameID string, fresh cache.FreshFunc) (game.Info, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return game.Info{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	raw, err := s.fetch(ctx, "boxscore", gameID, gameID, fresh, func(ctx context.Context) ([]byte, error) {
		return s.provider.FetchBoxscore(ctx, gameID)
	})
	if err != nil {
		return game.Info{}, fmt.Errorf("fetch boxscore game_id=%s: %w", gameID, err)
	}
	info, err := MapGameInfo(raw, s.cfg.DefaultLocation)
	if err != nil {
		return game.Info{}, err
	}
	if info.ID == "" {
		info.ID = gameID
	}
	return info, nil
}

func (s *GameService) fetchPlayByPlay(ctx context.Context, gameID string, fresh cache.FreshFunc) ([]byte, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	raw, err := s.fetch(ctx, "pbp", gameID, gameID, fresh, func(ctx context.Context) ([]byte, error) {
		return s.provider.FetchPlayByPlay(ctx, gameID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch play-by-play game_id=%s: %w", gameID, err)
	}
	return raw, nil
}

func (s *GameService) teamStats(ctx context.Context, gameID string) (*game.StatsPair, error) {
	raw, err := s.fetch(ctx, "summary", gameID, gameID, s.finalOrYoungerThan(s.cfg.CacheTTL), func(ctx context.Context) ([]byte, error) {
		return s.provider.FetchSummary(ctx, gameID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch summary game_id=%s: %w", gameID, err)
	}
	info, err := MapGameInfo(raw, s.cfg.DefaultLocation)
	if err != nil {
		return nil, err
	}
	if info.TeamStats == nil {
		return &game.StatsPair{}, nil
	}
	return info.TeamStats, nil
}

func (s *GameService) fetch(ctx context.Context, kind, key, gameID string, fresh cache.FreshFunc, load func(context.Context) ([]byte, error)) ([]byte, error) {
	return s.cache.GetOrLoad(ctx, kind+":"+key, fresh, func(ctx context.Context) ([]byte, error) {
		raw, err := load(ctx)
		if err != nil {
			if archived, ok := s.archivedFallback(ctx, kind, key, err); ok {
				return archived, nil
			}
			return nil, err
		}
		s.archivePayload(ctx, kind, key, gameID, raw)
		return raw, nil
	})
}

// archivedFallback serves the last archived document while the provider is unavailable.
func (s *GameService) archivedFallback(ctx context.Context, kind, key string, cause error) ([]byte, bool) {
	if s.archive == nil || !errors.Is(cause, ErrDependencyUnavailable) {
		return nil, false
	}
	item, ok, err := s.archive.Latest(ctx, s.cfg.ArchiveSource, kind, key)
	if err != nil || !ok || item.PayloadJSON == "" {
		if err != nil {
			s.logger.WarnContext(ctx, "read archived payload failed", "entity_type", kind, "entity_key", key, "error", err)
		}
		return nil, false
	}
	s.logger.WarnContext(ctx, "serving archived payload",
		"entity_type", kind,
		"entity_key", key,
		"fetched_at", item.FetchedAt,
		"cause", cause,
	)
	return []byte(item.PayloadJSON), true
}

func (s *GameService) archivePayload(ctx context.Context, kind, key, gameID string, raw []byte) {
	if s.archive == nil {
		return
	}
	sum := sha256.Sum256(raw)
	item := rawdata.Payload{
		Source:      s.cfg.ArchiveSource,
		EntityType:  kind,
		EntityKey:   key,
		GameID:      gameID,
		PayloadJSON: string(raw),
		PayloadHash: hex.EncodeToString(sum[:]),
		FetchedAt:   s.now().UTC(),
	}
	if err := s.archive.UpsertMany(ctx, []rawdata.Payload{item}); err != nil {
		s.logger.WarnContext(ctx, "archive provider payload failed", "entity_type", kind, "entity_key", key, "error", err)
	}
}

// finalOrYoungerThan keeps payloads of final games forever and others for ttl.
func (s *GameService) finalOrYoungerThan(ttl time.Duration) cache.FreshFunc {
	young := cache.MaxAge(ttl)
	return func(entry cache.Entry, now time.Time) bool {
		if young(entry, now) {
			return true
		}
		node, err := sonic.Get(entry.Data, "game", "status")
		if err != nil {
			return false
		}
		status, err := node.String()
		return err == nil && game.IsFinalStatus(status)
	}
}
