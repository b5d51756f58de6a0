package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/postsetup"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/id"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
)

type ScheduleLister interface {
	ListSchedule(ctx context.Context, date string) ([]game.Summary, error)
	Location() *time.Location
}

type GameOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type PostSetupStart struct {
	Session postsetup.Session `json:"session"`
	Games   []GameOption      `json:"games"`
}

// PostSetupService walks a moderator through picking a game for a new post.
// State between steps lives in a short-lived session, one per flow.
type PostSetupService struct {
	schedule ScheduleLister
	repo     postsetup.Repository
	active   game.ActiveRepository
	ids      id.Generator
	ttl      time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

func NewPostSetupService(
	schedule ScheduleLister,
	repo postsetup.Repository,
	active game.ActiveRepository,
	ids id.Generator,
	ttl time.Duration,
	logger *logging.Logger,
) *PostSetupService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PostSetupService{
		schedule: schedule,
		repo:     repo,
		active:   active,
		ids:      ids,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *PostSetupService) Start(ctx context.Context, date string) (PostSetupStart, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PostSetupService.Start")
	defer span.End()

	games, err := s.schedule.ListSchedule(ctx, date)
	if err != nil {
		return PostSetupStart{}, err
	}

	sessionID, err := s.ids.NewID()
	if err != nil {
		return PostSetupStart{}, fmt.Errorf("generate session id: %w", err)
	}
	session := postsetup.Session{
		ID:        sessionID,
		Date:      strings.TrimSpace(date),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.SaveSession(ctx, session, s.ttl); err != nil {
		return PostSetupStart{}, fmt.Errorf("save post setup session: %w", err)
	}

	options := make([]GameOption, 0, len(games))
	for _, g := range games {
		options = append(options, GameOption{ID: g.ID, Label: scheduleLabel(g, s.schedule.Location())})
	}
	return PostSetupStart{Session: session, Games: options}, nil
}

// Select records the chosen game. The game must be on the session's date.
func (s *PostSetupService) Select(ctx context.Context, sessionID, gameID string) (postsetup.Session, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return postsetup.Session{}, err
	}

	gameID = strings.TrimSpace(gameID)
	games, err := s.schedule.ListSchedule(ctx, session.Date)
	if err != nil {
		return postsetup.Session{}, err
	}
	found := false
	for _, g := range games {
		if g.ID == gameID {
			found = true
			break
		}
	}
	if !found {
		return postsetup.Session{}, fmt.Errorf("%w: game %q is not scheduled on %s", ErrInvalidInput, gameID, session.Date)
	}

	session.SelectedGameID = gameID
	if err := s.repo.SaveSession(ctx, session, s.ttl); err != nil {
		return postsetup.Session{}, fmt.Errorf("save post setup session: %w", err)
	}
	return session, nil
}

// Submit creates the post for the selected game and marks the game active.
func (s *PostSetupService) Submit(ctx context.Context, sessionID string) (postsetup.Post, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PostSetupService.Submit")
	defer span.End()

	session, err := s.session(ctx, sessionID)
	if err != nil {
		return postsetup.Post{}, err
	}
	if session.SelectedGameID == "" {
		return postsetup.Post{}, fmt.Errorf("%w: no game selected", ErrInvalidInput)
	}

	postID, err := s.ids.NewID()
	if err != nil {
		return postsetup.Post{}, fmt.Errorf("generate post id: %w", err)
	}
	post := postsetup.Post{ID: postID, GameID: session.SelectedGameID, CreatedAt: s.now().UTC()}
	if err := s.repo.SavePost(ctx, post); err != nil {
		return postsetup.Post{}, fmt.Errorf("save post: %w", err)
	}
	if err := s.active.MarkActive(ctx, post.GameID, post.ID); err != nil {
		return postsetup.Post{}, fmt.Errorf("mark game active game_id=%s: %w", post.GameID, err)
	}
	if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
		s.logger.WarnContext(ctx, "delete post setup session failed", "session_id", session.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "post created", "post_id", post.ID, "game_id", post.GameID)
	return post, nil
}

func (s *PostSetupService) GetPost(ctx context.Context, postID string) (postsetup.Post, error) {
	post, ok, err := s.repo.GetPost(ctx, strings.TrimSpace(postID))
	if err != nil {
		return postsetup.Post{}, fmt.Errorf("get post: %w", err)
	}
	if !ok {
		return postsetup.Post{}, fmt.Errorf("%w: post %s", ErrNotFound, postID)
	}
	return post, nil
}

func (s *PostSetupService) session(ctx context.Context, sessionID string) (postsetup.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return postsetup.Session{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	session, ok, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return postsetup.Session{}, fmt.Errorf("get post setup session: %w", err)
	}
	if !ok {
		return postsetup.Session{}, fmt.Errorf("%w: session %s expired or unknown", ErrNotFound, sessionID)
	}
	return session, nil
}
