package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/playbyplay"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/poll"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/postsetup"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
)

const maxRequestBodyBytes = 64 << 10

type GameReader interface {
	ListSchedule(ctx context.Context, date string) ([]game.Summary, error)
	GetGame(ctx context.Context, gameID string) (usecase.GameView, error)
	GetPlayByPlay(ctx context.Context, gameID string) ([]playbyplay.HalfInning, error)
	GetCountdown(ctx context.Context, gameID string) (usecase.Countdown, error)
}

type PollVoter interface {
	Vote(ctx context.Context, input usecase.VoteInput) (poll.Summary, error)
	Results(ctx context.Context, gameID string) (poll.Summary, error)
}

type ReminderSubscriber interface {
	Subscribe(ctx context.Context, gameID, username string) error
}

type PostSetupFlow interface {
	Start(ctx context.Context, date string) (usecase.PostSetupStart, error)
	Select(ctx context.Context, sessionID, gameID string) (postsetup.Session, error)
	Submit(ctx context.Context, sessionID string) (postsetup.Post, error)
	GetPost(ctx context.Context, postID string) (postsetup.Post, error)
}

type LiveFollower interface {
	Current(ctx context.Context, gameID string) (live.Message, error)
	Follow(ctx context.Context, gameID string, onMessage func(live.Message) error) error
}

type JobRunner interface {
	RunReminderScan(ctx context.Context, input usecase.JobInput) (usecase.ReminderJobResult, error)
	RunLiveSync(ctx context.Context, input usecase.JobInput) (usecase.LiveJobResult, error)
}

// Services groups what the handlers call. A nil service makes its routes
// answer 503.
type Services struct {
	Games     GameReader
	Polls     PollVoter
	Reminders ReminderSubscriber
	PostSetup PostSetupFlow
	Live      LiveFollower
	Jobs      JobRunner
}

type Handler struct {
	games     GameReader
	polls     PollVoter
	reminders ReminderSubscriber
	postSetup PostSetupFlow
	live      LiveFollower
	jobs      JobRunner
	logger    *logging.Logger
	validator *validator.Validate
	upgrader  liveUpgrader
}

func NewHandler(services Services, allowedOrigins []string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		games:     services.Games,
		polls:     services.Polls,
		reminders: services.Reminders,
		postSetup: services.PostSetup,
		live:      services.Live,
		jobs:      services.Jobs,
		logger:    logger,
		validator: validator.New(),
		upgrader:  newLiveUpgrader(allowedOrigins),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeBody reads a JSON body into dst and validates it. An empty body is
// allowed when optional is set.
func (h *Handler) decodeBody(ctx context.Context, r *http.Request, dst any, optional bool) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if optional {
			return nil
		}
		return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}

	decoder := sonic.ConfigDefault.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func unavailable(name string) error {
	return fmt.Errorf("%w: %s is not configured", usecase.ErrDependencyUnavailable, name)
}

func parsePositiveIntQuery(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, key)
	}
	return value, nil
}
