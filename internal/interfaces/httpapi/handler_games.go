package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/playbyplay"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/paginate"
	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
)

const (
	playsStateOK     = "ok"
	playsStateNoData = "no_data"
)

type playsPageDTO struct {
	State      string                  `json:"state"`
	Items      []playbyplay.HalfInning `json:"items"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalItems int                     `json:"total_items"`
	TotalPages int                     `json:"total_pages"`
	HasPrev    bool                    `json:"has_prev"`
	HasNext    bool                    `json:"has_next"`
}

func (h *Handler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSchedule")
	defer span.End()

	if h.games == nil {
		writeError(ctx, w, unavailable("game service"))
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	games, err := h.games.ListSchedule(ctx, date)
	if err != nil {
		h.logger.WarnContext(ctx, "list schedule failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, games)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGame", gameAttr(r.PathValue("gameID")))
	defer span.End()

	if h.games == nil {
		writeError(ctx, w, unavailable("game service"))
		return
	}

	gameID := r.PathValue("gameID")
	view, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "get game failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view)
}

// ListPlays pages half-innings. A game without play-by-play data answers 200
// with state=no_data so clients can tell it apart from an unknown game.
func (h *Handler) ListPlays(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlays", gameAttr(r.PathValue("gameID")))
	defer span.End()

	if h.games == nil {
		writeError(ctx, w, unavailable("game service"))
		return
	}

	page, err := parsePositiveIntQuery(r, "page")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	size, err := parsePositiveIntQuery(r, "page_size")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	state := playsStateOK
	plays, err := h.games.GetPlayByPlay(ctx, gameID)
	if errors.Is(err, usecase.ErrNoPlayByPlay) {
		state = playsStateNoData
		plays = []playbyplay.HalfInning{}
	} else if err != nil {
		h.logger.WarnContext(ctx, "get play-by-play failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	p := paginate.Slice(plays, page, size)
	writeSuccess(ctx, w, http.StatusOK, playsPageDTO{
		State:      state,
		Items:      p.Items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
		HasPrev:    p.HasPrev,
		HasNext:    p.HasNext,
	})
}

func (h *Handler) GetCountdown(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCountdown", gameAttr(r.PathValue("gameID")))
	defer span.End()

	if h.games == nil {
		writeError(ctx, w, unavailable("game service"))
		return
	}

	gameID := r.PathValue("gameID")
	countdown, err := h.games.GetCountdown(ctx, gameID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, countdown)
}
