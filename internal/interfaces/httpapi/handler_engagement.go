package httpapi

import (
	"net/http"

	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
)

type voteRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Side     string `json:"side" validate:"required,oneof=home away"`
}

type reminderRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

func (h *Handler) GetPoll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPoll", gameAttr(r.PathValue("gameID")))
	defer span.End()

	if h.polls == nil {
		writeError(ctx, w, unavailable("poll service"))
		return
	}

	summary, err := h.polls.Results(ctx, r.PathValue("gameID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}

func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CastVote", gameAttr(r.PathValue("gameID")))
	defer span.End()

	if h.polls == nil {
		writeError(ctx, w, unavailable("poll service"))
		return
	}

	var req voteRequest
	if err := h.decodeBody(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	summary, err := h.polls.Vote(ctx, usecase.VoteInput{GameID: gameID, Username: req.Username, Side: req.Side})
	if err != nil {
		h.logger.InfoContext(ctx, "vote rejected", "game_id", gameID, "username", req.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, summary)
}

func (h *Handler) SubscribeReminder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubscribeReminder", gameAttr(r.PathValue("gameID")))
	defer span.End()

	if h.reminders == nil {
		writeError(ctx, w, unavailable("reminder service"))
		return
	}

	var req reminderRequest
	if err := h.decodeBody(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	if err := h.reminders.Subscribe(ctx, gameID, req.Username); err != nil {
		h.logger.InfoContext(ctx, "reminder subscribe rejected", "game_id", gameID, "username", req.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"game_id":    gameID,
		"username":   req.Username,
		"subscribed": true,
	})
}
