package httpapi

import "net/http"

type startPostSetupRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type selectGameRequest struct {
	GameID string `json:"game_id" validate:"required"`
}

func (h *Handler) StartPostSetup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartPostSetup")
	defer span.End()

	if h.postSetup == nil {
		writeError(ctx, w, unavailable("post setup service"))
		return
	}

	var req startPostSetupRequest
	if err := h.decodeBody(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	started, err := h.postSetup.Start(ctx, req.Date)
	if err != nil {
		h.logger.WarnContext(ctx, "start post setup failed", "date", req.Date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, started)
}

func (h *Handler) SelectPostGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SelectPostGame")
	defer span.End()

	if h.postSetup == nil {
		writeError(ctx, w, unavailable("post setup service"))
		return
	}

	var req selectGameRequest
	if err := h.decodeBody(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	session, err := h.postSetup.Select(ctx, r.PathValue("sessionID"), req.GameID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, session)
}

func (h *Handler) SubmitPost(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPost")
	defer span.End()

	if h.postSetup == nil {
		writeError(ctx, w, unavailable("post setup service"))
		return
	}

	post, err := h.postSetup.Submit(ctx, r.PathValue("sessionID"))
	if err != nil {
		h.logger.WarnContext(ctx, "submit post failed", "session_id", r.PathValue("sessionID"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, post)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPost")
	defer span.End()

	if h.postSetup == nil {
		writeError(ctx, w, unavailable("post setup service"))
		return
	}

	post, err := h.postSetup.GetPost(ctx, r.PathValue("postID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, post)
}
