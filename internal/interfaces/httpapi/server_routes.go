package httpapi

import (
	"net/http"

	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool, docsTitle string) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	docs := handler.SwaggerUI(docsTitle)
	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", docs)
	mux.HandleFunc("GET /docs/", docs)
}

func registerGameRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/schedule", handler.ListSchedule)
	mux.HandleFunc("GET /v1/games/{gameID}", handler.GetGame)
	mux.HandleFunc("GET /v1/games/{gameID}/plays", handler.ListPlays)
	mux.HandleFunc("GET /v1/games/{gameID}/countdown", handler.GetCountdown)
	mux.HandleFunc("GET /v1/games/{gameID}/live", handler.LiveGame)
}

func registerEngagementRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/games/{gameID}/poll", handler.GetPoll)
	mux.HandleFunc("POST /v1/games/{gameID}/votes", handler.CastVote)
	mux.HandleFunc("POST /v1/games/{gameID}/reminders", handler.SubscribeReminder)
}

func registerPostSetupRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/post-setup", handler.StartPostSetup)
	mux.HandleFunc("PUT /v1/post-setup/{sessionID}/selection", handler.SelectPostGame)
	mux.HandleFunc("POST /v1/post-setup/{sessionID}/submit", handler.SubmitPost)
	mux.HandleFunc("GET /v1/posts/{postID}", handler.GetPost)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST "+usecase.ReminderScanJobPath, RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunReminderScanJob)))
	mux.Handle("POST "+usecase.LiveSyncJobPath, RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunLiveSyncJob)))
}
