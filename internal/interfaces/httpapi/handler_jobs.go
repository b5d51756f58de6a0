package httpapi

import (
	"net/http"

	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
)

func (h *Handler) RunReminderScanJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReminderScanJob")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, unavailable("job service"))
		return
	}

	var input usecase.JobInput
	if err := h.decodeJobInput(r, &input); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobs.RunReminderScan(ctx, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "reminder scan job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunLiveSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunLiveSyncJob")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, unavailable("job service"))
		return
	}

	var input usecase.JobInput
	if err := h.decodeJobInput(r, &input); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobs.RunLiveSync(ctx, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "live sync job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// decodeJobInput accepts the queue's dispatch payload, which carries trace
// metadata next to the chain flag.
func (h *Handler) decodeJobInput(r *http.Request, input *usecase.JobInput) error {
	var body struct {
		Chain      bool   `json:"chain"`
		DispatchID string `json:"dispatch_id"`
		TraceID    string `json:"trace_id"`
		SpanID     string `json:"span_id"`
	}
	if err := h.decodeBody(r.Context(), r, &body, true); err != nil {
		return err
	}
	input.Chain = body.Chain
	if body.DispatchID != "" {
		h.logger.InfoContext(r.Context(), "job dispatch received",
			"dispatch_id", body.DispatchID,
			"origin_trace_id", body.TraceID,
			"origin_span_id", body.SpanID,
		)
	}
	return nil
}
