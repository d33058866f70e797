package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/matchday-tipster/internal/scheduler"
	"github.com/riskibarqy/matchday-tipster/internal/usecase"
)

type internalJobResult struct {
	Task    string            `json:"task"`
	Outcome scheduler.Outcome `json:"outcome"`
}

// RunPredictionsCheckJob is the kickoff wake-up target. It runs the gated
// scheduled check, so a stopped scheduler or a busy run turns it into a
// no-op rather than an error.
func (h *Handler) RunPredictionsCheckJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPredictionsCheckJob")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: job runner is not configured", usecase.ErrProviderUnavailable))
		return
	}

	outcome, err := h.jobs.Run(ctx, scheduler.TaskPredictionsCheck)
	if err != nil {
		h.logger.WarnContext(ctx, "run predictions check job failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	h.logger.InfoContext(ctx, "predictions check job finished", "outcome", outcome)

	writeSuccess(ctx, w, http.StatusOK, internalJobResult{
		Task:    scheduler.TaskPredictionsCheck,
		Outcome: outcome,
	})
}
