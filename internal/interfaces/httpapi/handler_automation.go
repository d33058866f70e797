package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/usecase"
)

const (
	runPredictions = "predictions"
	runResults     = "results"
	runPromo       = "promo"
	runHype        = "hype"
	runBonus       = "bonus"
)

type runRequest struct {
	Slot string `json:"slot" validate:"omitempty,oneof=morning afternoon evening"`
	Text string `json:"text" validate:"omitempty,max=3500"`
}

type matchDTO struct {
	ID         string    `json:"id"`
	LeagueID   string    `json:"leagueId,omitempty"`
	LeagueName string    `json:"leagueName,omitempty"`
	HomeTeam   string    `json:"homeTeam"`
	AwayTeam   string    `json:"awayTeam"`
	KickoffAt  time.Time `json:"kickoffAt"`
	Status     string    `json:"status"`
}

type timingsDTO struct {
	Matches               []matchDTO `json:"matches"`
	NextMatch             *matchDTO  `json:"nextMatch,omitempty"`
	ShouldPostPredictions bool       `json:"shouldPostPredictions"`
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.automation.Status(ctx))
}

func (h *Handler) StartAutomation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartAutomation")
	defer span.End()

	result, err := h.automation.Start(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "start automation failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) StopAutomation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StopAutomation")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.automation.Stop(ctx))
}

func (h *Handler) RunNow(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunNow")
	defer span.End()

	action := strings.ToLower(strings.TrimSpace(r.PathValue("action")))

	var req runRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.Slot = strings.ToLower(strings.TrimSpace(req.Slot))
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	var (
		receipt content.Receipt
		err     error
	)
	switch action {
	case runPredictions:
		receipt, err = h.automation.RunPredictionsNow(ctx)
	case runResults:
		receipt, err = h.automation.RunResultsNow(ctx)
	case runPromo:
		var slot settings.Slot
		slot, err = settings.ParseSlot(req.Slot)
		if err != nil {
			err = fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
			break
		}
		receipt, err = h.automation.RunPromoNow(ctx, slot)
	case runHype:
		receipt, err = h.automation.RunHypeNow(ctx)
	case runBonus:
		receipt, err = h.automation.RunBonusNow(ctx, req.Text)
	default:
		err = fmt.Errorf("%w: unknown action %q", usecase.ErrInvalidInput, action)
	}
	if err != nil {
		if !usecase.IsNoData(err) {
			h.logger.WarnContext(ctx, "manual run failed", "action", action, "kind", usecase.ErrorKind(err), "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, receipt)
}

func (h *Handler) ReloadSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReloadSettings")
	defer span.End()

	loaded, err := h.automation.ReloadSettings(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, loaded)
}

func (h *Handler) GetTimings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTimings")
	defer span.End()

	snapshot, err := h.automation.Timings(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "compute timings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := timingsDTO{
		Matches:               make([]matchDTO, 0, len(snapshot.AllMatches)),
		ShouldPostPredictions: snapshot.ShouldPostPredictions,
	}
	for _, item := range snapshot.AllMatches {
		out.Matches = append(out.Matches, toMatchDTO(item))
	}
	if snapshot.NextMatch != nil {
		next := toMatchDTO(*snapshot.NextMatch)
		out.NextMatch = &next
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDeliveries")
	defer span.End()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	items, err := h.automation.RecentDeliveries(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list deliveries failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"items": items})
}

func toMatchDTO(item match.Match) matchDTO {
	return matchDTO{
		ID:         item.ID,
		LeagueID:   item.LeagueID,
		LeagueName: item.LeagueName,
		HomeTeam:   item.HomeTeam,
		AwayTeam:   item.AwayTeam,
		KickoffAt:  item.KickoffAt,
		Status:     item.Status,
	}
}
