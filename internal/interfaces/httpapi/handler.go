package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/delivery"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/riskibarqy/matchday-tipster/internal/scheduler"
	"github.com/riskibarqy/matchday-tipster/internal/usecase"
)

// Automation is the manual gateway the admin endpoints drive.
type Automation interface {
	Start(ctx context.Context) (usecase.StartResult, error)
	Stop(ctx context.Context) usecase.StopResult
	Status(ctx context.Context) usecase.Status
	RunPredictionsNow(ctx context.Context) (content.Receipt, error)
	RunResultsNow(ctx context.Context) (content.Receipt, error)
	RunPromoNow(ctx context.Context, slot settings.Slot) (content.Receipt, error)
	RunHypeNow(ctx context.Context) (content.Receipt, error)
	RunBonusNow(ctx context.Context, text string) (content.Receipt, error)
	ReloadSettings(ctx context.Context) (settings.Settings, error)
	Timings(ctx context.Context) (match.TimingSnapshot, error)
	RecentDeliveries(ctx context.Context, limit int) ([]delivery.Event, error)
}

// JobRunner fires a registered scheduled task through its usual gates.
type JobRunner interface {
	Run(ctx context.Context, name string) (scheduler.Outcome, error)
}

type Handler struct {
	automation Automation
	jobs       JobRunner
	logger     *logging.Logger
	validator  *validator.Validate
}

func NewHandler(automation Automation, jobs JobRunner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		automation: automation,
		jobs:       jobs,
		logger:     logger.Named("httpapi"),
		validator:  validator.New(),
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

// decodeOptionalJSON decodes the body into dst. An empty body leaves dst
// untouched.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}

	decoder := jsoniter.NewDecoder(io.LimitReader(r.Body, 64<<10))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
