package scheduler

import (
	"context"

	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/usecase"
)

const (
	TaskFixturesRefresh  = "fixtures-refresh"
	TaskPredictionsCheck = "predictions-check"
	TaskPredictionsFixed = "predictions-fixed"
	TaskResultsCheck     = "results-check"
	TaskPromoMorning     = "promo-morning"
	TaskPromoAfternoon   = "promo-afternoon"
	TaskPromoEvening     = "promo-evening"
	TaskAnalyticsReset   = "analytics-reset"
	TaskHype             = "hype"
)

// Specs holds the cron expression of every task. Hype is off by default.
type Specs struct {
	FixturesRefresh  string
	PredictionsCheck string
	PredictionsFixed string
	ResultsCheck     string
	PromoMorning     string
	PromoAfternoon   string
	PromoEvening     string
	AnalyticsReset   string
	Hype             string
}

func DefaultSpecs() Specs {
	return Specs{
		FixturesRefresh:  "0 6 * * *",
		PredictionsCheck: "*/30 * * * *",
		PredictionsFixed: "0 * * * *",
		ResultsCheck:     "0 * * * *",
		PromoMorning:     "0 10 * * *",
		PromoAfternoon:   "0 15 * * *",
		PromoEvening:     "0 19 * * *",
		AnalyticsReset:   "0 0 * * *",
	}
}

// BuildTasks maps the posting coordinator onto the cron grid. Both
// prediction tasks are registered; each no-ops unless its mode is active.
func BuildTasks(poster *usecase.PosterService, specs Specs) []Task {
	promo := func(slot settings.Slot) Action {
		return func(ctx context.Context) error {
			return poster.PostPromo(ctx, slot)
		}
	}

	return []Task{
		{Name: TaskFixturesRefresh, Spec: specs.FixturesRefresh, Action: poster.RefreshFixtures, IsolateFailures: true},
		{Name: TaskPredictionsCheck, Spec: specs.PredictionsCheck, Action: poster.CheckPredictions, IsolateFailures: true},
		{Name: TaskPredictionsFixed, Spec: specs.PredictionsFixed, Action: poster.CheckFixedPredictions, IsolateFailures: true},
		{Name: TaskResultsCheck, Spec: specs.ResultsCheck, Action: poster.CheckResults, IsolateFailures: true},
		{Name: TaskPromoMorning, Spec: specs.PromoMorning, Action: promo(settings.SlotMorning), IsolateFailures: true},
		{Name: TaskPromoAfternoon, Spec: specs.PromoAfternoon, Action: promo(settings.SlotAfternoon), IsolateFailures: true},
		{Name: TaskPromoEvening, Spec: specs.PromoEvening, Action: promo(settings.SlotEvening), IsolateFailures: true},
		{Name: TaskAnalyticsReset, Spec: specs.AnalyticsReset, Action: poster.ResetDailyStats, IsolateFailures: true},
		{Name: TaskHype, Spec: specs.Hype, Action: poster.PostHype, IsolateFailures: true},
	}
}

// Register adds every task to d.
func Register(d *Driver, tasks []Task) error {
	for _, task := range tasks {
		if err := d.Add(task); err != nil {
			return err
		}
	}
	return nil
}
