package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/delivery"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
)

// ScheduledRun is the next fire time of one scheduled task.
type ScheduledRun struct {
	Task string    `json:"task"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
}

// ScheduleDriver is the part of the schedule driver the gateway reports on.
type ScheduleDriver interface {
	NextRuns() []ScheduledRun
}

type StartResult struct {
	Started        bool              `json:"started"`
	AlreadyRunning bool              `json:"alreadyRunning"`
	Matches        int               `json:"matches"`
	Settings       settings.Settings `json:"settings"`
}

type StopResult struct {
	Stopped    bool `json:"stopped"`
	WasRunning bool `json:"wasRunning"`
}

type MatchSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	League           string    `json:"league,omitempty"`
	KickoffAt        time.Time `json:"kickoffAt"`
	MinutesToKickoff float64   `json:"minutesToKickoff"`
}

type Status struct {
	IsRunning                   bool              `json:"isRunning"`
	Timezone                    string            `json:"timezone"`
	Mode                        string            `json:"mode"`
	DailyStats                  DailyStats        `json:"dailyStats"`
	StatsSince                  time.Time         `json:"statsSince"`
	PreviousDay                 *DailyReport      `json:"previousDay,omitempty"`
	NextScheduled               []ScheduledRun    `json:"nextScheduled"`
	TodayMatches                int               `json:"todayMatches"`
	MatchesRefreshedAt          *time.Time        `json:"matchesRefreshedAt,omitempty"`
	NextMatch                   *MatchSummary     `json:"nextMatch,omitempty"`
	ShouldPostPredictions       bool              `json:"shouldPostPredictions"`
	LastPredictionPost          *time.Time        `json:"lastPredictionPost,omitempty"`
	ResultsPostedOn             string            `json:"resultsPostedOn,omitempty"`
	ConsecutiveDeliveryFailures int               `json:"consecutiveDeliveryFailures"`
	Settings                    settings.Settings `json:"settings"`
}

// AutomationService is the manual gateway. Manual runs skip the time and gap
// gates, work while the scheduler is stopped and return typed errors.
type AutomationService struct {
	poster  *PosterService
	driver  ScheduleDriver
	journal delivery.Repository
	logger  *logging.Logger
	now     func() time.Time
}

func NewAutomationService(poster *PosterService, driver ScheduleDriver, journal delivery.Repository, logger *logging.Logger) *AutomationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AutomationService{
		poster:  poster,
		driver:  driver,
		journal: journal,
		logger:  logger.Named("automation"),
		now:     time.Now,
	}
}

// Start reloads settings and enables the scheduled tasks. Starting twice is
// a logged no-op.
func (s *AutomationService) Start(ctx context.Context) (StartResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutomationService.Start")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return StartResult{}, err
	}

	state := s.poster.State()
	if state.IsRunning() {
		s.logger.WarnContext(ctx, "automation already running")
		return StartResult{AlreadyRunning: true, Settings: state.Settings()}, nil
	}

	loaded := s.poster.ReloadSettings(ctx)
	if !state.TryStart() {
		s.logger.WarnContext(ctx, "automation already running")
		return StartResult{AlreadyRunning: true, Settings: loaded}, nil
	}
	s.logger.InfoContext(ctx, "automation started", "timezone", s.poster.Location().String())

	if err := s.poster.RefreshFixtures(ctx); err != nil {
		s.poster.HandleTaskFailure(ctx, "start-refresh", err)
	}

	return StartResult{
		Started:  true,
		Matches:  len(state.TodayMatches()),
		Settings: loaded,
	}, nil
}

// Stop only flips the running flag. Timers stay registered and in-flight
// runs finish.
func (s *AutomationService) Stop(ctx context.Context) StopResult {
	_, span := startUsecaseSpan(ctx, "usecase.AutomationService.Stop")
	defer span.End()

	was := s.poster.State().Stop()
	if was {
		s.logger.InfoContext(ctx, "automation stopped")
	}
	return StopResult{Stopped: true, WasRunning: was}
}

func (s *AutomationService) Status(ctx context.Context) Status {
	_, span := startUsecaseSpan(ctx, "usecase.AutomationService.Status")
	defer span.End()

	now := s.now()
	snap := s.poster.State().Snapshot()

	mode := "dynamic"
	if !snap.Settings.AutoPosting.DynamicTiming {
		mode = "fixed"
	}

	status := Status{
		IsRunning:                   snap.IsRunning,
		Timezone:                    s.poster.Location().String(),
		Mode:                        mode,
		DailyStats:                  snap.Stats,
		StatsSince:                  snap.StatsSince,
		PreviousDay:                 snap.PreviousDay,
		NextScheduled:               []ScheduledRun{},
		TodayMatches:                len(snap.TodayMatches),
		ResultsPostedOn:             snap.ResultsPostedOn,
		ConsecutiveDeliveryFailures: snap.ConsecutiveDeliveryFailures,
		Settings:                    snap.Settings,
	}
	if s.driver != nil {
		status.NextScheduled = s.driver.NextRuns()
	}
	if !snap.MatchesRefreshedAt.IsZero() {
		at := snap.MatchesRefreshedAt
		status.MatchesRefreshedAt = &at
	}
	if !snap.LastPredictionPost.IsZero() {
		at := snap.LastPredictionPost
		status.LastPredictionPost = &at
	}

	timings := ComputeTimings(snap.TodayMatches, now, snap.Settings.Window())
	status.ShouldPostPredictions = timings.ShouldPostPredictions
	if timings.NextMatch != nil {
		status.NextMatch = summarize(*timings.NextMatch, now)
	}

	return status
}

func (s *AutomationService) RunPredictionsNow(ctx context.Context) (content.Receipt, error) {
	receipt, err := s.poster.PredictNow(ctx)
	return receipt, s.observe(ctx, "predictions", err)
}

func (s *AutomationService) RunResultsNow(ctx context.Context) (content.Receipt, error) {
	receipt, err := s.poster.ResultsNow(ctx)
	return receipt, s.observe(ctx, "results", err)
}

func (s *AutomationService) RunPromoNow(ctx context.Context, slot settings.Slot) (content.Receipt, error) {
	receipt, err := s.poster.PromoNow(ctx, slot)
	return receipt, s.observe(ctx, "promo", err)
}

func (s *AutomationService) RunHypeNow(ctx context.Context) (content.Receipt, error) {
	receipt, err := s.poster.HypeNow(ctx)
	return receipt, s.observe(ctx, "hype", err)
}

func (s *AutomationService) RunBonusNow(ctx context.Context, text string) (content.Receipt, error) {
	receipt, err := s.poster.BonusNow(ctx, text)
	return receipt, s.observe(ctx, "bonus", err)
}

func (s *AutomationService) ReloadSettings(ctx context.Context) (settings.Settings, error) {
	if err := ctx.Err(); err != nil {
		return settings.Settings{}, err
	}
	return s.poster.ReloadSettings(ctx), nil
}

// Timings computes the current snapshot from a fresh upcoming fetch.
func (s *AutomationService) Timings(ctx context.Context) (match.TimingSnapshot, error) {
	return s.poster.Timings(ctx)
}

func (s *AutomationService) RecentDeliveries(ctx context.Context, limit int) ([]delivery.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if s.journal == nil {
		return []delivery.Event{}, nil
	}
	return s.journal.ListRecent(ctx, limit)
}

// observe counts manual failures. Missing data is reported to the caller
// but is not an error for the daily stats.
func (s *AutomationService) observe(ctx context.Context, action string, err error) error {
	if err == nil {
		return nil
	}
	if IsNoData(err) {
		s.logger.InfoContext(ctx, "manual run found nothing to post", "action", action, "error", err)
		return err
	}
	if errors.Is(err, ErrInvalidInput) {
		return err
	}

	s.poster.State().IncrementErrors()
	s.logger.WarnContext(ctx, "manual run failed",
		"action", action,
		"kind", ErrorKind(err),
		"error", err,
	)
	return err
}

func summarize(item match.Match, now time.Time) *MatchSummary {
	return &MatchSummary{
		ID:               item.ID,
		Title:            item.Title(),
		League:           item.LeagueName,
		KickoffAt:        item.KickoffAt,
		MinutesToKickoff: item.TimeUntilKickoff(now),
	}
}
