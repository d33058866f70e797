package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/delivery"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/platform/id"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
)

const PredictionsWakeupPath = "/v1/internal/jobs/predictions-check"

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type PosterConfig struct {
	Location               *time.Location
	ResultsHour            int
	FixedWindowMin         time.Duration
	FixedWindowMax         time.Duration
	CallTimeout            time.Duration
	AutoPauseAfterFailures int
	WakeupsEnabled         bool
}

// PosterService decides whether a post is due and performs it. Scheduled
// entry points return errors for the driver to count; NoData errors mean a
// silent skip.
type PosterService struct {
	state     *SchedulerState
	provider  match.FixtureProvider
	generator content.Generator
	sender    content.Sender
	settings  settings.Provider
	journal   delivery.Repository
	queue     JobQueue
	ids       id.Generator
	cfg       PosterConfig
	logger    *logging.Logger
	now       func() time.Time

	predictionMu sync.Mutex
	resultsMu    sync.Mutex
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewPosterService(
	state *SchedulerState,
	provider match.FixtureProvider,
	generator content.Generator,
	sender content.Sender,
	settingsProvider settings.Provider,
	journal delivery.Repository,
	queue JobQueue,
	ids id.Generator,
	cfg PosterConfig,
	logger *logging.Logger,
) *PosterService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator("dlv")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ResultsHour <= 0 || cfg.ResultsHour > 23 {
		cfg.ResultsHour = 20
	}
	if cfg.FixedWindowMin <= 0 {
		cfg.FixedWindowMin = time.Hour
	}
	if cfg.FixedWindowMax <= cfg.FixedWindowMin {
		cfg.FixedWindowMax = 4 * time.Hour
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 20 * time.Second
	}

	return &PosterService{
		state:     state,
		provider:  provider,
		generator: generator,
		sender:    sender,
		settings:  settingsProvider,
		journal:   journal,
		queue:     queue,
		ids:       ids,
		cfg:       cfg,
		logger:    logger.Named("poster"),
		now:       time.Now,
	}
}

func (s *PosterService) State() *SchedulerState {
	return s.state
}

func (s *PosterService) Location() *time.Location {
	return s.cfg.Location
}

func (s *PosterService) day(at time.Time) string {
	return at.In(s.cfg.Location).Format(time.DateOnly)
}

// ReloadSettings loads settings into state. A failed or invalid load falls
// back to settings.Defaults and is only logged.
func (s *PosterService) ReloadSettings(ctx context.Context) settings.Settings {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.ReloadSettings")
	defer span.End()

	loaded := settings.Defaults()
	if s.settings != nil {
		value, err := s.settings.Load(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "settings load failed, using defaults",
				"error", kindError(ErrConfigInvalid, "load settings", err),
			)
		} else {
			loaded = value
		}
	}

	s.state.SetSettings(loaded)
	s.logger.InfoContext(ctx, "settings applied",
		"auto_posting", loaded.AutoPosting.Enabled,
		"dynamic_timing", loaded.AutoPosting.DynamicTiming,
		"hours_before_match", loaded.AutoPosting.HoursBeforeMatch,
		"min_gap_minutes", loaded.AutoPosting.MinGapBetweenPosts,
	)
	return loaded
}

// RefreshFixtures replaces the match set. On provider failure the previous
// set is kept.
func (s *PosterService) RefreshFixtures(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.RefreshFixtures")
	defer span.End()

	matches, err := s.fetchUpcoming(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	s.state.ReplaceMatches(matches, now)
	s.logger.InfoContext(ctx, "fixtures refreshed", "matches", len(matches))

	s.scheduleWakeups(ctx, matches, now)
	return nil
}

// CheckPredictions is the dynamic-timing prediction path.
func (s *PosterService) CheckPredictions(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.CheckPredictions")
	defer span.End()

	current := s.state.Settings()
	if !current.AutoPosting.Enabled || !current.AutoPosting.DynamicTiming {
		return nil
	}

	s.predictionMu.Lock()
	defer s.predictionMu.Unlock()

	matches := s.state.TodayMatches()
	if len(matches) == 0 {
		return ErrNoUpcomingMatches
	}

	now := s.now()
	if !s.state.GapElapsed(now, current.MinGap()) {
		s.logger.DebugContext(ctx, "prediction skipped, gap not elapsed")
		return nil
	}

	snapshot := ComputeTimings(matches, now, current.Window())
	if !snapshot.ShouldPostPredictions {
		return nil
	}

	due := postable(MatchesInWindow(snapshot.AllMatches, now, 0, current.Window()), now)
	if len(due) == 0 {
		return nil
	}

	_, err := s.postPredictions(ctx, current, due, delivery.TriggerScheduled)
	return err
}

// CheckFixedPredictions is the fixed-grid prediction path. It fetches
// today's matches and keeps those inside the static kickoff window.
func (s *PosterService) CheckFixedPredictions(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.CheckFixedPredictions")
	defer span.End()

	current := s.state.Settings()
	if !current.AutoPosting.Enabled || current.AutoPosting.DynamicTiming {
		return nil
	}

	s.predictionMu.Lock()
	defer s.predictionMu.Unlock()

	if !s.state.GapElapsed(s.now(), current.MinGap()) {
		return nil
	}

	matches, err := s.fetchToday(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	due := postable(MatchesInWindow(matches, now, s.cfg.FixedWindowMin, s.cfg.FixedWindowMax), now)
	if len(due) == 0 {
		return ErrNoUpcomingMatches
	}

	_, err = s.postPredictions(ctx, current, due, delivery.TriggerScheduled)
	return err
}

// PredictNow posts every upcoming match regardless of window and gap.
func (s *PosterService) PredictNow(ctx context.Context) (content.Receipt, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.PredictNow")
	defer span.End()

	s.predictionMu.Lock()
	defer s.predictionMu.Unlock()

	matches, err := s.fetchUpcoming(ctx)
	if err != nil {
		return content.Receipt{}, err
	}
	now := s.now()
	s.state.ReplaceMatches(matches, now)

	due := make([]match.Match, 0, len(matches))
	for _, item := range sortByKickoff(matches) {
		if !match.IsCancelledLikeStatus(item.Status) {
			due = append(due, item)
		}
	}
	if len(due) == 0 {
		s.recordSkip(ctx, content.KindPredictions, ErrNoUpcomingMatches)
		return content.Receipt{}, ErrNoUpcomingMatches
	}

	return s.postPredictions(ctx, s.state.Settings(), due, delivery.TriggerManual)
}

// CheckResults posts yesterday's results once per local day, at or after
// the configured hour. Gates run before any provider call.
func (s *PosterService) CheckResults(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.CheckResults")
	defer span.End()

	if !s.state.Settings().AutoPosting.Enabled {
		return nil
	}

	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()

	local := s.now().In(s.cfg.Location)
	day := local.Format(time.DateOnly)
	if s.state.ResultsPostedOn(day) {
		return nil
	}
	if local.Hour() < s.cfg.ResultsHour {
		return nil
	}

	_, err := s.postResults(ctx, day, delivery.TriggerScheduled)
	return err
}

// ResultsNow posts yesterday's results without the hour and once-per-day
// gates. It still stamps the day so the scheduled path will not repeat it.
func (s *PosterService) ResultsNow(ctx context.Context) (content.Receipt, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.ResultsNow")
	defer span.End()

	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()

	return s.postResults(ctx, s.day(s.now()), delivery.TriggerManual)
}

// PostPromo is the scheduled promo path for slot. Only the running flag
// gates it; auto-posting covers predictions, results and hype.
func (s *PosterService) PostPromo(ctx context.Context, slot settings.Slot) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.PostPromo")
	defer span.End()

	_, err := s.postPromo(ctx, s.state.Settings(), slot, delivery.TriggerScheduled)
	return err
}

func (s *PosterService) PromoNow(ctx context.Context, slot settings.Slot) (content.Receipt, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.PromoNow")
	defer span.End()

	return s.postPromo(ctx, s.state.Settings(), slot, delivery.TriggerManual)
}

// PostHype is the optional scheduled hype path.
func (s *PosterService) PostHype(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.PostHype")
	defer span.End()

	if !s.state.Settings().AutoPosting.Enabled {
		return nil
	}

	_, err := s.postHype(ctx, delivery.TriggerScheduled)
	return err
}

func (s *PosterService) HypeNow(ctx context.Context) (content.Receipt, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.HypeNow")
	defer span.End()

	return s.postHype(ctx, delivery.TriggerManual)
}

func (s *PosterService) BonusNow(ctx context.Context, text string) (content.Receipt, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PosterService.BonusNow")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return content.Receipt{}, fmt.Errorf("%w: bonus text is required", ErrInvalidInput)
	}

	post, err := s.generate(ctx, "generate bonus", func(callCtx context.Context) (content.Post, error) {
		return s.generator.GenerateBonus(callCtx, text)
	})
	if err != nil {
		return content.Receipt{}, err
	}

	receipt, err := s.deliver(ctx, content.KindBonus, post, delivery.TriggerManual, map[string]any{"text": text})
	if err != nil {
		return content.Receipt{}, err
	}
	s.state.RecordPost(content.KindBonus)
	return receipt, nil
}

// ResetDailyStats snapshots and zeroes the counters.
func (s *PosterService) ResetDailyStats(ctx context.Context) error {
	now := s.now()
	// The reset fires at local midnight, so the closing day is the previous one.
	closing := s.day(now.Add(-time.Minute))
	report := s.state.ResetDaily(closing, now)

	s.logger.InfoContext(ctx, "daily report",
		"date", report.Date,
		"predictions", report.Stats.PredictionsPosted,
		"results", report.Stats.ResultsPosted,
		"promos", report.Stats.PromosPosted,
		"hype", report.Stats.HypePosted,
		"bonus", report.Stats.BonusPosted,
		"errors", report.Stats.Errors,
	)
	return nil
}

// Timings computes the snapshot over a fresh upcoming fetch.
func (s *PosterService) Timings(ctx context.Context) (match.TimingSnapshot, error) {
	matches, err := s.fetchUpcoming(ctx)
	if err != nil {
		return match.TimingSnapshot{}, err
	}
	return ComputeTimings(matches, s.now(), s.state.Settings().Window()), nil
}

// HandleTaskFailure is the error boundary for scheduled runs.
func (s *PosterService) HandleTaskFailure(ctx context.Context, task string, err error) {
	if err == nil {
		return
	}
	if IsNoData(err) {
		s.logger.DebugContext(ctx, "scheduled task skipped, no data", "task", task)
		return
	}

	s.state.IncrementErrors()
	s.logger.ErrorContext(ctx, "scheduled task failed",
		"task", task,
		"kind", ErrorKind(err),
		"error", err,
	)
}

// postPredictions sends matches as one or more posts. Each post carries the
// fixtures the generator actually rendered; the rest go out in the next one.
// The receipt is the first message's. If a later part fails the error is
// returned, and the earlier parts stay delivered and recorded.
func (s *PosterService) postPredictions(ctx context.Context, current settings.Settings, matches []match.Match, trigger delivery.Trigger) (content.Receipt, error) {
	slot := settings.SlotAt(s.now().In(s.cfg.Location).Hour())
	promoCode := current.PromoCode(slot)

	var first content.Receipt
	remaining := matches
	for part := 1; len(remaining) > 0; part++ {
		batch := remaining
		post, err := s.generate(ctx, "generate predictions", func(callCtx context.Context) (content.Post, error) {
			return s.generator.GeneratePredictions(callCtx, batch, promoCode)
		})
		if err != nil {
			return content.Receipt{}, err
		}

		rendered, rest := splitRendered(batch, post.MatchIDs)
		if len(rendered) == 0 {
			return content.Receipt{}, kindError(ErrGenerationFailed, "generate predictions", fmt.Errorf("no fixture rendered out of %d", len(batch)))
		}

		ids := make([]string, 0, len(rendered))
		for _, item := range rendered {
			ids = append(ids, item.ID)
		}
		receipt, err := s.deliver(ctx, content.KindPredictions, post, trigger, map[string]any{
			"match_ids":  ids,
			"promo_code": promoCode,
			"slot":       string(slot),
			"part":       part,
		})
		if err != nil {
			return content.Receipt{}, err
		}
		if part == 1 {
			first = receipt
		}

		s.state.RecordPredictions(s.now())
		remaining = rest
	}
	return first, nil
}

// splitRendered partitions batch by the IDs a post reports. A nil ids slice
// means every fixture was rendered.
func splitRendered(batch []match.Match, ids []string) (rendered, rest []match.Match) {
	if ids == nil {
		return batch, nil
	}
	seen := make(map[string]struct{}, len(ids))
	for _, matchID := range ids {
		seen[matchID] = struct{}{}
	}
	for _, item := range batch {
		if _, ok := seen[item.ID]; ok {
			rendered = append(rendered, item)
			continue
		}
		rest = append(rest, item)
	}
	return rendered, rest
}

func (s *PosterService) postResults(ctx context.Context, day string, trigger delivery.Trigger) (content.Receipt, error) {
	results, err := s.fetchResults(ctx)
	if err != nil {
		return content.Receipt{}, err
	}
	if len(results) == 0 {
		if trigger == delivery.TriggerManual {
			s.recordSkip(ctx, content.KindResults, ErrNoResultsAvailable)
		}
		return content.Receipt{}, ErrNoResultsAvailable
	}

	post, err := s.generate(ctx, "generate results", func(callCtx context.Context) (content.Post, error) {
		return s.generator.GenerateResults(callCtx, results)
	})
	if err != nil {
		return content.Receipt{}, err
	}

	receipt, err := s.deliver(ctx, content.KindResults, post, trigger, map[string]any{"results": len(results), "day": day})
	if err != nil {
		return content.Receipt{}, err
	}

	s.state.MarkResultsPosted(day)
	return receipt, nil
}

func (s *PosterService) postPromo(ctx context.Context, current settings.Settings, slot settings.Slot, trigger delivery.Trigger) (content.Receipt, error) {
	code := current.PromoCode(slot)
	offer := current.BonusOffer(slot)
	if code == "" && offer == "" {
		err := fmt.Errorf("%w: no promo configured for slot %s", ErrNoDataAvailable, slot)
		if trigger == delivery.TriggerManual {
			s.recordSkip(ctx, content.KindPromo, err)
		}
		return content.Receipt{}, err
	}

	post, err := s.generate(ctx, "generate promo", func(callCtx context.Context) (content.Post, error) {
		return s.generator.GeneratePromo(callCtx, code, offer)
	})
	if err != nil {
		return content.Receipt{}, err
	}

	receipt, err := s.deliver(ctx, content.KindPromo, post, trigger, map[string]any{"slot": string(slot), "promo_code": code})
	if err != nil {
		return content.Receipt{}, err
	}
	s.state.RecordPost(content.KindPromo)
	return receipt, nil
}

func (s *PosterService) postHype(ctx context.Context, trigger delivery.Trigger) (content.Receipt, error) {
	matches, err := s.fetchToday(ctx)
	if err != nil {
		return content.Receipt{}, err
	}

	now := s.now()
	upcoming := make([]match.Match, 0, len(matches))
	for _, item := range sortByKickoff(matches) {
		if item.KickoffAt.Before(now) || match.IsCancelledLikeStatus(item.Status) {
			continue
		}
		upcoming = append(upcoming, item)
	}
	if len(upcoming) == 0 {
		if trigger == delivery.TriggerManual {
			s.recordSkip(ctx, content.KindHype, ErrNoUpcomingMatches)
		}
		return content.Receipt{}, ErrNoUpcomingMatches
	}

	post, err := s.generate(ctx, "generate hype", func(callCtx context.Context) (content.Post, error) {
		return s.generator.GenerateHype(callCtx, upcoming)
	})
	if err != nil {
		return content.Receipt{}, err
	}

	receipt, err := s.deliver(ctx, content.KindHype, post, trigger, map[string]any{"matches": len(upcoming)})
	if err != nil {
		return content.Receipt{}, err
	}
	s.state.RecordPost(content.KindHype)
	return receipt, nil
}

// postable drops started and cancelled matches.
func postable(matches []match.Match, now time.Time) []match.Match {
	out := make([]match.Match, 0, len(matches))
	for _, item := range matches {
		if item.KickoffAt.Before(now) || match.IsCancelledLikeStatus(item.Status) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (s *PosterService) fetchUpcoming(ctx context.Context) ([]match.Match, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	matches, err := s.provider.GetUpcomingMatches(callCtx)
	if err != nil {
		return nil, kindError(ErrProviderUnavailable, "get upcoming matches", err)
	}
	return matches, nil
}

func (s *PosterService) fetchToday(ctx context.Context) ([]match.Match, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	matches, err := s.provider.GetTodayMatches(callCtx)
	if err != nil {
		return nil, kindError(ErrProviderUnavailable, "get today matches", err)
	}
	return matches, nil
}

func (s *PosterService) fetchResults(ctx context.Context) ([]match.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	results, err := s.provider.GetYesterdayResults(callCtx)
	if err != nil {
		return nil, kindError(ErrProviderUnavailable, "get yesterday results", err)
	}
	return results, nil
}

func (s *PosterService) generate(ctx context.Context, op string, fn func(context.Context) (content.Post, error)) (content.Post, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	post, err := fn(callCtx)
	if err != nil {
		return content.Post{}, kindError(ErrGenerationFailed, op, err)
	}
	if err := post.Validate(); err != nil {
		return content.Post{}, kindError(ErrGenerationFailed, op, err)
	}
	return post, nil
}

// deliver sends post and journals the attempt. Consecutive failures past the
// configured threshold pause the scheduler.
func (s *PosterService) deliver(ctx context.Context, kind content.Kind, post content.Post, trigger delivery.Trigger, payload map[string]any) (content.Receipt, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	var (
		receipt content.Receipt
		err     error
	)
	if !post.Image.Empty() {
		receipt, err = s.sender.SendPhoto(callCtx, *post.Image, post.Text, post.Keyboard)
	} else {
		receipt, err = s.sender.SendText(callCtx, post.Text, post.Keyboard)
	}

	if err != nil {
		s.record(ctx, delivery.Event{
			Kind:         kind.String(),
			Trigger:      trigger,
			Status:       delivery.StatusFailed,
			Payload:      payload,
			ErrorMessage: err.Error(),
		})

		failures := s.state.RecordDeliveryFailure()
		if s.cfg.AutoPauseAfterFailures > 0 && failures >= s.cfg.AutoPauseAfterFailures && s.state.Stop() {
			s.logger.ErrorContext(ctx, "automation paused after consecutive delivery failures",
				"failures", failures,
				"kind", kind.String(),
			)
		}
		return content.Receipt{}, kindError(ErrDeliveryFailed, "send "+kind.String(), err)
	}

	s.state.ResetDeliveryFailures()
	receipt.Success = true
	receipt.Kind = kind
	if receipt.PostedAt.IsZero() {
		receipt.PostedAt = s.now().UTC()
	}

	s.record(ctx, delivery.Event{
		Kind:       kind.String(),
		Trigger:    trigger,
		Status:     delivery.StatusSent,
		MessageID:  receipt.MessageID,
		Payload:    payload,
		OccurredAt: receipt.PostedAt,
	})
	s.logger.InfoContext(ctx, "post delivered",
		"kind", kind.String(),
		"trigger", string(trigger),
		"message_id", receipt.MessageID,
	)
	return receipt, nil
}

func (s *PosterService) recordSkip(ctx context.Context, kind content.Kind, reason error) {
	s.record(ctx, delivery.Event{
		Kind:         kind.String(),
		Trigger:      delivery.TriggerManual,
		Status:       delivery.StatusSkipped,
		ErrorMessage: reason.Error(),
	})
}

func (s *PosterService) record(ctx context.Context, event delivery.Event) {
	if s.journal == nil {
		return
	}

	deliveryID, err := s.ids.NewID()
	if err != nil {
		s.logger.WarnContext(ctx, "generate delivery id failed", "error", err)
		return
	}
	event.DeliveryID = deliveryID
	event.TraceID, event.SpanID = traceMetaFromContext(ctx)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}

	if err := s.journal.Record(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record delivery event failed",
			"delivery_id", event.DeliveryID,
			"status", string(event.Status),
			"error", err,
		)
	}
}

// scheduleWakeups asks the job queue to hit the prediction check as soon as
// each match enters the posting window.
func (s *PosterService) scheduleWakeups(ctx context.Context, matches []match.Match, now time.Time) {
	if !s.cfg.WakeupsEnabled {
		return
	}
	current := s.state.Settings()
	if !current.AutoPosting.Enabled || !current.AutoPosting.DynamicTiming {
		return
	}

	queued := 0
	for _, item := range matches {
		if match.IsCancelledLikeStatus(item.Status) {
			continue
		}
		wakeAt := item.KickoffAt.Add(-current.Window())
		delay := wakeAt.Sub(now)
		if delay <= 0 {
			continue
		}

		dedupID := dedupKey("predictions-check", item.ID, wakeAt, time.Minute)
		payload := map[string]any{
			"match_id":    item.ID,
			"dispatch_id": dedupID,
		}
		if err := s.queue.Enqueue(ctx, PredictionsWakeupPath, payload, delay, dedupID); err != nil {
			s.logger.WarnContext(ctx, "enqueue kickoff wakeup failed",
				"match_id", item.ID,
				"error", err,
			)
			continue
		}
		queued++
	}

	if queued > 0 {
		s.logger.InfoContext(ctx, "kickoff wakeups queued", "count", queued)
	}
}

func dedupKey(prefix, key string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	key = sanitizeDedupSegment(key)
	return prefix + "-" + key + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}
