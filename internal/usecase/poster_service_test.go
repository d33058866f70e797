package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	contentgen "github.com/riskibarqy/matchday-tipster/internal/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/delivery"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	contentmock "github.com/riskibarqy/matchday-tipster/internal/mocks/domain/content"
	deliverymock "github.com/riskibarqy/matchday-tipster/internal/mocks/domain/delivery"
	matchmock "github.com/riskibarqy/matchday-tipster/internal/mocks/domain/match"
	settingsmock "github.com/riskibarqy/matchday-tipster/internal/mocks/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type posterFixture struct {
	provider  *matchmock.FixtureProvider
	generator *contentmock.Generator
	sender    *contentmock.Sender
	settings  *settingsmock.Provider
	state     *SchedulerState
	svc       *PosterService
	clock     time.Time
}

func newPosterFixture(t *testing.T, cfg PosterConfig, journal delivery.Repository, queue JobQueue) *posterFixture {
	t.Helper()

	f := &posterFixture{
		provider:  matchmock.NewFixtureProvider(t),
		generator: contentmock.NewGenerator(t),
		sender:    contentmock.NewSender(t),
		settings:  settingsmock.NewProvider(t),
		state:     NewSchedulerState(settings.Defaults()),
		clock:     refNow,
	}
	f.svc = NewPosterService(f.state, f.provider, f.generator, f.sender, f.settings, journal, queue, nil, cfg, logging.NewNop())
	f.svc.now = func() time.Time { return f.clock }
	f.state.TryStart()
	return f
}

func (f *posterFixture) expectPredictionPost(messageID int) {
	f.generator.
		On("GeneratePredictions", mock.Anything, mock.Anything, mock.AnythingOfType("string")).
		Return(content.Post{Text: "predictions"}, nil).
		Once()
	f.sender.
		On("SendText", mock.Anything, "predictions", mock.Anything).
		Return(content.Receipt{MessageID: messageID}, nil).
		Once()
}

func TestPosterService_CheckPredictions_RespectsMinimumGap(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	f.state.ReplaceMatches([]match.Match{{ID: "m1", HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffAt: refNow.Add(time.Hour)}}, refNow)
	f.state.RecordPredictions(refNow.Add(-10 * time.Minute))

	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("check predictions inside gap: %v", err)
	}
	if got := f.state.Snapshot().Stats.PredictionsPosted; got != 1 {
		t.Fatalf("expected no new post inside gap, got counter=%d", got)
	}

	f.expectPredictionPost(101)
	f.clock = refNow.Add(21 * time.Minute)
	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("check predictions after gap: %v", err)
	}

	snap := f.state.Snapshot()
	if snap.Stats.PredictionsPosted != 2 {
		t.Fatalf("expected post after gap elapsed, got counter=%d", snap.Stats.PredictionsPosted)
	}
	if !snap.LastPredictionPost.Equal(f.clock) {
		t.Fatalf("expected last prediction stamp %s, got %s", f.clock, snap.LastPredictionPost)
	}
}

func TestPosterService_CheckPredictions_RepostsInWindowFixtureAfterGap(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	f.state.ReplaceMatches([]match.Match{{ID: "m1", HomeTeam: "Inter", AwayTeam: "Milan", KickoffAt: refNow.Add(100 * time.Minute)}}, refNow)

	f.expectPredictionPost(7)
	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("first check: %v", err)
	}

	f.clock = refNow.Add(15 * time.Minute)
	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("check inside gap: %v", err)
	}

	f.expectPredictionPost(8)
	f.clock = refNow.Add(31 * time.Minute)
	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("check after gap: %v", err)
	}

	if got := f.state.Snapshot().Stats.PredictionsPosted; got != 2 {
		t.Fatalf("expected fixture posted again once the gap passed, got %d posts", got)
	}
}

func TestPosterService_PredictNow_DoesNotSuppressLaterScheduledPost(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	late := match.Match{ID: "late", HomeTeam: "Roma", AwayTeam: "Lazio", KickoffAt: refNow.Add(5 * time.Hour)}
	f.provider.On("GetUpcomingMatches", mock.Anything).Return([]match.Match{late}, nil).Once()

	f.expectPredictionPost(20)
	if _, err := f.svc.PredictNow(context.Background()); err != nil {
		t.Fatalf("predict now: %v", err)
	}

	f.expectPredictionPost(21)
	f.clock = refNow.Add(210 * time.Minute)
	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("scheduled check: %v", err)
	}

	if got := f.state.Snapshot().Stats.PredictionsPosted; got != 2 {
		t.Fatalf("expected manual and scheduled posts, got %d", got)
	}
}

func TestPosterService_CheckPredictions_SplitsLongCardAcrossPosts(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	f.svc.generator = contentgen.NewTemplateGenerator(f.state, contentgen.Config{})

	matches := make([]match.Match, 0, 12)
	for i := 1; i <= 12; i++ {
		matches = append(matches, match.Match{
			ID:        "m" + strconv.Itoa(i),
			HomeTeam:  "Home" + strconv.Itoa(i),
			AwayTeam:  "Away" + strconv.Itoa(i),
			KickoffAt: refNow.Add(time.Duration(30+i) * time.Minute),
		})
	}
	f.state.ReplaceMatches(matches, refNow)

	var sent []string
	f.sender.
		On("SendText", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) { sent = append(sent, args.String(1)) }).
		Return(content.Receipt{MessageID: 1}, nil).
		Twice()

	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("check predictions: %v", err)
	}

	if len(sent) != 2 {
		t.Fatalf("expected two messages, got %d", len(sent))
	}
	for _, want := range []string{"Home11 vs Away11", "Home12 vs Away12"} {
		if !strings.Contains(sent[1], want) {
			t.Fatalf("expected %q in second message:\n%s", want, sent[1])
		}
	}
	if strings.Contains(sent[0], "Home11 vs Away11") {
		t.Fatalf("first message must stop at ten fixtures")
	}
	if got := f.state.Snapshot().Stats.PredictionsPosted; got != 2 {
		t.Fatalf("expected one counted post per message, got %d", got)
	}
}

func TestSplitRendered(t *testing.T) {
	t.Parallel()

	batch := []match.Match{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	rendered, rest := splitRendered(batch, nil)
	if len(rendered) != 3 || len(rest) != 0 {
		t.Fatalf("nil ids must mean everything rendered, got %d/%d", len(rendered), len(rest))
	}

	rendered, rest = splitRendered(batch, []string{"a", "c"})
	if len(rendered) != 2 || len(rest) != 1 || rest[0].ID != "b" {
		t.Fatalf("unexpected split %+v / %+v", rendered, rest)
	}

	rendered, rest = splitRendered(batch, []string{})
	if len(rendered) != 0 || len(rest) != 3 {
		t.Fatalf("empty ids must render nothing, got %d/%d", len(rendered), len(rest))
	}
}

func TestPosterService_CheckPredictions_PromoCodeFollowsSlot(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	f.state.ReplaceMatches([]match.Match{{ID: "m1", KickoffAt: refNow.Add(time.Hour)}}, refNow)

	f.generator.
		On("GeneratePredictions", mock.Anything, mock.MatchedBy(func(items []match.Match) bool {
			return len(items) == 1 && items[0].ID == "m1"
		}), settings.Defaults().PromoCode(settings.SlotEvening)).
		Return(content.Post{Text: "tips"}, nil).
		Once()
	f.sender.On("SendText", mock.Anything, "tips", mock.Anything).Return(content.Receipt{MessageID: 1}, nil).Once()

	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("check predictions: %v", err)
	}
}

func TestPosterService_CheckPredictions_EmptyMatchesIsSilentSkip(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)

	err := f.svc.CheckPredictions(context.Background())
	if !IsNoData(err) {
		t.Fatalf("expected no data error, got %v", err)
	}

	f.svc.HandleTaskFailure(context.Background(), "predictions-check", err)
	if got := f.state.Snapshot().Stats; got != (DailyStats{}) {
		t.Fatalf("expected untouched stats, got %+v", got)
	}
}

func TestPosterService_CheckPredictions_SkipsWhenModeInactive(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	current := settings.Defaults()
	current.AutoPosting.DynamicTiming = false
	f.state.SetSettings(current)
	f.state.ReplaceMatches([]match.Match{{ID: "m1", KickoffAt: refNow.Add(time.Hour)}}, refNow)

	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("dynamic check in fixed mode must no-op, got %v", err)
	}

	current.AutoPosting.DynamicTiming = true
	current.AutoPosting.Enabled = false
	f.state.SetSettings(current)
	if err := f.svc.CheckPredictions(context.Background()); err != nil {
		t.Fatalf("disabled auto posting must no-op, got %v", err)
	}
}

func TestPosterService_CheckFixedPredictions_FiltersStaticWindow(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	current := settings.Defaults()
	current.AutoPosting.DynamicTiming = false
	f.state.SetSettings(current)

	f.provider.On("GetTodayMatches", mock.Anything).Return([]match.Match{
		{ID: "too-soon", KickoffAt: refNow.Add(30 * time.Minute)},
		{ID: "in-window", KickoffAt: refNow.Add(2 * time.Hour)},
		{ID: "too-late", KickoffAt: refNow.Add(5 * time.Hour)},
	}, nil).Once()
	f.generator.
		On("GeneratePredictions", mock.Anything, mock.MatchedBy(func(items []match.Match) bool {
			return len(items) == 1 && items[0].ID == "in-window"
		}), mock.Anything).
		Return(content.Post{Text: "fixed"}, nil).
		Once()
	f.sender.On("SendText", mock.Anything, "fixed", mock.Anything).Return(content.Receipt{MessageID: 9}, nil).Once()

	if err := f.svc.CheckFixedPredictions(context.Background()); err != nil {
		t.Fatalf("check fixed predictions: %v", err)
	}
	if got := f.state.Snapshot().Stats.PredictionsPosted; got != 1 {
		t.Fatalf("expected one fixed-mode post, got %d", got)
	}
}

func TestPosterService_CheckResults_OncePerDayAfterThreshold(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{ResultsHour: 20}, nil, nil)

	if err := f.svc.CheckResults(context.Background()); err != nil {
		t.Fatalf("results before threshold: %v", err)
	}

	results := []match.Result{{Match: match.Match{ID: "r1", HomeTeam: "Arsenal", AwayTeam: "Chelsea"}, HomeScore: 2, AwayScore: 1}}
	f.provider.On("GetYesterdayResults", mock.Anything).Return(results, nil).Once()
	f.generator.On("GenerateResults", mock.Anything, results).Return(content.Post{Text: "results"}, nil).Once()
	f.sender.On("SendText", mock.Anything, "results", mock.Anything).Return(content.Receipt{MessageID: 5}, nil).Once()

	f.clock = time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	if err := f.svc.CheckResults(context.Background()); err != nil {
		t.Fatalf("first results check: %v", err)
	}
	f.clock = f.clock.Add(time.Hour)
	if err := f.svc.CheckResults(context.Background()); err != nil {
		t.Fatalf("second results check: %v", err)
	}
	f.clock = f.clock.Add(time.Hour)
	if err := f.svc.CheckResults(context.Background()); err != nil {
		t.Fatalf("third results check: %v", err)
	}

	snap := f.state.Snapshot()
	if snap.Stats.ResultsPosted != 1 {
		t.Fatalf("expected results posted once, got %d", snap.Stats.ResultsPosted)
	}
	if snap.ResultsPostedOn != "2026-10-18" {
		t.Fatalf("unexpected results stamp %q", snap.ResultsPostedOn)
	}
}

func TestPosterService_CheckResults_UsesConfiguredTimezone(t *testing.T) {
	t.Parallel()

	jakarta := time.FixedZone("WIB", 7*60*60)
	f := newPosterFixture(t, PosterConfig{Location: jakarta, ResultsHour: 20}, nil, nil)

	// 12:30 UTC is 19:30 in Jakarta, before the threshold.
	f.clock = time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)
	if err := f.svc.CheckResults(context.Background()); err != nil {
		t.Fatalf("results check: %v", err)
	}

	f.provider.On("GetYesterdayResults", mock.Anything).Return([]match.Result{}, nil).Once()
	f.clock = time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC)
	if err := f.svc.CheckResults(context.Background()); !errors.Is(err, ErrNoResultsAvailable) {
		t.Fatalf("expected no results error after local threshold, got %v", err)
	}
}

func TestPosterService_RefreshFixtures_ProviderFailureKeepsMatches(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	previous := []match.Match{{ID: "kept", KickoffAt: refNow.Add(time.Hour)}}
	f.state.ReplaceMatches(previous, refNow.Add(-time.Hour))

	f.provider.On("GetUpcomingMatches", mock.Anything).Return(nil, errors.New("502 bad gateway")).Once()

	err := f.svc.RefreshFixtures(context.Background())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	f.svc.HandleTaskFailure(context.Background(), "fixtures-refresh", err)

	snap := f.state.Snapshot()
	if len(snap.TodayMatches) != 1 || snap.TodayMatches[0].ID != "kept" {
		t.Fatalf("expected previous matches to be kept, got %+v", snap.TodayMatches)
	}
	if snap.Stats.Errors != 1 {
		t.Fatalf("expected errors=1, got %d", snap.Stats.Errors)
	}

	f.generator.On("GeneratePromo", mock.Anything, "PRIMETIME", mock.Anything).Return(content.Post{Text: "promo"}, nil).Once()
	f.sender.On("SendText", mock.Anything, "promo", mock.Anything).Return(content.Receipt{MessageID: 3}, nil).Once()
	if err := f.svc.PostPromo(context.Background(), settings.SlotEvening); err != nil {
		t.Fatalf("promo after failed refresh: %v", err)
	}
	if got := f.state.Snapshot().Stats.PromosPosted; got != 1 {
		t.Fatalf("expected promo counter 1, got %d", got)
	}
}

func TestPosterService_PostPromo_IgnoresAutoPostingToggle(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	current := settings.Defaults()
	current.AutoPosting.Enabled = false
	f.state.SetSettings(current)

	f.generator.On("GeneratePromo", mock.Anything, current.PromoCode(settings.SlotMorning), mock.Anything).Return(content.Post{Text: "promo"}, nil).Once()
	f.sender.On("SendText", mock.Anything, "promo", mock.Anything).Return(content.Receipt{MessageID: 4}, nil).Once()

	if err := f.svc.PostPromo(context.Background(), settings.SlotMorning); err != nil {
		t.Fatalf("scheduled promo: %v", err)
	}
	if got := f.state.Snapshot().Stats.PromosPosted; got != 1 {
		t.Fatalf("expected promo posted with auto posting off, got %d", got)
	}
}

func TestPosterService_DeliveryFailures_AutoPause(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{AutoPauseAfterFailures: 2}, nil, nil)
	f.generator.On("GeneratePromo", mock.Anything, mock.Anything, mock.Anything).Return(content.Post{Text: "promo"}, nil).Twice()
	f.sender.On("SendText", mock.Anything, "promo", mock.Anything).Return(content.Receipt{}, errors.New("chat not found")).Twice()

	for i := 0; i < 2; i++ {
		err := f.svc.PostPromo(context.Background(), settings.SlotMorning)
		if !errors.Is(err, ErrDeliveryFailed) {
			t.Fatalf("attempt %d: expected delivery failure, got %v", i, err)
		}
	}

	snap := f.state.Snapshot()
	if snap.IsRunning {
		t.Fatalf("expected automation to pause after consecutive failures")
	}
	if snap.ConsecutiveDeliveryFailures != 2 {
		t.Fatalf("expected 2 consecutive failures, got %d", snap.ConsecutiveDeliveryFailures)
	}
}

func TestPosterService_Deliver_PhotoAndJournal(t *testing.T) {
	t.Parallel()

	journal := deliverymock.NewRepository(t)
	f := newPosterFixture(t, PosterConfig{}, journal, nil)

	image := &content.Image{Name: "hype.png", Data: []byte{0x89, 0x50}}
	f.provider.On("GetTodayMatches", mock.Anything).Return([]match.Match{{ID: "m1", KickoffAt: refNow.Add(3 * time.Hour)}}, nil).Once()
	f.generator.On("GenerateHype", mock.Anything, mock.Anything).Return(content.Post{Text: "caption", Image: image}, nil).Once()
	f.sender.On("SendPhoto", mock.Anything, *image, "caption", mock.Anything).Return(content.Receipt{MessageID: 77}, nil).Once()
	journal.
		On("Record", mock.Anything, mock.MatchedBy(func(event delivery.Event) bool {
			return event.Kind == "hype" &&
				event.Status == delivery.StatusSent &&
				event.Trigger == delivery.TriggerManual &&
				event.MessageID == 77 &&
				event.DeliveryID != ""
		})).
		Return(nil).
		Once()

	receipt, err := f.svc.HypeNow(context.Background())
	if err != nil {
		t.Fatalf("hype now: %v", err)
	}
	if !receipt.Success || receipt.MessageID != 77 || receipt.Kind != content.KindHype {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestPosterService_GenerationFailure(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	f.generator.On("GenerateBonus", mock.Anything, "double odds").Return(content.Post{Text: "  "}, nil).Once()

	_, err := f.svc.BonusNow(context.Background(), "double odds")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected generation failure for empty text, got %v", err)
	}
	if !errors.Is(err, content.ErrEmptyPost) {
		t.Fatalf("expected empty post cause, got %v", err)
	}
}

func TestPosterService_ReloadSettings_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	custom := settings.Defaults()
	custom.AutoPosting.MinGapBetweenPosts = 90
	f.state.SetSettings(custom)

	f.settings.On("Load", mock.Anything).Return(settings.Settings{}, errors.New("unexpected end of JSON input")).Once()

	got := f.svc.ReloadSettings(context.Background())
	if got.AutoPosting.MinGapBetweenPosts != settings.DefaultMinGapBetweenPosts {
		t.Fatalf("expected defaults after failed load, got gap=%d", got.AutoPosting.MinGapBetweenPosts)
	}
	if f.state.Settings().MinGap() != 30*time.Minute {
		t.Fatalf("expected state to hold defaults")
	}
}

func TestPosterService_ResetDailyStats_KeepsPreviousDay(t *testing.T) {
	t.Parallel()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	f.state.RecordPost(content.KindPromo)
	f.state.IncrementErrors()

	f.clock = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if err := f.svc.ResetDailyStats(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	snap := f.state.Snapshot()
	if snap.Stats != (DailyStats{}) {
		t.Fatalf("expected zeroed stats, got %+v", snap.Stats)
	}
	if snap.PreviousDay == nil || snap.PreviousDay.Date != "2026-10-18" {
		t.Fatalf("expected previous day report for 2026-10-18, got %+v", snap.PreviousDay)
	}
	if snap.PreviousDay.Stats.PromosPosted != 1 || snap.PreviousDay.Stats.Errors != 1 {
		t.Fatalf("unexpected previous day stats %+v", snap.PreviousDay.Stats)
	}
}

type recordingQueue struct {
	mu    sync.Mutex
	calls []queuedCall
}

type queuedCall struct {
	path    string
	delay   time.Duration
	dedupID string
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, _ any, delay time.Duration, deduplicationID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, queuedCall{path: path, delay: delay, dedupID: deduplicationID})
	return nil
}

func TestPosterService_RefreshFixtures_QueuesKickoffWakeups(t *testing.T) {
	t.Parallel()

	queue := &recordingQueue{}
	f := newPosterFixture(t, PosterConfig{WakeupsEnabled: true}, nil, queue)

	f.provider.On("GetUpcomingMatches", mock.Anything).Return([]match.Match{
		{ID: "already-in-window", KickoffAt: refNow.Add(time.Hour)},
		{ID: "later", KickoffAt: refNow.Add(5 * time.Hour)},
		{ID: "off", KickoffAt: refNow.Add(6 * time.Hour), Status: match.StatusPostponed},
	}, nil).Once()

	if err := f.svc.RefreshFixtures(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if len(queue.calls) != 1 {
		t.Fatalf("expected one wakeup, got %+v", queue.calls)
	}
	call := queue.calls[0]
	if call.path != PredictionsWakeupPath {
		t.Fatalf("unexpected wakeup path %q", call.path)
	}
	if call.delay != 3*time.Hour {
		t.Fatalf("expected wakeup 2h before kickoff, got delay %s", call.delay)
	}
	if call.dedupID != "predictions-check-later-20261018T210000Z" {
		t.Fatalf("unexpected dedup id %q", call.dedupID)
	}
}
