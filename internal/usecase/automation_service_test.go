package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	runs []ScheduledRun
}

func (d fakeDriver) NextRuns() []ScheduledRun {
	return d.runs
}

func newAutomationFixture(t *testing.T) (*posterFixture, *AutomationService) {
	t.Helper()

	f := newPosterFixture(t, PosterConfig{}, nil, nil)
	f.state.Stop()
	driver := fakeDriver{runs: []ScheduledRun{{Task: "predictions-check", Spec: "*/30 * * * *", Next: refNow.Add(30 * time.Minute)}}}
	svc := NewAutomationService(f.svc, driver, nil, logging.NewNop())
	svc.now = func() time.Time { return f.clock }
	return f, svc
}

func TestAutomationService_StartTwiceIsNoop(t *testing.T) {
	t.Parallel()

	f, svc := newAutomationFixture(t)
	f.settings.On("Load", mock.Anything).Return(settings.Defaults(), nil).Once()
	f.provider.On("GetUpcomingMatches", mock.Anything).Return([]match.Match{{ID: "m1", KickoffAt: refNow.Add(time.Hour)}}, nil).Once()

	first, err := svc.Start(context.Background())
	require.NoError(t, err)
	require.True(t, first.Started)
	require.Equal(t, 1, first.Matches)

	second, err := svc.Start(context.Background())
	require.NoError(t, err)
	require.False(t, second.Started)
	require.True(t, second.AlreadyRunning)
	require.True(t, f.state.IsRunning())
}

func TestAutomationService_StopReportsPreviousState(t *testing.T) {
	t.Parallel()

	f, svc := newAutomationFixture(t)
	f.state.TryStart()

	result := svc.Stop(context.Background())
	require.True(t, result.WasRunning)
	require.False(t, f.state.IsRunning())

	again := svc.Stop(context.Background())
	require.False(t, again.WasRunning)
}

func TestAutomationService_RunPredictionsNow_NoMatches(t *testing.T) {
	t.Parallel()

	f, svc := newAutomationFixture(t)
	f.provider.On("GetUpcomingMatches", mock.Anything).Return([]match.Match{}, nil).Once()

	_, err := svc.RunPredictionsNow(context.Background())
	require.ErrorIs(t, err, ErrNoUpcomingMatches)
	require.ErrorIs(t, err, ErrNoDataAvailable)
	require.Equal(t, KindNoDataAvailable, ErrorKind(err))
	require.Equal(t, DailyStats{}, f.state.Snapshot().Stats)
}

func TestAutomationService_RunPredictionsNow_IgnoresGapAndWorksWhileStopped(t *testing.T) {
	t.Parallel()

	f, svc := newAutomationFixture(t)
	f.state.RecordPredictions(refNow.Add(-time.Minute))

	upcoming := []match.Match{{ID: "m9", KickoffAt: refNow.Add(10 * time.Hour)}}
	f.provider.On("GetUpcomingMatches", mock.Anything).Return(upcoming, nil).Once()
	f.expectPredictionPost(55)

	receipt, err := svc.RunPredictionsNow(context.Background())
	require.NoError(t, err)
	require.True(t, receipt.Success)
	require.Equal(t, 55, receipt.MessageID)
	require.Equal(t, content.KindPredictions, receipt.Kind)
	require.False(t, f.state.IsRunning())
	require.Equal(t, 2, f.state.Snapshot().Stats.PredictionsPosted)
}

func TestAutomationService_RunResultsNow_StampsDay(t *testing.T) {
	t.Parallel()

	f, svc := newAutomationFixture(t)
	results := []match.Result{{Match: match.Match{ID: "r1"}, HomeScore: 0, AwayScore: 0}}
	f.provider.On("GetYesterdayResults", mock.Anything).Return(results, nil).Once()
	f.generator.On("GenerateResults", mock.Anything, results).Return(content.Post{Text: "ft"}, nil).Once()
	f.sender.On("SendText", mock.Anything, "ft", mock.Anything).Return(content.Receipt{MessageID: 4}, nil).Once()

	_, err := svc.RunResultsNow(context.Background())
	require.NoError(t, err)

	f.state.TryStart()
	f.clock = time.Date(2026, 10, 18, 21, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.CheckResults(context.Background()))
	require.Equal(t, 1, f.state.Snapshot().Stats.ResultsPosted)
}

func TestAutomationService_ManualFailuresCountErrors(t *testing.T) {
	t.Parallel()

	f, svc := newAutomationFixture(t)
	f.generator.On("GeneratePromo", mock.Anything, mock.Anything, mock.Anything).Return(content.Post{}, errors.New("template missing")).Once()

	_, err := svc.RunPromoNow(context.Background(), settings.SlotAfternoon)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Equal(t, 1, f.state.Snapshot().Stats.Errors)

	_, err = svc.RunBonusNow(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, 1, f.state.Snapshot().Stats.Errors)
}

func TestAutomationService_Status(t *testing.T) {
	t.Parallel()

	f, svc := newAutomationFixture(t)
	f.state.ReplaceMatches([]match.Match{
		{ID: "later", HomeTeam: "Inter", AwayTeam: "Milan", KickoffAt: refNow.Add(5 * time.Hour)},
		{ID: "soon", HomeTeam: "Roma", AwayTeam: "Lazio", LeagueName: "Serie A", KickoffAt: refNow.Add(90 * time.Minute)},
	}, refNow)

	status := svc.Status(context.Background())
	require.False(t, status.IsRunning)
	require.Equal(t, "UTC", status.Timezone)
	require.Equal(t, "dynamic", status.Mode)
	require.Equal(t, 2, status.TodayMatches)
	require.True(t, status.ShouldPostPredictions)
	require.NotNil(t, status.NextMatch)
	require.Equal(t, "Roma vs Lazio", status.NextMatch.Title)
	require.InDelta(t, 90.0, status.NextMatch.MinutesToKickoff, 0.001)
	require.Len(t, status.NextScheduled, 1)
	require.Nil(t, status.LastPredictionPost)
}

func TestAutomationService_ReloadSettingsSwitchesMode(t *testing.T) {
	t.Parallel()

	f, svc := newAutomationFixture(t)
	fixed := settings.Defaults()
	fixed.AutoPosting.DynamicTiming = false
	f.settings.On("Load", mock.Anything).Return(fixed, nil).Once()

	got, err := svc.ReloadSettings(context.Background())
	require.NoError(t, err)
	require.False(t, got.AutoPosting.DynamicTiming)
	require.Equal(t, "fixed", svc.Status(context.Background()).Mode)
}
