package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
)

func TestSchedulerState_ConcurrentCountersAreNotLost(t *testing.T) {
	t.Parallel()

	state := NewSchedulerState(settings.Defaults())

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers * 2)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			state.RecordPost(content.KindPromo)
		}()
		go func() {
			defer wg.Done()
			state.IncrementErrors()
		}()
	}
	wg.Wait()

	stats := state.Snapshot().Stats
	if stats.PromosPosted != workers || stats.Errors != workers {
		t.Fatalf("lost updates: %+v", stats)
	}
}

func TestSchedulerState_GapElapsed(t *testing.T) {
	t.Parallel()

	state := NewSchedulerState(settings.Defaults())
	if !state.GapElapsed(refNow, 30*time.Minute) {
		t.Fatalf("no previous post must satisfy the gap")
	}

	state.RecordPredictions(refNow)
	if state.GapElapsed(refNow.Add(29*time.Minute), 30*time.Minute) {
		t.Fatalf("gap must not be satisfied after 29 minutes")
	}
	if !state.GapElapsed(refNow.Add(30*time.Minute), 30*time.Minute) {
		t.Fatalf("gap must be satisfied after exactly 30 minutes")
	}
}

func TestSchedulerState_SettingsAreCopied(t *testing.T) {
	t.Parallel()

	state := NewSchedulerState(settings.Defaults())
	got := state.Settings()
	got.PromoCodes[settings.SlotMorning] = "LEAK"

	if state.Settings().PromoCode(settings.SlotMorning) == "LEAK" {
		t.Fatalf("settings snapshot must not alias state")
	}
}
