package usecase

import (
	"sync"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
)

// DailyStats counts posts and failures since the last midnight reset.
type DailyStats struct {
	PredictionsPosted int `json:"predictionsPosted"`
	ResultsPosted     int `json:"resultsPosted"`
	PromosPosted      int `json:"promosPosted"`
	HypePosted        int `json:"hypePosted"`
	BonusPosted       int `json:"bonusPosted"`
	Errors            int `json:"errors"`
}

// DailyReport is the stats snapshot taken at a midnight reset.
type DailyReport struct {
	Date  string     `json:"date"`
	Stats DailyStats `json:"stats"`
}

// StateSnapshot is a consistent copy of SchedulerState.
type StateSnapshot struct {
	IsRunning                   bool
	Settings                    settings.Settings
	TodayMatches                []match.Match
	MatchesRefreshedAt          time.Time
	LastPredictionPost          time.Time
	ResultsPostedOn             string
	Stats                       DailyStats
	StatsSince                  time.Time
	PreviousDay                 *DailyReport
	ConsecutiveDeliveryFailures int
}

// SchedulerState is the single mutable record shared by the scheduled tasks
// and the manual gateway. All fields are guarded by mu.
type SchedulerState struct {
	mu sync.RWMutex

	running            bool
	settings           settings.Settings
	todayMatches       []match.Match
	matchesRefreshedAt time.Time
	lastPredictionPost time.Time
	resultsPostedOn    string
	stats              DailyStats
	statsSince         time.Time
	previousDay        *DailyReport
	deliveryFailures   int
}

func NewSchedulerState(initial settings.Settings) *SchedulerState {
	return &SchedulerState{
		settings:   initial.Clone(),
		statsSince: time.Now(),
	}
}

func (s *SchedulerState) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// TryStart flips running on and reports whether it was off before.
func (s *SchedulerState) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Stop flips running off and reports whether it was on before.
func (s *SchedulerState) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.running
	s.running = false
	return was
}

func (s *SchedulerState) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

func (s *SchedulerState) SetSettings(value settings.Settings) {
	s.mu.Lock()
	s.settings = value.Clone()
	s.mu.Unlock()
}

func (s *SchedulerState) TodayMatches() []match.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]match.Match, len(s.todayMatches))
	copy(out, s.todayMatches)
	return out
}

// ReplaceMatches swaps the whole match set.
func (s *SchedulerState) ReplaceMatches(matches []match.Match, at time.Time) {
	next := make([]match.Match, len(matches))
	copy(next, matches)

	s.mu.Lock()
	s.todayMatches = next
	s.matchesRefreshedAt = at
	s.mu.Unlock()
}

// GapElapsed reports whether a prediction may be posted at now.
func (s *SchedulerState) GapElapsed(now time.Time, gap time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastPredictionPost.IsZero() || gap <= 0 {
		return true
	}
	return now.Sub(s.lastPredictionPost) >= gap
}

// RecordPredictions stamps the gap clock. The gap is the only thing that
// holds a fixture back, so a match still inside the window is posted again
// once the gap has passed.
func (s *SchedulerState) RecordPredictions(at time.Time) {
	s.mu.Lock()
	s.lastPredictionPost = at
	s.stats.PredictionsPosted++
	s.mu.Unlock()
}

func (s *SchedulerState) ResultsPostedOn(day string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resultsPostedOn == day
}

func (s *SchedulerState) MarkResultsPosted(day string) {
	s.mu.Lock()
	s.resultsPostedOn = day
	s.stats.ResultsPosted++
	s.mu.Unlock()
}

// RecordPost counts a delivered post of kind. Predictions and results are
// counted by RecordPredictions and MarkResultsPosted.
func (s *SchedulerState) RecordPost(kind content.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case content.KindPromo:
		s.stats.PromosPosted++
	case content.KindHype:
		s.stats.HypePosted++
	case content.KindBonus:
		s.stats.BonusPosted++
	}
}

func (s *SchedulerState) IncrementErrors() {
	s.mu.Lock()
	s.stats.Errors++
	s.mu.Unlock()
}

// RecordDeliveryFailure returns the number of consecutive failed sends.
func (s *SchedulerState) RecordDeliveryFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveryFailures++
	return s.deliveryFailures
}

func (s *SchedulerState) ResetDeliveryFailures() {
	s.mu.Lock()
	s.deliveryFailures = 0
	s.mu.Unlock()
}

// ResetDaily zeroes the counters and keeps the old values as the previous
// day's report.
func (s *SchedulerState) ResetDaily(day string, at time.Time) DailyReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := DailyReport{Date: day, Stats: s.stats}
	s.previousDay = &report
	s.stats = DailyStats{}
	s.statsSince = at
	return report
}

func (s *SchedulerState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]match.Match, len(s.todayMatches))
	copy(matches, s.todayMatches)

	var previous *DailyReport
	if s.previousDay != nil {
		report := *s.previousDay
		previous = &report
	}

	return StateSnapshot{
		IsRunning:                   s.running,
		Settings:                    s.settings.Clone(),
		TodayMatches:                matches,
		MatchesRefreshedAt:          s.matchesRefreshedAt,
		LastPredictionPost:          s.lastPredictionPost,
		ResultsPostedOn:             s.resultsPostedOn,
		Stats:                       s.stats,
		StatsSince:                  s.statsSince,
		PreviousDay:                 previous,
		ConsecutiveDeliveryFailures: s.deliveryFailures,
	}
}
