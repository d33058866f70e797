package match

import (
	"strconv"
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Match is one fixture as returned by the provider. Values are treated as
// immutable; a refresh replaces the whole set.
type Match struct {
	ID         string
	LeagueID   string
	LeagueName string
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	Status     string
}

// TimeUntilKickoff returns signed minutes until kickoff. It is negative once
// the match has started.
func (m Match) TimeUntilKickoff(now time.Time) float64 {
	return m.KickoffAt.Sub(now).Minutes()
}

func (m Match) Title() string {
	return strings.TrimSpace(m.HomeTeam) + " vs " + strings.TrimSpace(m.AwayTeam)
}

// Result is a finished match with its final score.
type Result struct {
	Match
	HomeScore int
	AwayScore int
}

func (r Result) Scoreline() string {
	return r.Match.HomeTeam + " " + strconv.Itoa(r.HomeScore) + "-" + strconv.Itoa(r.AwayScore) + " " + r.Match.AwayTeam
}

// TimingSnapshot is derived from a match set at one instant. It is never
// stored.
type TimingSnapshot struct {
	AllMatches            []Match
	NextMatch             *Match
	ShouldPostPredictions bool
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, "ABANDONED":
		return true
	default:
		return false
	}
}
