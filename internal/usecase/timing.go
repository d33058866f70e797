package usecase

import (
	"sort"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
)

// ComputeTimings orders matches by kickoff and decides whether any kickoff
// falls inside [now, now+window]. Both bounds are inclusive. It never
// mutates its input.
func ComputeTimings(matches []match.Match, now time.Time, window time.Duration) match.TimingSnapshot {
	sorted := sortByKickoff(matches)
	snapshot := match.TimingSnapshot{AllMatches: sorted}

	end := now.Add(window)
	for i := range sorted {
		kickoff := sorted[i].KickoffAt
		if snapshot.NextMatch == nil && kickoff.After(now) {
			next := sorted[i]
			snapshot.NextMatch = &next
		}
		if !kickoff.Before(now) && !kickoff.After(end) {
			snapshot.ShouldPostPredictions = true
		}
	}

	return snapshot
}

// MatchesInWindow returns, in kickoff order, the matches whose kickoff lies
// in [now+from, now+to].
func MatchesInWindow(matches []match.Match, now time.Time, from, to time.Duration) []match.Match {
	start := now.Add(from)
	end := now.Add(to)

	out := make([]match.Match, 0, len(matches))
	for _, item := range sortByKickoff(matches) {
		if item.KickoffAt.Before(start) || item.KickoffAt.After(end) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func sortByKickoff(matches []match.Match) []match.Match {
	sorted := make([]match.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].KickoffAt.Before(sorted[j].KickoffAt)
	})
	return sorted
}
