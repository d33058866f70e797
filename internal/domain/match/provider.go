package match

import "context"

// FixtureProvider returns empty slices, not errors, when there is no data.
// Transport failures are returned as errors.
type FixtureProvider interface {
	GetUpcomingMatches(ctx context.Context) ([]Match, error)
	GetTodayMatches(ctx context.Context) ([]Match, error)
	GetYesterdayResults(ctx context.Context) ([]Result, error)
}
