package fixturecache

import (
	"context"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/platform/cache"
)

// Provider caches fixture lookups for a short TTL and collapses concurrent
// identical lookups into one upstream call. Day-scoped keys roll over at
// midnight in the configured location.
type Provider struct {
	inner    match.FixtureProvider
	location *time.Location
	matches  *cache.Store[[]match.Match]
	results  *cache.Store[[]match.Result]
	now      func() time.Time
}

var _ match.FixtureProvider = (*Provider)(nil)

func New(inner match.FixtureProvider, ttl time.Duration, location *time.Location) *Provider {
	if location == nil {
		location = time.UTC
	}
	return &Provider{
		inner:    inner,
		location: location,
		matches:  cache.NewStore[[]match.Match](ttl),
		results:  cache.NewStore[[]match.Result](ttl),
		now:      time.Now,
	}
}

func (p *Provider) GetUpcomingMatches(ctx context.Context) ([]match.Match, error) {
	items, err := p.matches.GetOrLoad(ctx, "upcoming", p.inner.GetUpcomingMatches)
	if err != nil {
		return nil, err
	}
	return append([]match.Match(nil), items...), nil
}

func (p *Provider) GetTodayMatches(ctx context.Context) ([]match.Match, error) {
	items, err := p.matches.GetOrLoad(ctx, "today:"+p.day(), p.inner.GetTodayMatches)
	if err != nil {
		return nil, err
	}
	return append([]match.Match(nil), items...), nil
}

func (p *Provider) GetYesterdayResults(ctx context.Context) ([]match.Result, error) {
	items, err := p.results.GetOrLoad(ctx, "results:"+p.day(), p.inner.GetYesterdayResults)
	if err != nil {
		return nil, err
	}
	return append([]match.Result(nil), items...), nil
}

func (p *Provider) day() string {
	return p.now().In(p.location).Format(time.DateOnly)
}
