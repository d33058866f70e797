package sportmonks

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/riskibarqy/matchday-tipster/internal/platform/resilience"
	"github.com/riskibarqy/matchday-tipster/internal/usecase"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL        = "https://api.sportmonks.com/v3/football"
	defaultIncludeFixture = "participants;scores;state;league"
	defaultLookahead      = 24 * time.Hour
	defaultPerPage        = 50
	maxPages              = 20
	maxLeagueFanout       = 4
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
var errSportMonksTransient = crerr.New("sportmonks transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	LeagueIDs      []int64
	Lookahead      time.Duration
	Location       *time.Location
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	RatePerMinute  int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads fixtures from the SportMonks v3 football API and maps them
// onto match.Match. It implements match.FixtureProvider.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	leagueIDs    []int64
	lookahead    time.Duration
	location     *time.Location
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	logger       *logging.Logger
	guard        *resilience.Guard
	flight       resilience.Flight[[]byte]
	now          func() time.Time
}

var _ match.FixtureProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	lookahead := cfg.Lookahead
	if lookahead <= 0 {
		lookahead = defaultLookahead
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), 1)
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		token:        strings.TrimSpace(cfg.Token),
		leagueIDs:    dedupeLeagueIDs(cfg.LeagueIDs),
		lookahead:    lookahead,
		location:     location,
		maxRetries:   maxInt(cfg.MaxRetries, 0),
		retryBackoff: retryBackoff,
		limiter:      limiter,
		logger:       logger.Named("sportmonks"),
		guard:        resilience.NewGuard("sportmonks", cfg.CircuitBreaker, isSportMonksCircuitFailure),
		now:          time.Now,
	}
}

// GetUpcomingMatches returns fixtures kicking off within the lookahead
// window, excluding finished and cancelled ones.
func (c *Client) GetUpcomingMatches(ctx context.Context) ([]match.Match, error) {
	now := c.now().UTC()
	fixtures, err := c.fetchRange(ctx, now, now.Add(c.lookahead))
	if err != nil {
		return nil, err
	}

	out := make([]match.Match, 0, len(fixtures))
	for _, item := range fixtures {
		m, ok := item.toMatch()
		if !ok || m.KickoffAt.Before(now) {
			continue
		}
		if match.IsFinishedStatus(m.Status) || match.IsCancelledLikeStatus(m.Status) {
			continue
		}
		out = append(out, m)
	}
	sortMatches(out)
	return out, nil
}

// GetTodayMatches returns every non-cancelled fixture of the current day in
// the configured location.
func (c *Client) GetTodayMatches(ctx context.Context) ([]match.Match, error) {
	start := startOfDay(c.now(), c.location)
	fixtures, err := c.fetchRange(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	out := make([]match.Match, 0, len(fixtures))
	for _, item := range fixtures {
		m, ok := item.toMatch()
		if !ok || match.IsCancelledLikeStatus(m.Status) {
			continue
		}
		out = append(out, m)
	}
	sortMatches(out)
	return out, nil
}

// GetYesterdayResults returns finished fixtures of the previous day that
// carry a score for both sides.
func (c *Client) GetYesterdayResults(ctx context.Context) ([]match.Result, error) {
	today := startOfDay(c.now(), c.location)
	fixtures, err := c.fetchRange(ctx, today.AddDate(0, 0, -1), today)
	if err != nil {
		return nil, err
	}

	out := make([]match.Result, 0, len(fixtures))
	for _, item := range fixtures {
		result, ok := item.toResult()
		if !ok {
			continue
		}
		out = append(out, result)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].KickoffAt.Before(out[j].KickoffAt)
	})
	return out, nil
}

// fetchRange loads fixtures with kickoff in [from, to). The between endpoint
// works on whole UTC dates, so the result is trimmed to the exact range.
func (c *Client) fetchRange(ctx context.Context, from, to time.Time) ([]fixtureDetails, error) {
	path := fmt.Sprintf("/fixtures/between/%s/%s",
		from.UTC().Format(time.DateOnly),
		to.UTC().Format(time.DateOnly),
	)

	leagues := c.leagueIDs
	if len(leagues) == 0 {
		leagues = []int64{0}
	}

	p := pool.NewWithResults[[]fixtureDetails]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(min(len(leagues), maxLeagueFanout))
	for _, leagueID := range leagues {
		p.Go(func(ctx context.Context) ([]fixtureDetails, error) {
			return c.fetchPaged(ctx, path, leagueID)
		})
	}
	batches, err := p.Wait()
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	out := make([]fixtureDetails, 0)
	for _, batch := range batches {
		for _, item := range batch {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			kickoff := parseProviderDateTime(item.StartingAt)
			if kickoff == nil || kickoff.Before(from) || !kickoff.Before(to) {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *Client) fetchPaged(ctx context.Context, path string, leagueID int64) ([]fixtureDetails, error) {
	query := map[string]string{
		"include":  defaultIncludeFixture,
		"per_page": strconv.Itoa(defaultPerPage),
	}
	if leagueID > 0 {
		query["filters"] = "fixtureLeagues:" + strconv.FormatInt(leagueID, 10)
	}

	out := make([]fixtureDetails, 0)
	for page := 1; page <= maxPages; page++ {
		query["page"] = strconv.Itoa(page)

		var envelope fixturesEnvelope
		if err := c.doJSON(ctx, path, query, &envelope); err != nil {
			return nil, fmt.Errorf("fetch fixtures page=%d league=%d: %w", page, leagueID, err)
		}
		out = append(out, envelope.Data...)
		if !envelope.Pagination.HasMore {
			return out, nil
		}
	}

	c.logger.WarnContext(ctx, "sportmonks pagination truncated", "path", path, "league_id", leagueID, "pages", maxPages)
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if err := c.guard.Allow(); err != nil {
		c.logger.WarnContext(ctx, "sportmonks circuit breaker rejected request", "state", c.guard.State())
		return fmt.Errorf("%w: sport data provider is temporarily unavailable", usecase.ErrProviderUnavailable)
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("api_token", c.token)

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err, _ := c.flight.Do(path+"?"+values.Encode(), func() ([]byte, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		c.guard.Record(reqErr)
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for sportmonks rate limit: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSportMonksTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSportMonksTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errSportMonksTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "sportmonks request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func isSportMonksCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errSportMonksTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("api_token") {
		query.Set("api_token", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func startOfDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func sortMatches(items []match.Match) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].KickoffAt.Before(items[j].KickoffAt)
	})
}

func dedupeLeagueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
