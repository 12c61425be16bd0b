package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crawlkit/crawl/internal/model"
)

// Coordinator owns a crawl's lifecycle: it validates and seeds the
// frontier, starts the worker pool, waits for it to terminate, and
// assembles the final report from the shared counters and the store.
// The counters, frontier, and pool are created at Run time and discarded
// after report assembly; a Coordinator can run multiple crawls.
type Coordinator struct {
	client *http.Client
	store  Store
	logger *slog.Logger

	maxDepth           int
	maxPages           int
	numWorkers         int
	crawlDelay         time.Duration
	popWait            time.Duration
	userAgent          string
	maxBodySize        int64
	allowExternalHosts bool
	ignorePatterns     []string
	followPatterns     []string
	headers            map[string]string
	cookie             string
	metrics            *Metrics
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxDepth sets the maximum link distance from the seed.
// 0 = only the seed page.
func WithMaxDepth(depth int) CoordinatorOption {
	return func(c *Coordinator) {
		c.maxDepth = depth
	}
}

// WithMaxPages sets the page budget.
func WithMaxPages(maxPages int) CoordinatorOption {
	return func(c *Coordinator) {
		c.maxPages = maxPages
	}
}

// WithNumWorkers sets the number of concurrent workers.
func WithNumWorkers(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.numWorkers = n
		}
	}
}

// WithCrawlDelay sets the politeness delay between requests per worker.
func WithCrawlDelay(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.crawlDelay = d
	}
}

// WithCoordinatorPopWait sets the frontier's empty-queue re-check interval.
func WithCoordinatorPopWait(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.popWait = d
	}
}

// WithCoordinatorUserAgent sets the User-Agent header for all requests.
func WithCoordinatorUserAgent(ua string) CoordinatorOption {
	return func(c *Coordinator) {
		c.userAgent = ua
	}
}

// WithCoordinatorMaxBodySize sets the response body cap in bytes.
func WithCoordinatorMaxBodySize(size int64) CoordinatorOption {
	return func(c *Coordinator) {
		c.maxBodySize = size
	}
}

// WithCoordinatorAllowExternalHosts permits following off-host links.
func WithCoordinatorAllowExternalHosts(allow bool) CoordinatorOption {
	return func(c *Coordinator) {
		c.allowExternalHosts = allow
	}
}

// WithCoordinatorIgnorePatterns sets URL path patterns to skip.
func WithCoordinatorIgnorePatterns(patterns []string) CoordinatorOption {
	return func(c *Coordinator) {
		c.ignorePatterns = patterns
	}
}

// WithCoordinatorFollowPatterns sets URL path patterns to follow.
func WithCoordinatorFollowPatterns(patterns []string) CoordinatorOption {
	return func(c *Coordinator) {
		c.followPatterns = patterns
	}
}

// WithCoordinatorHeaders sets extra request headers.
func WithCoordinatorHeaders(headers map[string]string) CoordinatorOption {
	return func(c *Coordinator) {
		c.headers = headers
	}
}

// WithCoordinatorCookie sets a raw Cookie header value.
func WithCoordinatorCookie(cookie string) CoordinatorOption {
	return func(c *Coordinator) {
		c.cookie = cookie
	}
}

// WithLogger sets the logger used by the coordinator and its workers.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics attaches Prometheus collectors to the crawl.
func WithMetrics(m *Metrics) CoordinatorOption {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// NewCoordinator creates a Coordinator using the given HTTP client and
// result store. The client's Timeout bounds each fetch.
func NewCoordinator(client *http.Client, store Store, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		client:      client,
		store:       store,
		maxDepth:    3,
		maxPages:    100,
		numWorkers:  5,
		popWait:     25 * time.Millisecond,
		userAgent:   "crawl/1.0",
		maxBodySize: 5 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// ParseSeedURL validates and parses a seed URL. A missing scheme defaults
// to http. Non-HTTP(S) schemes and host-less URLs are rejected with
// ErrInvalidSeedURL.
func ParseSeedURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrInvalidSeedURL)
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeedURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSeedURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidSeedURL)
	}

	return u, nil
}

// Run executes one crawl from baseURL and returns the report.
// An invalid seed URL is the only fatal error; per-page failures are
// reflected in the report's error count. Cancellation stops the workers
// and the report covers whatever completed before the stop.
func (c *Coordinator) Run(ctx context.Context, baseURL string) (*model.CrawlReport, error) {
	seed, err := ParseSeedURL(baseURL)
	if err != nil {
		return nil, err
	}

	normalizer := NewNormalizer(seed,
		WithAllowExternalHosts(c.allowExternalHosts),
		WithIgnorePatterns(c.ignorePatterns),
		WithFollowPatterns(c.followPatterns),
	)

	seedNorm, ok := normalizer.Normalize(seed.String(), nil)
	if !ok {
		return nil, fmt.Errorf("%w: %s rejected by crawl policy", ErrInvalidSeedURL, baseURL)
	}

	frontier := NewFrontier(c.maxDepth, WithPopWait(c.popWait))
	counters := NewCounters(c.maxPages)
	fetcher := NewFetcher(c.client,
		WithUserAgent(c.userAgent),
		WithMaxBodySize(c.maxBodySize),
		WithHeaders(c.headers),
		WithCookie(c.cookie),
	)
	pool := NewPool(frontier, normalizer, fetcher, NewExtractor(), c.store,
		counters, c.numWorkers, c.crawlDelay, c.logger, c.metrics)

	report := model.NewCrawlReport(seedNorm)
	frontier.Seed(seedNorm)

	c.logger.Info("starting crawl",
		"baseURL", seedNorm,
		"maxDepth", c.maxDepth,
		"maxPages", c.maxPages,
		"numWorkers", c.numWorkers,
	)

	start := time.Now()
	runErr := pool.Run(ctx)
	report.FinishAfter(time.Since(start))

	report.PagesCrawled = counters.PagesProcessed()
	report.ErrorCount = counters.ErrorCount()
	report.MaxDepthReached = counters.MaxDepthSeen()

	// Visited URLs come from the store so the report reflects exactly
	// what was durably recorded, in completion order. The one-second
	// slack covers timestamp truncation in the database. The read-back
	// must still work after a cancelled crawl, hence WithoutCancel.
	results, qErr := c.store.QuerySince(context.WithoutCancel(ctx), report.StartedAt.Add(-time.Second))
	if qErr != nil {
		c.logger.Error("failed to read back crawl results", "error", qErr)
	} else {
		for _, r := range results {
			report.VisitedURLs = append(report.VisitedURLs, r.URL)
		}
	}

	c.logger.Info("crawl finished",
		"pagesCrawled", report.PagesCrawled,
		"errorCount", report.ErrorCount,
		"maxDepthReached", report.MaxDepthReached,
		"durationSeconds", report.DurationSeconds,
	)

	// A cancelled or timed-out crawl still yields a partial report.
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return report, runErr
	}
	return report, nil
}
