package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crawlkit/crawl/internal/model"
)

// Store is the persistence boundary the crawl writes through.
// Record must be safe for concurrent callers; the crawl never retries it,
// and a Record failure is logged without stopping the worker.
type Store interface {
	// Record durably appends one page result.
	Record(ctx context.Context, result *model.PageResult) error

	// QuerySince returns results recorded at or after the given time,
	// in completion order.
	QuerySince(ctx context.Context, since time.Time) ([]model.PageResult, error)
}

// Pool runs N concurrent workers over a shared frontier. Each worker loops
// independently: reserve budget, pop, fetch, extract, push discovered
// links, record the outcome. There is no central dispatcher beyond the
// frontier's own synchronization.
type Pool struct {
	frontier   *Frontier
	normalizer *Normalizer
	fetcher    *Fetcher
	extractor  *Extractor
	store      Store
	counters   *Counters
	metrics    *Metrics
	logger     *slog.Logger

	// numWorkers is the fixed pool size.
	numWorkers int

	// delay is the politeness pause each worker takes between items.
	delay time.Duration
}

// NewPool assembles a worker pool from the crawl's collaborators.
func NewPool(
	frontier *Frontier,
	normalizer *Normalizer,
	fetcher *Fetcher,
	extractor *Extractor,
	store Store,
	counters *Counters,
	numWorkers int,
	delay time.Duration,
	logger *slog.Logger,
	metrics *Metrics,
) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		frontier:   frontier,
		normalizer: normalizer,
		fetcher:    fetcher,
		extractor:  extractor,
		store:      store,
		counters:   counters,
		metrics:    metrics,
		logger:     logger,
		numWorkers: numWorkers,
		delay:      delay,
	}
}

// Run starts the workers and blocks until all of them have exited.
// Workers exit when the page budget is exhausted, the frontier is
// permanently drained, or the context is cancelled. Per-page failures
// never propagate out of a worker.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < p.numWorkers; i++ {
		i := i
		g.Go(func() error {
			return p.worker(ctx, i)
		})
	}

	return g.Wait()
}

// worker is one worker's loop. Stop conditions are checked before each
// pop: budget first (so pagesProcessed can never exceed the budget), then
// frontier drain. The budget slot is reserved before popping; if the pop
// finds the frontier drained the slot is returned unused. This pairing is
// what makes the total result count equal the total number of pops.
func (p *Pool) worker(ctx context.Context, id int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !p.counters.AcquirePage() {
			p.logger.Debug("worker stopping: page budget reached", "worker", id)
			return nil
		}

		item, ok := p.frontier.Pop(ctx)
		if !ok {
			p.counters.ReleasePage()
			if err := ctx.Err(); err != nil {
				return err
			}
			p.logger.Debug("worker stopping: frontier drained", "worker", id)
			return nil
		}

		p.process(ctx, id, item)
		p.frontier.Done()
		p.metrics.SetQueueLength(p.frontier.QueueLen())

		if p.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay):
			}
		}
	}
}

// process handles one frontier item and records exactly one PageResult,
// whatever the outcome. Fetch and parse run outside any frontier or store
// lock, so a slow page only occupies its own worker.
func (p *Pool) process(ctx context.Context, id int, item Item) {
	result := &model.PageResult{
		URL:   item.URL,
		Depth: item.Depth,
	}

	start := time.Now()
	fetched, err := p.fetcher.Fetch(ctx, item.URL)
	p.metrics.ObserveFetch(time.Since(start))

	switch {
	case err != nil:
		result.Status = model.StatusFetchError
		result.ErrorMessage = err.Error()
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			result.HTTPStatus = httpErr.Code
		}
		var tooLarge *TooLargeError
		if errors.As(err, &tooLarge) {
			result.HTTPStatus = tooLarge.StatusCode
		}

	case !IsHTML(fetched.ContentType):
		// Fetched fine, but there is nothing to extract links from.
		result.Status = model.StatusSkipped
		result.HTTPStatus = fetched.StatusCode

	default:
		result.HTTPStatus = fetched.StatusCode
		p.extract(item, fetched, result)
	}

	result.FetchedAt = time.Now()

	if result.Status.IsError() {
		p.counters.RecordError()
	}
	p.counters.ObserveDepth(item.Depth)
	p.metrics.IncPage(string(result.Status))

	// A store failure loses this page's bookkeeping but never the crawl.
	// WithoutCancel so a shutdown mid-page still records the attempt.
	if err := p.store.Record(context.WithoutCancel(ctx), result); err != nil {
		p.logger.Error("failed to record page result",
			"worker", id,
			"url", item.URL,
			"error", err,
		)
	}

	p.logger.Debug("page processed",
		"worker", id,
		"url", item.URL,
		"depth", item.Depth,
		"status", result.Status,
		"httpStatus", result.HTTPStatus,
		"links", len(result.Links),
	)
}

// extract parses the fetched body, normalizes each candidate link, and
// pushes accepted links back to the frontier at depth+1.
func (p *Pool) extract(item Item, fetched *FetchResult, result *model.PageResult) {
	rawLinks, err := p.extractor.ExtractLinks(fetched.Body, fetched.ContentType)
	if err != nil {
		result.Status = model.StatusParseError
		result.ErrorMessage = err.Error()
		return
	}

	pageURL, err := url.Parse(item.URL)
	if err != nil {
		// Item URLs are normalizer output; this should be unreachable.
		result.Status = model.StatusParseError
		result.ErrorMessage = err.Error()
		return
	}

	result.Status = model.StatusSuccess
	for _, raw := range rawLinks {
		normalized, ok := p.normalizer.Normalize(raw, pageURL)
		if !ok {
			continue
		}
		result.Links = append(result.Links, normalized)
		p.frontier.TryPush(normalized, item.Depth+1)
	}
	p.metrics.AddLinks(len(result.Links))
}
