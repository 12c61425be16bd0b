package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and identify exactly which
// option is invalid.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeedURL is returned when no seed URL was provided.
	ErrNoSeedURL = errors.New("no seed URL specified: provide a base URL as the first argument")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	// Use 0 to fetch only the seed page.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	// A budget of zero would mean no crawling at all.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidNumWorkers is returned when the worker count is not positive.
	ErrInvalidNumWorkers = errors.New("invalid number of workers: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A zero or negative timeout would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the body cap is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")
)
