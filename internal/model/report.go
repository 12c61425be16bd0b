package model

import (
	"math"
	"time"
)

// CrawlReport is the summary assembled by the coordinator when a crawl
// finishes. It is a read-only snapshot built once from the shared counters
// and the result store; it is never updated afterwards.
type CrawlReport struct {
	// BaseURL is the normalized seed URL the crawl started from.
	BaseURL string `json:"base_url"`

	// MaxDepthReached is the deepest depth at which a page was processed.
	MaxDepthReached int `json:"max_depth_reached"`

	// PagesCrawled is the number of frontier items processed.
	// Never exceeds the configured page budget.
	PagesCrawled int `json:"pages_crawled"`

	// ErrorCount is the number of pages that ended in a fetch or parse error.
	ErrorCount int `json:"error_count"`

	// DurationSeconds is the wall-clock crawl duration, rounded to two
	// decimal places.
	DurationSeconds float64 `json:"duration_seconds"`

	// VisitedURLs lists the URL of every processed page in completion order.
	// A URL appears at most once.
	VisitedURLs []string `json:"visited_urls"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`
}

// NewCrawlReport creates a report for the given seed URL with the start
// time recorded. The remaining fields are filled in at shutdown.
func NewCrawlReport(baseURL string) *CrawlReport {
	return &CrawlReport{
		BaseURL:     baseURL,
		VisitedURLs: make([]string, 0),
		StartedAt:   time.Now(),
	}
}

// FinishAfter records the crawl duration, rounded to two decimal places.
func (r *CrawlReport) FinishAfter(d time.Duration) {
	r.DurationSeconds = math.Round(d.Seconds()*100) / 100
}
