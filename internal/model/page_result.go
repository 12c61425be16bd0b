package model

import "time"

// PageStatus describes the outcome of processing one frontier item.
type PageStatus string

// Page statuses. These values are stored verbatim in the pages table,
// so changing them is a schema-compatibility concern.
const (
	// StatusSuccess means the page was fetched and its links extracted.
	StatusSuccess PageStatus = "success"

	// StatusFetchError means the HTTP request failed (network error,
	// 4xx/5xx response, or oversized body).
	StatusFetchError PageStatus = "fetch_error"

	// StatusParseError means the page was fetched but its body could not
	// be parsed as HTML.
	StatusParseError PageStatus = "parse_error"

	// StatusSkipped means the page was fetched but link extraction was
	// bypassed (non-HTML content type). Not counted as an error.
	StatusSkipped PageStatus = "skipped"
)

// IsError reports whether the status counts toward the crawl's error total.
func (s PageStatus) IsError() bool {
	return s == StatusFetchError || s == StatusParseError
}

// PageResult records the outcome of one fetch attempt.
// Exactly one PageResult is created per frontier pop, regardless of whether
// the fetch succeeded. Results are immutable after creation.
type PageResult struct {
	// URL is the normalized URL that was fetched.
	URL string `json:"url"`

	// Depth is the link distance from the seed URL (seed = 0).
	Depth int `json:"depth"`

	// Status is the processing outcome.
	Status PageStatus `json:"status"`

	// HTTPStatus is the HTTP response status code.
	// Zero when no response was received (network error).
	HTTPStatus int `json:"http_status,omitempty"`

	// ErrorMessage describes the failure for non-success statuses.
	ErrorMessage string `json:"error_message,omitempty"`

	// FetchedAt is when the fetch attempt completed.
	FetchedAt time.Time `json:"fetched_at"`

	// Links holds the normalized links extracted from the page,
	// in document order. Empty for non-success statuses.
	Links []string `json:"links,omitempty"`
}
