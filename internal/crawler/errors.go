package crawler

import (
	"errors"
	"fmt"
)

// ErrInvalidSeedURL is returned by the Coordinator when the seed URL cannot
// be crawled. This is the only fatal error a crawl can produce at startup;
// per-page failures are recorded in PageResults instead.
var ErrInvalidSeedURL = errors.New("invalid seed URL")

// NetworkError indicates a DNS, connection, or timeout failure.
// No HTTP response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError indicates the server responded with a 4xx or 5xx status.
type HTTPError struct {
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.Code)
}

// TooLargeError indicates the response body exceeded the configured cap.
// The response status is kept so the result can still record it.
type TooLargeError struct {
	Limit      int64
	StatusCode int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("response body exceeds %d bytes", e.Limit)
}

// ParseError indicates a fetched body could not be parsed as HTML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
