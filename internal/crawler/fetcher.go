package crawler

import (
	"context"
	"io"
	"net/http"
)

// FetchResult is a successfully fetched page body and its response metadata.
type FetchResult struct {
	// StatusCode is the HTTP response status code (always < 400 here).
	StatusCode int

	// ContentType is the value of the Content-Type response header.
	ContentType string

	// Body is the response body, at most the configured byte cap.
	Body []byte
}

// Fetcher performs single HTTP GETs. It holds no mutable state between
// calls and is safe to share across any number of workers. It never
// retries; retry policy, if any, belongs to the caller.
//
// Design decision: We require an external *http.Client because:
//  1. The per-request timeout lives on the client
//  2. Tests can swap in a mock transport
type Fetcher struct {
	// client performs the requests. Its Timeout bounds each fetch.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize caps how many response bytes are read.
	maxBodySize int64

	// headers are extra request headers from the host configuration.
	headers map[string]string

	// cookie is the raw Cookie header value, if configured.
	cookie string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaders sets extra headers to send with every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithCookie sets a raw Cookie header value to send with every request.
func WithCookie(cookie string) FetcherOption {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// NewFetcher creates a Fetcher using the given HTTP client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   "crawl/1.0",
		maxBodySize: 5 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs one GET of pageURL. Failures are typed:
//   - *NetworkError: DNS, connection, timeout, or read failure
//   - *HTTPError: 4xx/5xx response
//   - *TooLargeError: body exceeded the configured cap
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{Code: resp.StatusCode}
	}

	// Read one byte past the cap so an exactly-at-limit body is not
	// mistaken for an oversized one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, &TooLargeError{Limit: f.maxBodySize, StatusCode: resp.StatusCode}
	}

	return &FetchResult{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
