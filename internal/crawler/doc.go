// Package crawler implements the crawl scheduler: the coordination of
// concurrent fetch workers over a shared frontier of URLs.
//
// # Architecture
//
//   - Normalizer: canonicalizes raw links and applies the accept policy
//   - Frontier: dedup-guarded FIFO of (URL, depth) items
//   - Fetcher: performs one HTTP GET with a timeout and a body cap
//   - Extractor: pulls anchor hrefs out of fetched HTML
//   - Pool: N workers looping pop -> fetch -> extract -> push -> record
//   - Coordinator: owns the crawl lifecycle and assembles the report
//
// Design decision: We implement our own scheduler rather than using a
// third-party crawling framework because:
//  1. Depth and page budgets must be enforced at well-defined points
//  2. The frontier's at-most-once-enqueue invariant is the core contract
//  3. Failure isolation per page needs to be explicit, not framework policy
//
// # Concurrency
//
// The visited set and the pending queue are guarded together under one
// mutex inside the Frontier. Counters use atomic operations. No lock is
// held across a blocking fetch or parse, so one slow page never stalls
// the pool.
//
// # Usage
//
//	c := crawler.NewCoordinator(httpClient, store, crawler.WithMaxDepth(3))
//	report, err := c.Run(ctx, "http://example.com")
package crawler
