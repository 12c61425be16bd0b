package crawler

import "sync/atomic"

// Counters is the crawl's shared mutable state: pages processed, errors,
// and the deepest depth seen. Every worker mutates it, so all operations
// are atomic. The page counter doubles as the budget guard: a worker must
// reserve a slot with AcquirePage before popping the frontier, which is
// what guarantees pagesProcessed never exceeds the configured budget.
type Counters struct {
	maxPages       int64
	pagesProcessed atomic.Int64
	errorCount     atomic.Int64
	maxDepthSeen   atomic.Int64
}

// NewCounters creates Counters with the given page budget.
func NewCounters(maxPages int) *Counters {
	return &Counters{maxPages: int64(maxPages)}
}

// AcquirePage reserves one unit of the page budget. It reports false once
// the budget is exhausted, which is the signal for a worker to stop.
func (c *Counters) AcquirePage() bool {
	for {
		cur := c.pagesProcessed.Load()
		if cur >= c.maxPages {
			return false
		}
		if c.pagesProcessed.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// ReleasePage returns an acquired slot that was never used.
// Called when a worker reserved budget but found the frontier drained.
func (c *Counters) ReleasePage() {
	c.pagesProcessed.Add(-1)
}

// RecordError increments the error total.
func (c *Counters) RecordError() {
	c.errorCount.Add(1)
}

// ObserveDepth raises the maximum depth seen to d if it is deeper.
func (c *Counters) ObserveDepth(d int) {
	for {
		cur := c.maxDepthSeen.Load()
		if int64(d) <= cur {
			return
		}
		if c.maxDepthSeen.CompareAndSwap(cur, int64(d)) {
			return
		}
	}
}

// PagesProcessed returns the number of pages processed so far.
func (c *Counters) PagesProcessed() int {
	return int(c.pagesProcessed.Load())
}

// ErrorCount returns the number of pages that ended in an error.
func (c *Counters) ErrorCount() int {
	return int(c.errorCount.Load())
}

// MaxDepthSeen returns the deepest depth at which a page was processed.
func (c *Counters) MaxDepthSeen() int {
	return int(c.maxDepthSeen.Load())
}
