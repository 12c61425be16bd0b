package crawler

import (
	"context"
	"sync"
	"time"
)

// Item is one unit of crawl work: a normalized URL and its link distance
// from the seed. Items are never mutated after creation.
type Item struct {
	// URL is the normalized URL to fetch.
	URL string

	// Depth is the link distance from the seed (seed = 0).
	Depth int
}

// Frontier is the shared queue of discovered-but-not-yet-processed items.
// It pairs a FIFO pending queue with the visited set under a single mutex:
// a URL enters the queue at most once for the lifetime of the crawl, even
// when multiple workers discover it concurrently.
//
// FIFO ordering gives breadth-first progress, which keeps workers from
// free-running arbitrarily deep while shallow items wait. Relative order
// between concurrent poppers is unspecified.
type Frontier struct {
	mu sync.Mutex

	// queue holds pending items in discovery order.
	queue []Item

	// visited holds every URL ever enqueued. Entries are never removed.
	visited map[string]struct{}

	// inflight counts items popped but not yet marked Done. Pop reports
	// permanent exhaustion only when the queue is empty and no worker is
	// mid-flight, since an in-flight page may still push new links.
	inflight int

	// maxDepth is the depth ceiling enforced at push time.
	maxDepth int

	// popWait bounds how long one Pop attempt sleeps before re-checking.
	popWait time.Duration
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithPopWait sets the wait interval between empty-queue re-checks in Pop.
func WithPopWait(d time.Duration) FrontierOption {
	return func(f *Frontier) {
		if d > 0 {
			f.popWait = d
		}
	}
}

// NewFrontier creates an empty Frontier with the given depth ceiling.
func NewFrontier(maxDepth int, opts ...FrontierOption) *Frontier {
	f := &Frontier{
		queue:    make([]Item, 0),
		visited:  make(map[string]struct{}),
		maxDepth: maxDepth,
		popWait:  25 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Seed inserts a depth-0 item. It is a no-op if the URL was already seeded.
func (f *Frontier) Seed(url string) bool {
	return f.TryPush(url, 0)
}

// TryPush inserts a normalized URL at the given depth. It reports false
// when the item is rejected: depth above the ceiling, or URL already
// enqueued at some point in the crawl. Visited-set insertion and queue
// insertion happen atomically under one lock, so two workers discovering
// the same link cannot both enqueue it.
func (f *Frontier) TryPush(url string, depth int) bool {
	if depth > f.maxDepth {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.visited[url]; seen {
		return false
	}
	f.visited[url] = struct{}{}
	f.queue = append(f.queue, Item{URL: url, Depth: depth})
	return true
}

// Pop removes and returns the oldest pending item. When the queue is empty
// it waits in bounded intervals as long as another worker is mid-flight
// (that worker may still discover new links). It returns ok=false once the
// frontier is permanently drained or the context is cancelled.
//
// The caller must call Done after finishing the returned item, including
// its TryPush calls for discovered links.
func (f *Frontier) Pop(ctx context.Context) (Item, bool) {
	for {
		f.mu.Lock()
		if len(f.queue) > 0 {
			item := f.queue[0]
			f.queue = f.queue[1:]
			f.inflight++
			f.mu.Unlock()
			return item, true
		}
		drained := f.inflight == 0
		f.mu.Unlock()

		if drained {
			return Item{}, false
		}

		select {
		case <-ctx.Done():
			return Item{}, false
		case <-time.After(f.popWait):
		}
	}
}

// Done marks one popped item as fully processed.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
}

// QueueLen returns the number of pending items.
func (f *Frontier) QueueLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// VisitedCount returns the number of unique URLs ever enqueued.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
