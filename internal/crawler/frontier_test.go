package crawler

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"
)

// TestFrontierPushPop tests basic queue behavior.
func TestFrontierPushPop(t *testing.T) {
	t.Parallel()

	t.Run("pops items in FIFO order", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		f.TryPush("http://example.com/a", 0)
		f.TryPush("http://example.com/b", 1)
		f.TryPush("http://example.com/c", 1)

		want := []string{"http://example.com/a", "http://example.com/b", "http://example.com/c"}
		for i, wantURL := range want {
			item, ok := f.Pop(context.Background())
			if !ok {
				t.Fatalf("pop %d: unexpected drain", i)
			}
			if item.URL != wantURL {
				t.Errorf("pop %d: got %q, want %q", i, item.URL, wantURL)
			}
			f.Done()
		}
	})

	t.Run("deduplicates URLs", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		if !f.TryPush("http://example.com/", 0) {
			t.Fatal("first push rejected")
		}
		if f.TryPush("http://example.com/", 1) {
			t.Error("duplicate push accepted")
		}
		if f.QueueLen() != 1 {
			t.Errorf("expected queue length 1, got %d", f.QueueLen())
		}
	})

	t.Run("dedup persists after pop", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		f.TryPush("http://example.com/", 0)

		if _, ok := f.Pop(context.Background()); !ok {
			t.Fatal("unexpected drain")
		}
		f.Done()

		// A popped URL stays in the visited set forever.
		if f.TryPush("http://example.com/", 1) {
			t.Error("re-push of a processed URL accepted")
		}
	})

	t.Run("rejects items above depth ceiling", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(2)
		if !f.TryPush("http://example.com/at-limit", 2) {
			t.Error("push at max depth rejected")
		}
		if f.TryPush("http://example.com/too-deep", 3) {
			t.Error("push above max depth accepted")
		}
	})

	t.Run("depth 0 ceiling allows only the seed", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(0)
		if !f.Seed("http://example.com/") {
			t.Error("seed rejected")
		}
		if f.TryPush("http://example.com/child", 1) {
			t.Error("depth 1 push accepted with ceiling 0")
		}
	})
}

// TestFrontierDrain tests the permanent-exhaustion protocol.
func TestFrontierDrain(t *testing.T) {
	t.Parallel()

	t.Run("empty frontier drains immediately", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		if _, ok := f.Pop(context.Background()); ok {
			t.Error("expected ok=false on empty frontier")
		}
	})

	t.Run("waits for in-flight items before draining", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3, WithPopWait(5*time.Millisecond))
		f.TryPush("http://example.com/", 0)

		// Worker A takes the only item.
		if _, ok := f.Pop(context.Background()); !ok {
			t.Fatal("unexpected drain")
		}

		// Worker B blocks: A may still discover links.
		popped := make(chan bool, 1)
		go func() {
			_, ok := f.Pop(context.Background())
			popped <- ok
		}()

		select {
		case <-popped:
			t.Fatal("Pop returned while another item was in flight")
		case <-time.After(30 * time.Millisecond):
		}

		// A pushes a discovered link and finishes; B must receive it.
		f.TryPush("http://example.com/child", 1)
		f.Done()

		select {
		case ok := <-popped:
			if !ok {
				t.Error("expected worker B to receive the discovered item")
			}
		case <-time.After(time.Second):
			t.Fatal("Pop did not return after item became available")
		}
	})

	t.Run("drains after last in-flight item finishes", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3, WithPopWait(5*time.Millisecond))
		f.TryPush("http://example.com/", 0)

		if _, ok := f.Pop(context.Background()); !ok {
			t.Fatal("unexpected drain")
		}

		done := make(chan bool, 1)
		go func() {
			_, ok := f.Pop(context.Background())
			done <- ok
		}()

		// Finish without pushing anything: the waiting Pop must drain.
		f.Done()

		select {
		case ok := <-done:
			if ok {
				t.Error("expected ok=false after drain")
			}
		case <-time.After(time.Second):
			t.Fatal("Pop did not drain after last in-flight item finished")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3, WithPopWait(5*time.Millisecond))
		f.TryPush("http://example.com/", 0)
		if _, ok := f.Pop(context.Background()); !ok {
			t.Fatal("unexpected drain")
		}
		// One item in flight, queue empty: Pop would wait forever.

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan bool, 1)
		go func() {
			_, ok := f.Pop(ctx)
			done <- ok
		}()

		cancel()

		select {
		case ok := <-done:
			if ok {
				t.Error("expected ok=false after cancellation")
			}
		case <-time.After(time.Second):
			t.Fatal("Pop did not return after context cancellation")
		}
	})
}

// TestFrontierConcurrent verifies at-most-once delivery under concurrent
// pushers and poppers.
func TestFrontierConcurrent(t *testing.T) {
	t.Parallel()

	const (
		numPushers = 8
		numURLs    = 200
	)

	f := NewFrontier(10, WithPopWait(time.Millisecond))

	urls := make([]string, numURLs)
	for i := range urls {
		urls[i] = "http://example.com/page-" + strconv.Itoa(i)
	}

	// Every pusher tries to push every URL; each must land exactly once.
	var pushWG sync.WaitGroup
	for i := 0; i < numPushers; i++ {
		pushWG.Add(1)
		go func() {
			defer pushWG.Done()
			for _, u := range urls {
				f.TryPush(u, 1)
			}
		}()
	}
	pushWG.Wait()

	seen := make(map[string]int)
	var mu sync.Mutex
	var popWG sync.WaitGroup
	for i := 0; i < 4; i++ {
		popWG.Add(1)
		go func() {
			defer popWG.Done()
			for {
				item, ok := f.Pop(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				seen[item.URL]++
				mu.Unlock()
				f.Done()
			}
		}()
	}
	popWG.Wait()

	for u, count := range seen {
		if count != 1 {
			t.Errorf("URL %q delivered %d times, want 1", u, count)
		}
	}
	if f.VisitedCount() != len(seen) {
		t.Errorf("visited count %d != delivered count %d", f.VisitedCount(), len(seen))
	}
}
