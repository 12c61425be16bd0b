package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crawlkit/crawl/internal/model"
)

// openTestStore opens a PageStore in a temporary directory.
func openTestStore(t *testing.T) *PageStore {
	t.Helper()

	store, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return store
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database when allowed", func(t *testing.T) {
		t.Parallel()

		store := openTestStore(t)
		if store.Path() == "" {
			t.Error("expected non-empty database path")
		}
	})

	t.Run("refuses to create when not allowed", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false

		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error opening missing database without create")
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		result := &model.PageResult{
			URL:       "http://example.com/",
			Depth:     0,
			Status:    model.StatusSuccess,
			FetchedAt: time.Now(),
		}
		if err := store.Record(context.Background(), result); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		reopened, err := Open(dir, opts)
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		defer reopened.Close()

		results, err := reopened.QueryAll(context.Background())
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("expected 1 persisted result, got %d", len(results))
		}
	})
}

// TestRecordAndQuery tests the append-and-read-back cycle.
func TestRecordAndQuery(t *testing.T) {
	t.Parallel()

	t.Run("round-trips all fields", func(t *testing.T) {
		t.Parallel()

		store := openTestStore(t)
		ctx := context.Background()

		fetchedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		original := &model.PageResult{
			URL:          "http://example.com/broken",
			Depth:        2,
			Status:       model.StatusFetchError,
			HTTPStatus:   500,
			ErrorMessage: "http error: status 500",
			FetchedAt:    fetchedAt,
		}
		if err := store.Record(ctx, original); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		results, err := store.QueryAll(ctx)
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}

		got := results[0]
		if got.URL != original.URL {
			t.Errorf("URL = %q, want %q", got.URL, original.URL)
		}
		if got.Depth != original.Depth {
			t.Errorf("Depth = %d, want %d", got.Depth, original.Depth)
		}
		if got.Status != original.Status {
			t.Errorf("Status = %q, want %q", got.Status, original.Status)
		}
		if got.HTTPStatus != original.HTTPStatus {
			t.Errorf("HTTPStatus = %d, want %d", got.HTTPStatus, original.HTTPStatus)
		}
		if got.ErrorMessage != original.ErrorMessage {
			t.Errorf("ErrorMessage = %q, want %q", got.ErrorMessage, original.ErrorMessage)
		}
		if !got.FetchedAt.Equal(fetchedAt) {
			t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, fetchedAt)
		}
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		t.Parallel()

		store := openTestStore(t)
		ctx := context.Background()

		urls := []string{"http://example.com/1", "http://example.com/2", "http://example.com/3"}
		for _, u := range urls {
			result := &model.PageResult{
				URL:       u,
				Status:    model.StatusSuccess,
				FetchedAt: time.Now(),
			}
			if err := store.Record(ctx, result); err != nil {
				t.Fatalf("failed to record %s: %v", u, err)
			}
		}

		results, err := store.QueryAll(ctx)
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(results) != len(urls) {
			t.Fatalf("expected %d results, got %d", len(urls), len(results))
		}
		for i, u := range urls {
			if results[i].URL != u {
				t.Errorf("result %d: URL = %q, want %q", i, results[i].URL, u)
			}
		}
	})

	t.Run("QuerySince filters by fetch time", func(t *testing.T) {
		t.Parallel()

		store := openTestStore(t)
		ctx := context.Background()

		old := &model.PageResult{
			URL:       "http://example.com/old",
			Status:    model.StatusSuccess,
			FetchedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		recent := &model.PageResult{
			URL:       "http://example.com/recent",
			Status:    model.StatusSuccess,
			FetchedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		}
		for _, r := range []*model.PageResult{old, recent} {
			if err := store.Record(ctx, r); err != nil {
				t.Fatalf("failed to record: %v", err)
			}
		}

		results, err := store.QuerySince(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("failed to query: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].URL != recent.URL {
			t.Errorf("expected recent URL, got %q", results[0].URL)
		}
	})
}

// TestCountByStatus tests the per-status summary.
func TestCountByStatus(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	statuses := []model.PageStatus{
		model.StatusSuccess,
		model.StatusSuccess,
		model.StatusSuccess,
		model.StatusFetchError,
		model.StatusSkipped,
	}
	for i, status := range statuses {
		result := &model.PageResult{
			URL:       "http://example.com/" + string(status) + string(rune('0'+i)),
			Status:    status,
			FetchedAt: time.Now(),
		}
		if err := store.Record(ctx, result); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}

	if counts[string(model.StatusSuccess)] != 3 {
		t.Errorf("success count = %d, want 3", counts[string(model.StatusSuccess)])
	}
	if counts[string(model.StatusFetchError)] != 1 {
		t.Errorf("fetch_error count = %d, want 1", counts[string(model.StatusFetchError)])
	}
	if counts[string(model.StatusSkipped)] != 1 {
		t.Errorf("skipped count = %d, want 1", counts[string(model.StatusSkipped)])
	}
}

// TestConcurrentRecord verifies the single-writer connection serializes
// concurrent workers correctly.
func TestConcurrentRecord(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	const writers = 10

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			result := &model.PageResult{
				URL:       "http://example.com/page-" + string(rune('a'+id)),
				Status:    model.StatusSuccess,
				FetchedAt: time.Now(),
			}
			if err := store.Record(ctx, result); err != nil {
				t.Errorf("writer %d failed: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	results, err := store.QueryAll(ctx)
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if len(results) != writers {
		t.Errorf("expected %d results, got %d", writers, len(results))
	}
}
