package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crawlkit/crawl/internal/model"
)

// storedTimeFormat is how fetch timestamps are written to the database.
// Timestamps are stored in UTC so query comparisons are unambiguous.
const storedTimeFormat = "2006-01-02 15:04:05"

// PageStore is the append-only SQLite log of page results.
// Concurrent Record calls from all workers are serialized on a single
// writer connection, which is how SQLite wants to be written to anyway.
type PageStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures PageStore behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a PageStore at the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned; the history command uses this to avoid creating an empty
// database just to report that nothing was crawled.
func Open(dbDir string, opts Options) (*PageStore, error) {
	dbPath := filepath.Join(dbDir, "crawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; funneling every Record through a
	// single connection serializes concurrent workers without extra locks.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &PageStore{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *PageStore) Close() error {
	return s.db.Close()
}

// Path returns the path of the database file.
func (s *PageStore) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *PageStore) createTables() error {
	schema := `
	-- One row per fetch attempt, append-only.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		status TEXT NOT NULL,
		http_status INTEGER,
		error_message TEXT,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_status ON pages(status);
	CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Record appends one page result. Safe for concurrent callers.
func (s *PageStore) Record(ctx context.Context, result *model.PageResult) error {
	query := `
	INSERT INTO pages (url, depth, status, http_status, error_message, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	fetchedAt := result.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		result.URL,
		result.Depth,
		string(result.Status),
		result.HTTPStatus,
		result.ErrorMessage,
		fetchedAt.UTC().Format(storedTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to record page result: %w", err)
	}

	return nil
}

// QueryAll returns every stored page result in completion order.
func (s *PageStore) QueryAll(ctx context.Context) ([]model.PageResult, error) {
	return s.query(ctx, `
	SELECT url, depth, status, http_status, error_message, fetched_at
	FROM pages
	ORDER BY id
	`)
}

// QuerySince returns page results recorded at or after the given time,
// in completion order.
func (s *PageStore) QuerySince(ctx context.Context, since time.Time) ([]model.PageResult, error) {
	return s.query(ctx, `
	SELECT url, depth, status, http_status, error_message, fetched_at
	FROM pages
	WHERE fetched_at >= ?
	ORDER BY id
	`, since.UTC().Format(storedTimeFormat))
}

// query runs a SELECT over the pages table and scans the rows.
func (s *PageStore) query(ctx context.Context, query string, args ...any) ([]model.PageResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var results []model.PageResult
	for rows.Next() {
		var r model.PageResult
		var status string
		var httpStatus sql.NullInt64
		var errorMessage sql.NullString
		var fetchedAt string

		if err := rows.Scan(&r.URL, &r.Depth, &status, &httpStatus, &errorMessage, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}

		r.Status = model.PageStatus(status)
		if httpStatus.Valid {
			r.HTTPStatus = int(httpStatus.Int64)
		}
		if errorMessage.Valid {
			r.ErrorMessage = errorMessage.String
		}
		r.FetchedAt = parseTimestamp(fetchedAt)

		results = append(results, r)
	}

	return results, rows.Err()
}

// CountByStatus returns how many stored pages ended in each status.
func (s *PageStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT status, COUNT(*) FROM pages GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimeFormat,          // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
