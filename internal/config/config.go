package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Timeout, page budget, depth, and worker count follow the original
// crawler's defaults; body and delay limits follow common politeness
// practice for small crawls.
const (
	// DefaultMaxDepth limits how many link hops the crawl follows from
	// the seed. Depth 0 fetches only the seed page.
	DefaultMaxDepth = 3

	// DefaultMaxPages caps the total number of pages processed.
	// This prevents runaway crawling on large or infinitely-generating sites.
	DefaultMaxPages = 100

	// DefaultNumWorkers is the number of concurrent fetch workers.
	DefaultNumWorkers = 5

	// DefaultTimeout is the per-request HTTP timeout. 10 seconds is
	// generous for clearnet sites without letting a dead host stall a
	// worker for long.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for HTML pages while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultCrawlDelay is the delay each worker waits between requests.
	// Zero by default; raise it when crawling servers you do not own.
	DefaultCrawlDelay = 0 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests.
	// A descriptive User-Agent lets operators identify crawler traffic.
	DefaultUserAgent = "crawl/1.0 (+https://github.com/crawlkit/crawl)"

	// DefaultPopWait bounds how long a worker blocks on an empty frontier
	// before re-checking the drain condition.
	DefaultPopWait = 25 * time.Millisecond

	// AppName is the application name used for XDG directory paths.
	AppName = "crawl"
)

// Config holds all configuration options for a crawl.
// It is populated from CLI flags and the optional config file, validated
// once, and passed through the application via dependency injection.
type Config struct {
	// BaseURL is the seed URL the crawl starts from.
	BaseURL string

	// MaxDepth is the maximum link distance from the seed.
	// Depth 0 means only the seed page is fetched.
	MaxDepth int

	// MaxPages is the maximum number of pages to process.
	MaxPages int

	// NumWorkers is the number of concurrent fetch workers.
	NumWorkers int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this fail with a too-large error.
	MaxBodySize int64

	// CrawlDelay is the delay each worker waits between requests.
	// This is a politeness setting; zero disables it.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// AllowExternalHosts permits following links to hosts other than the
	// seed's. The default is same-host-only crawling.
	AllowExternalHosts bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .crawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// HostConfigs holds per-host overrides loaded from the config file.
	HostConfigs *File

	// MarkdownReport switches the report output from JSON (default) to
	// GitHub-flavored Markdown.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite results database.
	// Defaults to the XDG data directory.
	DBDir string

	// MetricsAddr, when non-empty, is the listen address for a Prometheus
	// /metrics endpoint served for the duration of the crawl.
	MetricsAddr string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero (timeout, budgets,
// worker count). This also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		MaxPages:    DefaultMaxPages,
		NumWorkers:  DefaultNumWorkers,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		CrawlDelay:  DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for crawl.
// On Linux: ~/.local/share/crawl
// On macOS: ~/Library/Application Support/crawl
// On Windows: %LOCALAPPDATA%\crawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for crawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found; fixing one error often makes the
// rest irrelevant, so we do not collect them.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoSeedURL
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.NumWorkers <= 0 {
		return ErrInvalidNumWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	return nil
}
