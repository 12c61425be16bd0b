package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/crawlkit/crawl/internal/config"
	"github.com/crawlkit/crawl/internal/crawler"
	"github.com/crawlkit/crawl/internal/database"
	"github.com/crawlkit/crawl/internal/log"
	"github.com/crawlkit/crawl/internal/model"
	"github.com/crawlkit/crawl/internal/report"
)

// NewRootCmd creates the root command for crawl.
// Unlike tools with a dedicated run subcommand, the root command itself
// performs the crawl so the common case stays short: crawl <base_url>.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <base_url>",
		Short: "Bounded concurrent web crawler",
		Long: `crawl fetches a seed URL and follows same-host links breadth-first,
bounded by a maximum depth and a total page budget. Every processed page
is recorded in a local SQLite database, and a crawl report is printed
when the crawl finishes.

Examples:
  # Crawl with defaults (depth 3, 100 pages, 5 workers)
  crawl https://example.com

  # Shallow crawl with a small budget
  crawl https://example.com --max-depth 1 --max-pages 10

  # Polite crawl of a site you do not own
  crawl https://example.com --delay 500ms --num-threads 2

  # Markdown report written to a file
  crawl https://example.com --markdown --output report.md

Configuration file (.crawl) example:
  hosts:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 5
      ignorePatterns:
        - "/logout*"`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runCrawlCmd,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Crawl bounds
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum link distance from the seed URL (0 = seed only)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum total number of pages to process")
	cmd.Flags().IntP("num-threads", "n", config.DefaultNumWorkers,
		"Number of concurrent fetch workers")

	// Fetch behavior
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request HTTP timeout")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay each worker waits between requests")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Bool("allow-external-hosts", false,
		"Follow links to hosts other than the seed's")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .crawl in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Directory for the results database (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report instead of JSON")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Observability
	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics at this address for the crawl's duration (e.g., :9090)")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Subcommands
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runCrawlCmd executes the crawl.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if len(args) > 0 {
		cfg.BaseURL = args[0]
	}

	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.NumWorkers, err = cmd.Flags().GetInt("num-threads")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.AllowExternalHosts, err = cmd.Flags().GetBool("allow-external-hosts")
	if err != nil {
		return nil, err
	}

	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load host-specific configurations from the config file.
	// If the user explicitly specified a path, a missing file is an error.
	// Otherwise, a missing file silently yields an empty config.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.HostConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.HostConfigs = &config.File{
			Hosts: make(map[string]config.HostConfig),
		}
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.MetricsAddr, err = cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runCrawl opens the store, runs the crawl, and outputs the report.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Info("database opened", "path", store.Path())

	// Serve Prometheus metrics while the crawl runs, if requested.
	var metrics *crawler.Metrics
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metrics = crawler.NewMetrics()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if srvErr := metricsSrv.ListenAndServe(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", srvErr)
			}
		}()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			_ = metricsSrv.Shutdown(shutdownCtx) //nolint:errcheck // Best effort cleanup
		}()
	}

	coordinator, err := newCoordinator(cfg, store, logger, metrics)
	if err != nil {
		return err
	}

	crawlReport, err := coordinator.Run(ctx, cfg.BaseURL)
	if err != nil {
		return err
	}

	return outputReport(cfg, crawlReport, stdout)
}

// newCoordinator builds a Coordinator from the configuration, applying
// host-specific overrides for the seed host. The metrics argument may be
// nil, in which case no collectors are attached.
func newCoordinator(cfg *config.Config, store crawler.Store, logger *slog.Logger, metrics *crawler.Metrics) (*crawler.Coordinator, error) {
	seed, err := crawler.ParseSeedURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	var hostCfg config.HostConfig
	if cfg.HostConfigs != nil {
		hostCfg = cfg.HostConfigs.GetHostConfig(seed.Hostname())
	}

	// Host-specific depth overrides the global flag.
	maxDepth := cfg.MaxDepth
	if hostCfg.Depth > 0 {
		maxDepth = hostCfg.Depth
	}

	client := &http.Client{Timeout: cfg.Timeout}

	opts := []crawler.CoordinatorOption{
		crawler.WithMaxDepth(maxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithNumWorkers(cfg.NumWorkers),
		crawler.WithCrawlDelay(cfg.CrawlDelay),
		crawler.WithCoordinatorUserAgent(cfg.UserAgent),
		crawler.WithCoordinatorMaxBodySize(cfg.MaxBodySize),
		crawler.WithCoordinatorAllowExternalHosts(cfg.AllowExternalHosts),
		crawler.WithLogger(logger),
	}

	if hostCfg.Cookie != "" {
		opts = append(opts, crawler.WithCoordinatorCookie(hostCfg.Cookie))
	}
	if len(hostCfg.Headers) > 0 {
		opts = append(opts, crawler.WithCoordinatorHeaders(hostCfg.Headers))
	}
	if len(hostCfg.IgnorePatterns) > 0 {
		opts = append(opts, crawler.WithCoordinatorIgnorePatterns(hostCfg.IgnorePatterns))
	}
	if len(hostCfg.FollowPatterns) > 0 {
		opts = append(opts, crawler.WithCoordinatorFollowPatterns(hostCfg.FollowPatterns))
	}
	if metrics != nil {
		opts = append(opts, crawler.WithMetrics(metrics))
	}

	return crawler.NewCoordinator(client, store, opts...), nil
}

// outputReport writes the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// 0600: reports can list URLs carrying session tokens in query strings.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	if cfg.MarkdownReport {
		writer = report.NewMarkdownWriter(output)
	} else {
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	}

	_, err := writer.Write(crawlReport)
	return err
}
