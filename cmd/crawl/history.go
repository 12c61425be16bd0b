package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/crawlkit/crawl/internal/config"
	"github.com/crawlkit/crawl/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously crawled pages from the local database",
		Long: `History lists pages recorded by earlier crawls, newest last,
along with a per-status summary.

Examples:
  # Show the last 20 recorded pages
  crawl history

  # Show the last 100 recorded pages
  crawl history --limit 100`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 20,
		"Maximum number of pages to list (0 = all)")
	cmd.Flags().String("db-dir", "",
		"Directory for the results database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Don't create an empty database just to report nothing was crawled.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	store, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no crawl history available: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	results, err := store.QueryAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to query crawl history: %w", err)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to count crawl history: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl history recorded yet.")
		return nil
	}

	listed := results
	if limit > 0 && len(listed) > limit {
		listed = listed[len(listed)-limit:]
	}

	rows := make([][]string, 0, len(listed))
	for _, r := range listed {
		httpStatus := "-"
		if r.HTTPStatus != 0 {
			httpStatus = strconv.Itoa(r.HTTPStatus)
		}
		rows = append(rows, []string{
			r.FetchedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Depth),
			string(r.Status),
			httpStatus,
			r.URL,
		})
	}

	md := markdown.NewMarkdown(cmd.OutOrStdout())
	md.H1("Crawl History")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Fetched At", "Depth", "Status", "HTTP", "URL"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(listed) < len(results) {
		md.PlainTextf("Showing the last %d of %d recorded pages.", len(listed), len(results))
		md.PlainText("")
	}

	md.H2("Totals")
	md.PlainText("")
	md.BulletList(formatStatusCounts(counts)...)
	md.PlainText("")

	return md.Build()
}

// formatStatusCounts renders status counts as stable, sorted list items.
func formatStatusCounts(counts map[string]int) []string {
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	items := make([]string, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, fmt.Sprintf("%s: %d", status, counts[status]))
	}
	return items
}
