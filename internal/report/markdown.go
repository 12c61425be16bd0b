package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/crawlkit/crawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation: type-safe tables and lists, and GitHub-flavored alerts.
type MarkdownWriter struct {
	baseWriter

	// maxListedURLs bounds the visited-URL list so huge crawls don't
	// produce unreadable documents.
	maxListedURLs int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMaxListedURLs sets how many visited URLs are listed before the
// list is truncated with a count.
func WithMaxListedURLs(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		if n > 0 {
			w.maxListedURLs = n
		}
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter:    newBaseWriter(output),
		maxListedURLs: 200,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base URL", "`" + report.BaseURL + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Max Depth Reached", strconv.Itoa(report.MaxDepthReached)},
			{"Errors", strconv.Itoa(report.ErrorCount)},
			{"Duration", fmt.Sprintf("%.2fs", report.DurationSeconds)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
	w.writeVisitedURLs(md, report)

	return len(md.String()), md.Build()
}

// writeAlert writes a GitHub-flavored alert summarizing the outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.PagesCrawled == 0:
		md.Warningf("No pages were crawled. The seed URL may be unreachable.")
	case report.ErrorCount > 0:
		md.Note(fmt.Sprintf("%d of %d pages ended in an error.", report.ErrorCount, report.PagesCrawled))
	default:
		md.Tip("All pages were fetched successfully.")
	}
	md.PlainText("")
}

// writeVisitedURLs writes the visited URL list, truncated for large crawls.
func (w *MarkdownWriter) writeVisitedURLs(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Visited URLs")
	md.PlainText("")

	if len(report.VisitedURLs) == 0 {
		md.PlainText("No URLs visited.")
		md.PlainText("")
		return
	}

	urls := report.VisitedURLs
	truncated := 0
	if len(urls) > w.maxListedURLs {
		truncated = len(urls) - w.maxListedURLs
		urls = urls[:w.maxListedURLs]
	}

	md.BulletList(urls...)
	md.PlainText("")

	if truncated > 0 {
		md.PlainTextf("...and %d more.", truncated)
		md.PlainText("")
	}
}
