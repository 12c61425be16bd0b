// Package report provides output formatting for crawl reports.
//
// Two formats are supported:
//   - JSON (default): for tool integration and scripting
//   - Markdown: for documentation and sharing
//
// All writers implement the Writer interface so the CLI can select a
// format without caring about the destination.
package report
