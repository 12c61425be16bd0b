// Package main provides the entry point for the crawl CLI.
//
// crawl is a bounded concurrent web crawler. Starting from a seed URL it
// follows same-host links up to a configurable depth and page budget,
// records every fetched page in a local SQLite database, and prints a
// crawl report.
//
// Usage:
//
//	crawl <base_url>
//	crawl https://example.com --max-depth 2 --max-pages 50
//
// See --help for all available options.
package main

// main is the entry point for crawl.
func main() {
	Execute()
}
