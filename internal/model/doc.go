// Package model defines the core data structures used throughout crawl.
//
// This package contains the following main types:
//   - PageResult: The durable record of one fetch attempt's outcome
//   - CrawlReport: The summary produced when a crawl finishes
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, database, report) need to use these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
