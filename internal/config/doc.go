// Package config holds the crawl configuration.
//
// Configuration is assembled from three sources, in increasing precedence:
//  1. Package defaults (the Default* constants)
//  2. An optional YAML configuration file (.crawl) with per-host overrides
//  3. CLI flags
//
// Design decision: The Config struct is populated once by the CLI layer and
// passed through the application by dependency injection. There is no global
// configuration state.
package config
