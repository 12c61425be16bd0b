// Package log provides logging with automatic sanitization of sensitive
// values, built on top of the standard slog package.
//
// Host configurations can carry cookies and authorization headers, and the
// crawler logs request details in verbose mode. The SanitizingHandler masks
// those attribute values before they reach the underlying handler, so a
// shared or stored log never exposes credentials.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	logger.Debug("request sent",
//	    "cookie", "session=abc123", // masked
//	    "url", "http://example.com",
//	)
//	slog.SetDefault(logger)
package log
