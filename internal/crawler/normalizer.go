package crawler

import (
	"net/url"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultNormalizerCacheSize bounds the normalization cache. The same raw
// link text (nav bars, footers) repeats on nearly every page of a site, so
// a few thousand entries cover typical crawls.
const defaultNormalizerCacheSize = 4096

// skippedExtensions are URL path suffixes that are never crawled.
// These are binary formats that cannot contain followable links.
var skippedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".gif"}

// Normalizer canonicalizes raw link strings into comparable absolute URLs
// and applies the crawl's accept policy. Two links that differ only by
// trailing slash, fragment, or default port normalize identically, which
// is what makes frontier deduplication correct.
//
// Normalize is a pure function of its inputs; the LRU cache only memoizes
// results and never changes them, so the Normalizer is safe for concurrent
// use by all workers.
type Normalizer struct {
	// base is the seed URL; links to other hosts are rejected unless
	// allowExternalHosts is set.
	base *url.URL

	// allowExternalHosts permits following links across hosts.
	allowExternalHosts bool

	// ignorePatterns are glob patterns for URL paths to reject.
	ignorePatterns []string

	// followPatterns, when non-empty, restrict accepted URLs to paths
	// matching at least one pattern.
	followPatterns []string

	// cache memoizes normalization outcomes keyed by (source URL, raw link).
	cache *lru.Cache[string, normOutcome]
}

// normOutcome is a cached normalization result.
type normOutcome struct {
	url string
	ok  bool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithAllowExternalHosts permits links to hosts other than the seed's.
func WithAllowExternalHosts(allow bool) NormalizerOption {
	return func(n *Normalizer) {
		n.allowExternalHosts = allow
	}
}

// WithIgnorePatterns sets URL path patterns to reject.
// Patterns use glob syntax (e.g., "/admin/*", "*.zip").
func WithIgnorePatterns(patterns []string) NormalizerOption {
	return func(n *Normalizer) {
		n.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to accept.
// If set, only URLs matching at least one pattern are accepted.
// Empty means all URLs are allowed (subject to ignore patterns).
func WithFollowPatterns(patterns []string) NormalizerOption {
	return func(n *Normalizer) {
		n.followPatterns = patterns
	}
}

// NewNormalizer creates a Normalizer anchored at the given seed URL.
func NewNormalizer(base *url.URL, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{base: base}

	for _, opt := range opts {
		opt(n)
	}

	// lru.New only fails for non-positive sizes.
	cache, err := lru.New[string, normOutcome](defaultNormalizerCacheSize)
	if err == nil {
		n.cache = cache
	}

	return n
}

// Base returns the seed URL this Normalizer is anchored at.
func (n *Normalizer) Base() *url.URL {
	return n.base
}

// Normalize canonicalizes rawLink, resolving it against the URL of the page
// it was found on. A nil source resolves against the seed URL. It returns
// the canonical absolute URL and true, or "" and false when the link is
// rejected (malformed, non-HTTP(S), fragment-only, skipped extension,
// off-host, or excluded by patterns).
//
// Normalize is idempotent: feeding its output back in returns the same URL.
func (n *Normalizer) Normalize(rawLink string, source *url.URL) (string, bool) {
	if source == nil {
		source = n.base
	}

	key := source.String() + "\x00" + rawLink
	if n.cache != nil {
		if out, ok := n.cache.Get(key); ok {
			return out.url, out.ok
		}
	}

	normalized, ok := n.normalize(rawLink, source)

	if n.cache != nil {
		n.cache.Add(key, normOutcome{url: normalized, ok: ok})
	}
	return normalized, ok
}

// normalize performs the uncached canonicalization.
func (n *Normalizer) normalize(rawLink string, source *url.URL) (string, bool) {
	rawLink = strings.TrimSpace(rawLink)
	if rawLink == "" || strings.HasPrefix(rawLink, "#") {
		return "", false
	}

	// Schemes that can never yield a crawlable page.
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(rawLink, prefix) {
			return "", false
		}
	}

	u, err := url.Parse(rawLink)
	if err != nil {
		return "", false
	}
	resolved := source.ResolveReference(u)

	resolved.Scheme = strings.ToLower(resolved.Scheme)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host == "" {
		return "", false
	}

	// Fragments never change the fetched content.
	resolved.Fragment = ""
	resolved.RawFragment = ""

	resolved.Host = strings.ToLower(resolved.Host)
	resolved.Host = dropDefaultPort(resolved.Scheme, resolved.Host)

	// Empty path and "/" address the same resource, as do "/page" and
	// "/page/". The root path keeps its slash.
	if resolved.Path == "" {
		resolved.Path = "/"
	} else if resolved.Path != "/" {
		resolved.Path = strings.TrimRight(resolved.Path, "/")
		if resolved.Path == "" {
			resolved.Path = "/"
		}
		resolved.RawPath = ""
	}

	lowerPath := strings.ToLower(resolved.Path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return "", false
		}
	}

	if !n.allowExternalHosts && !strings.EqualFold(resolved.Host, n.base.Host) {
		return "", false
	}

	if !n.pathAllowed(resolved.Path) {
		return "", false
	}

	return resolved.String(), true
}

// dropDefaultPort removes an explicit port that matches the scheme default.
func dropDefaultPort(scheme, host string) string {
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		return strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

// pathAllowed checks a URL path against the ignore/follow patterns.
//
// Logic:
//  1. If the path matches any ignore pattern, reject it
//  2. If follow patterns are set and the path matches none, reject it
//  3. Otherwise, accept it
func (n *Normalizer) pathAllowed(path string) bool {
	if path == "" {
		path = "/"
	}

	for _, pattern := range n.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(n.followPatterns) > 0 {
		for _, pattern := range n.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use * for any sequence of non-separator characters and
// ? for a single character.
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users"
//   - "*.zip" matches "/downloads/file.zip"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	// "/admin/*" should match the whole subtree, not one segment.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Extension patterns like "*.zip" match anywhere in the path.
	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Also try the last path segment for patterns without a separator.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
