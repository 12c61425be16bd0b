package config

// HostConfig holds crawl overrides for a single host.
// This allows customizing behavior per site without new CLI flags.
type HostConfig struct {
	// Cookie is an HTTP cookie to send when crawling this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global max depth for this host.
	// If zero, the global MaxDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	// Patterns are matched against the URL path using glob syntax.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path patterns to follow during crawling.
	// If specified, only URLs matching these patterns are enqueued.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .crawl configuration file.
type File struct {
	// Hosts maps hostnames to their overrides.
	// Keys are bare hostnames without a scheme (e.g., "example.com").
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`

	// Defaults contains overrides applied to every host unless the host
	// has its own entry.
	Defaults HostConfig `yaml:"defaults,omitempty"`
}

// GetHostConfig returns the configuration for a specific host,
// merging the host-specific entry over the defaults.
func (cf *File) GetHostConfig(host string) HostConfig {
	result := cf.Defaults

	if hc, ok := cf.Hosts[host]; ok {
		if hc.Cookie != "" {
			result.Cookie = hc.Cookie
		}
		if hc.Depth != 0 {
			result.Depth = hc.Depth
		}
		if len(hc.Headers) > 0 {
			// Copy instead of writing into the shared defaults map.
			merged := make(map[string]string, len(result.Headers)+len(hc.Headers))
			for k, v := range result.Headers {
				merged[k] = v
			}
			for k, v := range hc.Headers {
				merged[k] = v
			}
			result.Headers = merged
		}
		if len(hc.IgnorePatterns) > 0 {
			result.IgnorePatterns = hc.IgnorePatterns
		}
		if len(hc.FollowPatterns) > 0 {
			result.FollowPatterns = hc.FollowPatterns
		}
	}

	return result
}
