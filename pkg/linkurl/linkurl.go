// Package linkurl canonicalizes profile URLs and extracts stable handles.
package linkurl

import (
	"net/url"
	"strings"
)

// Marker is the path fragment that identifies a profile URL.
const Marker = "/in/"

// CanonicalBase is the prefix used when rebuilding a clean profile URL.
const CanonicalBase = "https://www.linkedin.com/in/"

// ExtractHandle returns the path segment immediately following the profile
// marker, stripped of query string, fragment, and trailing slash. Returns
// "" when the marker is absent or the segment is empty.
func ExtractHandle(rawURL string) string {
	_, rest, ok := strings.Cut(rawURL, Marker)
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}

// CleanProfileURL rebuilds the canonical form of a profile URL from its
// handle. Input is returned unchanged when no handle can be extracted, so
// the function is idempotent on already-clean URLs and a no-op elsewhere.
func CleanProfileURL(rawURL string) string {
	handle := ExtractHandle(rawURL)
	if handle == "" {
		return rawURL
	}
	return CanonicalBase + handle
}

// IsProfileURL reports whether the URL carries a non-empty profile handle.
func IsProfileURL(rawURL string) bool {
	return ExtractHandle(rawURL) != ""
}

// Normalize produces a stable comparison form for arbitrary URLs: scheme
// defaulted to https, host lowercased, query/fragment dropped, trailing
// slash trimmed. Profile URLs are further canonicalized via their handle.
func Normalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if IsProfileURL(rawURL) {
		return CleanProfileURL(rawURL)
	}
	withScheme := rawURL
	if !strings.Contains(withScheme, "://") {
		withScheme = "https://" + withScheme
	}
	u, err := url.Parse(withScheme)
	if err != nil || u.Host == "" {
		return rawURL
	}
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}
