// Package fetcher retrieves web pages with a browser identity and error
// containment suitable for scraping search results.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/solvire/fartemis/pkg/httpcache"
)

// ErrNotHTML is returned when a response body is not an HTML document.
var ErrNotHTML = errors.New("response is not html")

const defaultTimeout = 12 * time.Second

// Fetcher fetches pages through the shared HTTP cache.
type Fetcher struct {
	client *http.Client
	cache  httpcache.Cacher
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithCache sets the HTTP cache.
func WithCache(cache httpcache.Cacher) Option {
	return func(f *Fetcher) { f.cache = cache }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// New creates a page fetcher. Redirects are followed by the default client.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves a URL and returns its HTML body. Network failures,
// timeouts, and non-HTML responses are converted to errors the caller is
// expected to log and skip; nothing propagates as a panic. Pages that look
// like a bot block or login wall are still returned, with a warning, so the
// caller decides whether to use them.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	setBrowserHeaders(req)

	body, err := httpcache.FetchURLWithValidator(ctx, f.cache, f.client, req, f.logger, func(b []byte) bool {
		// Block walls are transient; keep them out of the cache.
		return !LooksBlocked(string(b))
	})
	if err != nil {
		f.logger.Debug("page fetch failed", "url", rawURL, "error", err)
		return "", err
	}

	text := string(body)
	if !isHTML(text) {
		f.logger.Debug("skipping non-html response", "url", rawURL)
		return "", fmt.Errorf("%w: %s", ErrNotHTML, rawURL)
	}
	if LooksBlocked(text) {
		f.logger.Warn("page looks like a bot block or login wall", "url", rawURL)
	}
	return text, nil
}

// LooksBlocked detects likely captcha or login-wall pages.
func LooksBlocked(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "captcha") || strings.Contains(lower, "sign in")
}

// isHTML sniffs the body rather than trusting the Content-Type header,
// which aggregator and redirect pages frequently misreport.
func isHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "<") {
		return true
	}
	ct := http.DetectContentType([]byte(trimmed))
	return strings.HasPrefix(ct, "text/html")
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", httpcache.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
