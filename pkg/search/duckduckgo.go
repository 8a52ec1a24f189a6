package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/solvire/fartemis/pkg/httpcache"
)

const defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the no-JavaScript DuckDuckGo results page. It needs
// no credential, which makes it the always-available fallback engine.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
	cache    httpcache.Cacher
	logger   *slog.Logger
}

// DuckDuckGoOption configures a DuckDuckGo provider.
type DuckDuckGoOption func(*DuckDuckGo)

// WithDuckDuckGoLogger sets the logger.
func WithDuckDuckGoLogger(logger *slog.Logger) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.logger = logger }
}

// WithDuckDuckGoEndpoint overrides the results page URL. Used by tests.
func WithDuckDuckGoEndpoint(endpoint string) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.endpoint = endpoint }
}

// WithDuckDuckGoHTTPClient overrides the HTTP client.
func WithDuckDuckGoHTTPClient(client *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.client = client }
}

// NewDuckDuckGo creates a DuckDuckGo provider.
func NewDuckDuckGo(cache httpcache.Cacher, opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		endpoint: defaultDuckDuckGoURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		cache:    cache,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements Provider.
func (*DuckDuckGo) Name() string { return "duckduckgo" }

// Query implements Provider, returning a list of result maps.
func (d *DuckDuckGo) Query(ctx context.Context, query string) (any, error) {
	pageURL := d.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build duckduckgo request: %w", err)
	}
	req.Header.Set("User-Agent", httpcache.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	body, err := httpcache.FetchURL(ctx, d.cache, d.client, req, d.logger)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	return parseDuckDuckGoResults(string(body))
}

func parseDuckDuckGoResults(body string) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo results: %w", err)
	}

	var results []map[string]any
	doc.Find("div.result").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		results = append(results, map[string]any{
			"title":   strings.TrimSpace(link.Text()),
			"url":     decodeDuckDuckGoRedirect(href),
			"snippet": strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
	})
	return results, nil
}

// decodeDuckDuckGoRedirect unwraps the /l/?uddg= redirect DuckDuckGo puts
// around result links.
func decodeDuckDuckGoRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	withScheme := href
	if strings.HasPrefix(withScheme, "//") {
		withScheme = "https:" + withScheme
	}
	u, err := url.Parse(withScheme)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
