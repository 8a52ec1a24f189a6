// Package voyager fetches LinkedIn profile details through the Voyager
// API using authenticated session cookies.
package voyager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/solvire/fartemis/pkg/auth"
	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/httpcache"
	"github.com/solvire/fartemis/pkg/linkurl"
)

const (
	apiBase        = "https://www.linkedin.com/voyager/api"
	requestTimeout = 10 * time.Second
)

// Experience is one position entry, most recent first.
type Experience struct {
	CompanyName string `json:"company_name"`
	Title       string `json:"title"`
	Current     bool   `json:"current"`
}

// ProfileDetail is the subset of a Voyager profile the pipeline validates
// against.
type ProfileDetail struct {
	FirstName        string       `json:"first_name"`
	LastName         string       `json:"last_name"`
	Headline         string       `json:"headline,omitempty"`
	PublicIdentifier string       `json:"public_identifier,omitempty"`
	EntityURN        string       `json:"entity_urn,omitempty"`
	Experience       []Experience `json:"experience,omitempty"`
}

// Client talks to the Voyager API.
type Client struct {
	client  *http.Client
	cache   httpcache.Cacher
	logger  *slog.Logger
	cookies map[string]string
	source  auth.Source
	base    string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCache sets the HTTP cache.
func WithCache(cache httpcache.Cacher) Option {
	return func(c *Client) { c.cache = cache }
}

// WithCookies provides session cookies directly, ahead of the env and
// browser sources.
func WithCookies(cookies map[string]string) Option {
	return func(c *Client) { c.source = auth.ChainSources(auth.NewStaticSource(cookies), c.source) }
}

// WithBaseURL overrides the API base. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = base }
}

// New creates a Client, resolving cookies through the source chain
// (explicit > environment > browser). Returns ErrAuthRequired when no
// session cookie can be found anywhere.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{
		logger: slog.Default(),
		base:   apiBase,
	}
	c.source = auth.ChainSources(auth.EnvSource{}, auth.NewBrowserSource(c.logger))
	for _, opt := range opts {
		opt(c)
	}

	cookies, err := c.source.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve cookies: %w", err)
	}
	if cookies["li_at"] == "" {
		return nil, fmt.Errorf("no li_at session cookie: %w", candidate.ErrAuthRequired)
	}
	c.cookies = cookies

	jar, err := auth.NewCookieJar(cookies)
	if err != nil {
		return nil, err
	}
	c.client = &http.Client{
		Timeout: requestTimeout,
		Jar:     jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	c.logger.Debug("voyager client ready", "cookies", len(cookies))
	return c, nil
}

// GetProfile fetches the profile for a public identifier, profile URL, or
// URN and returns the parsed detail record.
func (c *Client) GetProfile(ctx context.Context, handleOrURN string) (*ProfileDetail, error) {
	id := normalizeIdentifier(handleOrURN)
	if id == "" {
		return nil, fmt.Errorf("empty profile identifier: %w", candidate.ErrProfileNotFound)
	}

	endpoint := fmt.Sprintf("%s/identity/profiles/%s/profileView", c.base, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build voyager request: %w", err)
	}
	c.setHeaders(req)

	body, err := httpcache.FetchURL(ctx, c.cache, c.client, req, c.logger)
	if err != nil {
		var httpErr *httpcache.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusNotFound:
				return nil, fmt.Errorf("%s: %w", id, candidate.ErrProfileNotFound)
			case http.StatusForbidden, http.StatusUnauthorized:
				return nil, fmt.Errorf("%s: %w", id, candidate.ErrAuthRequired)
			case http.StatusTooManyRequests:
				return nil, fmt.Errorf("%s: voyager rate limited", id)
			}
		}
		return nil, err
	}

	detail, err := parseProfileView(body)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	c.logger.Debug("fetched profile detail",
		"id", id,
		"name", detail.FirstName+" "+detail.LastName,
		"positions", len(detail.Experience))
	return detail, nil
}

// normalizeIdentifier accepts a bare handle, a profile URL, or an URN and
// returns the path segment Voyager expects.
func normalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if handle := linkurl.ExtractHandle(s); handle != "" {
		return handle
	}
	if i := strings.LastIndex(s, ":"); strings.HasPrefix(s, "urn:li:") && i >= 0 {
		return s[i+1:]
	}
	return strings.Trim(s, "/")
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", httpcache.UserAgent)
	req.Header.Set("Accept", "application/vnd.linkedin.normalized+json+2.1")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	// The CSRF token is the JSESSIONID value without its surrounding quotes.
	if sid := c.cookies["JSESSIONID"]; sid != "" {
		req.Header.Set("Csrf-Token", strings.Trim(sid, `"`))
	}
}
