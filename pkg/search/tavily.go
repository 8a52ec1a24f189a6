package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/httpcache"
)

const defaultTavilyURL = "https://api.tavily.com/search"

// Tavily queries the Tavily search API.
type Tavily struct {
	apiKey     string
	endpoint   string
	client     *http.Client
	cache      httpcache.Cacher
	logger     *slog.Logger
	maxResults int
}

// TavilyOption configures a Tavily provider.
type TavilyOption func(*Tavily)

// WithTavilyLogger sets the logger.
func WithTavilyLogger(logger *slog.Logger) TavilyOption {
	return func(t *Tavily) { t.logger = logger }
}

// WithTavilyEndpoint overrides the API endpoint. Used by tests.
func WithTavilyEndpoint(endpoint string) TavilyOption {
	return func(t *Tavily) { t.endpoint = endpoint }
}

// WithTavilyHTTPClient overrides the HTTP client.
func WithTavilyHTTPClient(client *http.Client) TavilyOption {
	return func(t *Tavily) { t.client = client }
}

// NewTavily creates a Tavily provider. Returns ErrProviderUnavailable when
// no API key can be found; callers skip the engine and continue.
func NewTavily(cache httpcache.Cacher, opts ...TavilyOption) (*Tavily, error) {
	key := LoadTavilyAPIKey()
	if key == "" {
		return nil, fmt.Errorf("tavily: %w", candidate.ErrProviderUnavailable)
	}
	t := &Tavily{
		apiKey:     key,
		endpoint:   defaultTavilyURL,
		client:     &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
		logger:     slog.Default(),
		maxResults: 10,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// LoadTavilyAPIKey reads the API key from TAVILY_API_KEY, falling back to
// the first line of ~/.tavily.
func LoadTavilyAPIKey() string {
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		return key
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(home, ".tavily"))
	if err != nil {
		return ""
	}
	key, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
	return strings.TrimSpace(key)
}

// Name implements Provider.
func (*Tavily) Name() string { return "tavily" }

// Query implements Provider. The decoded response map is returned as-is;
// shape normalization is the aggregator's job.
func (t *Tavily) Query(ctx context.Context, query string) (any, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		return t.doQuery(ctx, query)
	}

	var body []byte
	var err error
	if t.cache != nil {
		body, err = t.cache.GetSet(ctx, "tavily:"+httpcache.URLToKey(query), fetch, t.cache.TTL())
	} else {
		body, err = fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}
	return decoded, nil
}

func (t *Tavily) doQuery(ctx context.Context, query string) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"api_key":      t.apiKey,
		"query":        query,
		"search_depth": "basic",
		"max_results":  t.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encode tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // intentional

	if resp.StatusCode != http.StatusOK {
		return nil, &httpcache.HTTPError{StatusCode: resp.StatusCode, URL: t.endpoint}
	}
	return io.ReadAll(resp.Body)
}
