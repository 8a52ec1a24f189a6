// Package search aggregates results from web search providers into a
// single normalized hit list.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/solvire/fartemis/pkg/candidate"
)

// Provider is a single search engine. Query returns the provider's raw
// decoded payload; providers disagree on shape (a bare list, a map with a
// "results" key, or a single result map), so normalization happens in the
// aggregator, never downstream.
type Provider interface {
	Name() string
	Query(ctx context.Context, query string) (any, error)
}

// Aggregator fans a query out to every configured provider and merges the
// normalized hits. A single provider failing yields zero hits from that
// provider only; hits already gathered are never discarded.
type Aggregator struct {
	providers []Provider
	logger    *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

// New creates an Aggregator over the given providers.
func New(providers []Provider, opts ...Option) *Aggregator {
	a := &Aggregator{providers: providers, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Providers returns the number of configured providers.
func (a *Aggregator) Providers() int {
	return len(a.providers)
}

// Search builds the per-engine query for the target and gathers hits.
func (a *Aggregator) Search(ctx context.Context, target candidate.Target) ([]candidate.SearchHit, error) {
	return a.SearchQuery(ctx, BuildQuery(target))
}

// SearchQuery runs a raw query string through every provider. Each
// provider gets exactly one attempt per call.
func (a *Aggregator) SearchQuery(ctx context.Context, query string) ([]candidate.SearchHit, error) {
	if len(a.providers) == 0 {
		return nil, candidate.ErrNoProviders
	}

	var hits []candidate.SearchHit
	for _, p := range a.providers {
		raw, err := p.Query(ctx, query)
		if err != nil {
			a.logger.Warn("search provider failed", "provider", p.Name(), "error", err)
			continue
		}
		got := Normalize(raw, p.Name())
		a.logger.Debug("provider results", "provider", p.Name(), "hits", len(got))
		hits = append(hits, got...)
	}
	a.logger.Info("search complete", "query", query, "providers", len(a.providers), "hits", len(hits))
	return hits, nil
}

// BuildQuery constructs the engine query: quoted full name, the quoted
// company when known, and the platform keyword.
func BuildQuery(target candidate.Target) string {
	q := fmt.Sprintf("%q", target.FullName())
	if target.Company != "" {
		q += fmt.Sprintf(" %q", target.Company)
	}
	return q + " linkedin"
}

// rawHit is the superset of field names providers use for one result.
type rawHit struct {
	Title   string `mapstructure:"title"`
	URL     string `mapstructure:"url"`
	Content string `mapstructure:"content"`
	Snippet string `mapstructure:"snippet"`
}

// Normalize converts any of the tolerated provider payload shapes into
// SearchHits stamped with the provider name. Unrecognized shapes and
// entries without a URL normalize to nothing.
func Normalize(raw any, source string) []candidate.SearchHit {
	switch v := raw.(type) {
	case nil:
		return nil
	case []candidate.SearchHit:
		hits := make([]candidate.SearchHit, 0, len(v))
		for _, h := range v {
			if h.URL == "" {
				continue
			}
			h.Source = source
			hits = append(hits, h)
		}
		return hits
	case []any:
		var hits []candidate.SearchHit
		for _, item := range v {
			if hit, ok := normalizeOne(item, source); ok {
				hits = append(hits, hit)
			}
		}
		return hits
	case []map[string]any:
		var hits []candidate.SearchHit
		for _, item := range v {
			if hit, ok := normalizeOne(item, source); ok {
				hits = append(hits, hit)
			}
		}
		return hits
	case map[string]any:
		if results, ok := v["results"]; ok {
			return Normalize(results, source)
		}
		if hit, ok := normalizeOne(v, source); ok {
			return []candidate.SearchHit{hit}
		}
		return nil
	default:
		return nil
	}
}

func normalizeOne(item any, source string) (candidate.SearchHit, bool) {
	var rh rawHit
	if err := mapstructure.Decode(item, &rh); err != nil || rh.URL == "" {
		return candidate.SearchHit{}, false
	}
	snippet := rh.Content
	if snippet == "" {
		snippet = rh.Snippet
	}
	return candidate.SearchHit{
		Title:   rh.Title,
		URL:     rh.URL,
		Snippet: snippet,
		Source:  source,
	}, true
}
