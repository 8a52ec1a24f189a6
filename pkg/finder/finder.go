// Package finder discovers and ranks candidate profiles for a target
// identity by driving search, prioritization, fetching, and extraction.
package finder

import (
	"context"
	"log/slog"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/extract"
	"github.com/solvire/fartemis/pkg/linkurl"
	"github.com/solvire/fartemis/pkg/match"
	"github.com/solvire/fartemis/pkg/prioritize"
)

const defaultMaxPages = 5

// Searcher gathers raw hits for a target.
type Searcher interface {
	Search(ctx context.Context, target candidate.Target) ([]candidate.SearchHit, error)
}

// Pager retrieves a page body for extraction.
type Pager interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Finder runs the discovery pipeline.
type Finder struct {
	searcher Searcher
	pager    Pager
	logger   *slog.Logger
	maxPages int
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) { f.logger = logger }
}

// WithMaxPages bounds how many prioritized pages are analyzed per run.
func WithMaxPages(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.maxPages = n
		}
	}
}

// New creates a Finder.
func New(searcher Searcher, pager Pager, opts ...Option) *Finder {
	f := &Finder{
		searcher: searcher,
		pager:    pager,
		logger:   slog.Default(),
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Discover searches for the target, walks the prioritized hits, and
// returns ranked candidate profiles. Per-page failures are logged and
// skipped; only a malformed target or a fully unconfigured search layer is
// terminal.
func (f *Finder) Discover(ctx context.Context, target candidate.Target) ([]candidate.Profile, error) {
	if !target.Valid() {
		return nil, candidate.ErrNoTarget
	}

	hits, err := f.searcher.Search(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		f.logger.Info("no search results found", "target", target.FullName())
		return nil, nil
	}

	pages := prioritize.Prioritize(hits, target)
	f.logger.Debug("prioritized pages", "hits", len(hits), "pages", len(pages))

	byURL := make(map[string]candidate.Profile)
	analyzed := 0
	for _, page := range pages {
		if analyzed >= f.maxPages {
			break
		}
		analyzed++

		if linkurl.IsProfileURL(page.URL) {
			mergeInto(byURL, profileFromHit(page.SearchHit, target))
			continue
		}

		body, err := f.pager.Fetch(ctx, page.URL)
		if err != nil {
			f.logger.Debug("skipping page", "url", page.URL, "error", err)
			continue
		}
		profiles, err := extract.Profiles(body, page.URL, target)
		if err != nil {
			f.logger.Debug("skipping unparseable page", "url", page.URL, "error", err)
			continue
		}
		for _, p := range profiles {
			mergeInto(byURL, p)
		}
	}

	results := make([]candidate.Profile, 0, len(byURL))
	for _, p := range byURL {
		results = append(results, p)
	}
	ranked := Rank(results)
	f.logger.Info("discovery complete",
		"target", target.FullName(),
		"pages_analyzed", analyzed,
		"candidates", len(ranked))
	return ranked, nil
}

// profileFromHit synthesizes a candidate from a direct profile URL without
// fetching it; the search hit's title and snippet serve as context.
func profileFromHit(hit candidate.SearchHit, target candidate.Target) candidate.Profile {
	context := hit.Title
	if hit.Snippet != "" {
		context += " " + hit.Snippet
	}
	return candidate.Profile{
		URL:            hit.URL,
		CleanURL:       linkurl.CleanProfileURL(hit.URL),
		Handle:         linkurl.ExtractHandle(hit.URL),
		DisplayText:    hit.Title,
		ContextSnippet: context,
		MatchScore:     match.Score(hit.URL, context, target),
		SourceType:     candidate.SourceDirectURL,
	}
}

func mergeInto(byURL map[string]candidate.Profile, p candidate.Profile) {
	existing, ok := byURL[p.CleanURL]
	if !ok {
		byURL[p.CleanURL] = p
		return
	}
	byURL[p.CleanURL] = Merge(existing, p)
}
