// Command fartemis finds people on LinkedIn.
//
// Usage:
//
//	fartemis -first Olivia -last Melman -company DigitalOcean
//	fartemis -research -company DigitalOcean -employees 150
//
// Tavily search needs TAVILY_API_KEY (or ~/.tavily); without it the
// DuckDuckGo HTML engine is used alone. Research mode enriches results
// through the LinkedIn API when LINKEDIN_LI_AT or browser cookies are
// available.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/fetcher"
	"github.com/solvire/fartemis/pkg/finder"
	"github.com/solvire/fartemis/pkg/httpcache"
	"github.com/solvire/fartemis/pkg/research"
	"github.com/solvire/fartemis/pkg/search"
	"github.com/solvire/fartemis/pkg/store"
	"github.com/solvire/fartemis/pkg/voyager"
)

func main() {
	first := flag.String("first", "", "target first name")
	last := flag.String("last", "", "target last name")
	company := flag.String("company", "", "target company name")
	employees := flag.Int("employees", 0, "estimated company headcount (research mode)")
	maxPages := flag.Int("max-pages", 5, "maximum result pages to analyze")
	engines := flag.String("engines", "tavily,duckduckgo", "comma-separated search engines")
	researchMode := flag.Bool("research", false, "discover hiring-relevant employees of -company instead of one person")
	dsn := flag.String("db", "", "postgres DSN for persisting research results (default: in-memory dry run)")
	noCache := flag.Bool("no-cache", false, "disable HTTP caching (enabled by default with 7-day TTL)")
	cacheDir := flag.String("cache-dir", "", "cache directory (default: ~/.cache/fartemis)")
	cacheTTL := flag.Duration("cache-ttl", 7*24*time.Hour, "cache time-to-live")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Local .env files carry API keys during development; missing is fine.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cache := buildCache(*noCache, *cacheTTL, *cacheDir, logger)
	providers := buildProviders(*engines, cache, logger)
	agg := search.New(providers, search.WithLogger(logger))

	ctx := context.Background()

	if *researchMode {
		if err := runResearch(ctx, agg, *company, *employees, *dsn, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	target := candidate.Target{FirstName: *first, LastName: *last, Company: *company}
	if !target.Valid() {
		fmt.Fprintln(os.Stderr, "Usage: fartemis -first <name> -last <name> [-company <name>]")
		fmt.Fprintln(os.Stderr, "       fartemis -research -company <name> [-employees <n>]")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	pages := fetcher.New(fetcher.WithLogger(logger), fetcher.WithCache(cache))
	f := finder.New(agg, pages, finder.WithLogger(logger), finder.WithMaxPages(*maxPages))
	profiles, err := f.Discover(ctx, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := outputJSON(profiles); err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		os.Exit(1)
	}
}

func runResearch(ctx context.Context, agg *search.Aggregator, company string, employees int, dsn string, logger *slog.Logger) error {
	if strings.TrimSpace(company) == "" {
		return errors.New("research mode requires -company")
	}

	opts := []research.Option{research.WithLogger(logger)}

	if client, err := voyager.New(ctx, voyager.WithLogger(logger)); err != nil {
		logger.Warn("profile enrichment unavailable, validating from search metadata", "error", err)
	} else {
		opts = append(opts, research.WithDetailProvider(client))
	}

	if dsn != "" {
		pg, err := store.Open(ctx, dsn, store.WithPostgresLogger(logger))
		if err != nil {
			return err
		}
		defer pg.Close()
		opts = append(opts, research.WithStore(pg))
	} else {
		logger.Info("no -db given, running against an in-memory store")
		opts = append(opts, research.WithStore(store.NewMemory()))
	}

	pipeline := research.New(agg, opts...)
	report, err := pipeline.Run(ctx, research.Company{Name: company, EmployeeCountMax: employees})
	if err != nil {
		return err
	}
	return outputJSON(report)
}

func buildCache(noCache bool, ttl time.Duration, dir string, logger *slog.Logger) *httpcache.Cache {
	if noCache {
		return httpcache.NewNull()
	}
	var cache *httpcache.Cache
	var err error
	if dir != "" {
		cache, err = httpcache.NewWithPath(ttl, dir)
	} else {
		cache, err = httpcache.New(ttl)
	}
	if err != nil {
		logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		return httpcache.NewNull()
	}
	logger.Debug("HTTP cache initialized", "ttl", ttl.String())
	return cache
}

func buildProviders(engines string, cache *httpcache.Cache, logger *slog.Logger) []search.Provider {
	var providers []search.Provider
	for _, name := range strings.Split(engines, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "tavily":
			t, err := search.NewTavily(cache, search.WithTavilyLogger(logger))
			if err != nil {
				logger.Warn("tavily unavailable", "error", err)
				continue
			}
			providers = append(providers, t)
		case "duckduckgo", "ddg":
			providers = append(providers, search.NewDuckDuckGo(cache, search.WithDuckDuckGoLogger(logger)))
		case "":
		default:
			logger.Warn("unknown search engine", "engine", name)
		}
	}
	return providers
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
