package auth

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register all browser cookie stores
	"github.com/browserutils/kooky/browser/firefox"
)

// BrowserSource reads LinkedIn session cookies from local browser stores.
type BrowserSource struct {
	logger *slog.Logger
}

// NewBrowserSource creates a browser cookie source.
func NewBrowserSource(logger *slog.Logger) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{logger: logger}
}

// Cookies returns session cookies found in browser stores, Firefox
// profiles first, then kooky's automatic browser detection.
func (s *BrowserSource) Cookies(ctx context.Context) (map[string]string, error) {
	if cookies := s.tryFirefoxProfiles(ctx); len(cookies) > 0 {
		return cookies, nil
	}

	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(cookieDomain))
	if err != nil {
		s.logger.Debug("failed to read browser cookies", "error", err)
		return nil, nil //nolint:nilnil // failed browser read is not a fatal error
	}
	if len(kookies) == 0 {
		return nil, nil //nolint:nilnil // no browser cookies is not an error
	}
	return filterEssential(kookies, s.logger), nil
}

func (s *BrowserSource) tryFirefoxProfiles(ctx context.Context) map[string]string {
	home := os.Getenv("HOME")
	if home == "" {
		return nil
	}
	pattern := filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles", "*", "cookies.sqlite")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil
	}
	for _, f := range matches {
		kookies, err := firefox.ReadCookies(ctx, f, kooky.Valid, kooky.DomainHasSuffix(cookieDomain))
		if err == nil && len(kookies) > 0 {
			s.logger.Debug("found Firefox cookies",
				"profile", filepath.Base(filepath.Dir(f)),
				"count", len(kookies))
			return filterEssential(kookies, s.logger)
		}
	}
	return nil
}

func filterEssential(kookies []*kooky.Cookie, logger *slog.Logger) map[string]string {
	wanted := make(map[string]bool, len(essentialCookies))
	for _, name := range essentialCookies {
		wanted[name] = true
	}
	cookies := make(map[string]string)
	for _, c := range kookies {
		if wanted[c.Name] {
			cookies[c.Name] = c.Value
			logger.Debug("found essential cookie", "name", c.Name, "len", len(c.Value))
		}
	}
	return cookies
}
