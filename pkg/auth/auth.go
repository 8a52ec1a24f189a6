// Package auth provides LinkedIn session cookies from multiple sources:
// explicit values, environment variables, and browser cookie stores.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
)

// cookieDomain is the domain whose cookies we collect.
const cookieDomain = "linkedin.com"

// essentialCookies are the session cookies the Voyager API requires.
var essentialCookies = []string{"li_at", "JSESSIONID", "lidc", "bcookie"}

// envVars maps environment variable names to cookie names.
var envVars = map[string]string{
	"LINKEDIN_LI_AT":      "li_at",
	"LINKEDIN_JSESSIONID": "JSESSIONID",
	"LINKEDIN_LIDC":       "lidc",
	"LINKEDIN_BCOOKIE":    "bcookie",
}

// Source provides session cookies. A source that has nothing to offer
// returns an empty map and no error.
type Source interface {
	Cookies(ctx context.Context) (map[string]string, error)
}

// ChainSources returns a Source that tries each source in order and
// returns the first non-empty cookie set.
func ChainSources(sources ...Source) Source {
	return &chainSource{sources: sources}
}

type chainSource struct {
	sources []Source
}

func (c *chainSource) Cookies(ctx context.Context) (map[string]string, error) {
	for _, s := range c.sources {
		cookies, err := s.Cookies(ctx)
		if err != nil {
			continue
		}
		if len(cookies) > 0 {
			return cookies, nil
		}
	}
	return nil, nil //nolint:nilnil // empty chain result is not an error
}

// StaticSource provides cookies from a fixed map, for tests and for
// cookies passed in via options.
type StaticSource struct {
	cookies map[string]string
}

// NewStaticSource creates a cookie source from a static map.
func NewStaticSource(cookies map[string]string) *StaticSource {
	return &StaticSource{cookies: cookies}
}

// Cookies returns a copy of the static cookies.
func (s *StaticSource) Cookies(context.Context) (map[string]string, error) {
	if len(s.cookies) == 0 {
		return nil, nil //nolint:nilnil // empty static source is not an error
	}
	out := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		out[k] = v
	}
	return out, nil
}

// EnvSource reads cookies from LINKEDIN_* environment variables.
type EnvSource struct{}

// Cookies returns whatever session cookies the environment carries.
func (EnvSource) Cookies(context.Context) (map[string]string, error) {
	cookies := make(map[string]string)
	for envVar, name := range envVars {
		if value := os.Getenv(envVar); value != "" {
			cookies[name] = value
		}
	}
	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // no env vars set is not an error
	}
	return cookies, nil
}

// EnvVarNames returns the environment variable names consulted by
// EnvSource, for help output.
func EnvVarNames() []string {
	names := make([]string, 0, len(envVars))
	for name := range envVars {
		names = append(names, name)
	}
	return names
}

// NewCookieJar builds an http.CookieJar holding the given cookies for the
// LinkedIn domain.
func NewCookieJar(cookies map[string]string) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	u := &url.URL{Scheme: "https", Host: "www." + cookieDomain}
	list := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		list = append(list, &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: "." + cookieDomain,
			Path:   "/",
		})
	}
	jar.SetCookies(u, list)
	return jar, nil
}
