package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solvire/fartemis/pkg/httpcache"
)

func newTestFetcher(srv *httptest.Server) *Fetcher {
	return New(WithHTTPClient(srv.Client()), WithCache(httpcache.NewNull()))
}

func TestFetchReturnsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		w.Write([]byte("<html><body>team page</body></html>")) //nolint:errcheck // test server
	}))
	defer srv.Close()

	body, err := newTestFetcher(srv).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if body == "" {
		t.Error("expected body, got empty string")
	}
}

func TestFetchRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a}) //nolint:errcheck // test server
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotHTML) {
		t.Errorf("expected ErrNotHTML, got %v", err)
	}
}

func TestFetchConvertsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv).Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestFetchReturnsBlockedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body>Please sign in to continue</body></html>")) //nolint:errcheck // test server
	}))
	defer srv.Close()

	body, err := newTestFetcher(srv).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !LooksBlocked(body) {
		t.Error("expected blocked-page detection")
	}
}

func TestLooksBlocked(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"captcha", "<html>solve this CAPTCHA</html>", true},
		{"sign in wall", "<html>Sign in to view</html>", true},
		{"normal page", "<html>about our team</html>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksBlocked(tt.body); got != tt.want {
				t.Errorf("LooksBlocked(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
