package prioritize

import (
	"strings"
	"testing"

	"github.com/solvire/fartemis/pkg/candidate"
)

func hit(url, title, snippet string) candidate.SearchHit {
	return candidate.SearchHit{Title: title, URL: url, Snippet: snippet, Source: "test"}
}

func TestPrioritizeOrdering(t *testing.T) {
	target := candidate.Target{FirstName: "John", LastName: "Smith", Company: "Acme"}

	hits := []candidate.SearchHit{
		hit("https://linkedin.com/pub/dir/smith", "directory", "people named smith"),
		hit("https://linkedin.com/in/john-smith", "John Smith - Acme", "John Smith works at Acme"),
		hit("https://example.com/blog", "unrelated", "nothing here"),
	}

	pages := Prioritize(hits, target)
	if len(pages) == 0 {
		t.Fatal("expected prioritized pages, got none")
	}
	if pages[0].URL != "https://linkedin.com/in/john-smith" {
		t.Errorf("expected direct profile hit first, got %q", pages[0].URL)
	}
	// Direct URL with full name+company alignment must outrank a bare
	// domain match.
	var direct, domainOnly float64
	for _, p := range pages {
		switch p.URL {
		case "https://linkedin.com/in/john-smith":
			direct = p.Priority
		case "https://linkedin.com/pub/dir/smith":
			domainOnly = p.Priority
		}
	}
	if direct <= domainOnly {
		t.Errorf("direct profile priority %v not above domain-only %v", direct, domainOnly)
	}
}

func TestPrioritizeExcludesMalformedURLs(t *testing.T) {
	target := candidate.Target{FirstName: "John", LastName: "Smith"}
	hits := []candidate.SearchHit{
		hit("://not-a-url", "broken", ""),
		hit("https://", "no host", ""),
		hit("https://linkedin.com/in/john-smith", "John Smith", ""),
	}
	pages := Prioritize(hits, target)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].URL != "https://linkedin.com/in/john-smith" {
		t.Errorf("unexpected survivor %q", pages[0].URL)
	}
}

func TestPrioritizeStableForTies(t *testing.T) {
	target := candidate.Target{FirstName: "John", LastName: "Smith"}
	// Ranks 0 and 3 tie exactly: 200 + 75*0.85 + 5.0 == 200 + 75*0.9 + 1.25.
	// The earlier hit must stay ahead of the later one.
	hits := []candidate.SearchHit{
		hit("https://x.com/in/john-s", "", ""),
		hit("https://example.com/filler-one", "", "page"),
		hit("https://example.com/filler-two", "", "page"),
		hit("https://x.com/in/johnsmith", "", ""),
	}
	pages := Prioritize(hits, target)
	if len(pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(pages))
	}
	if pages[0].Priority != pages[1].Priority {
		t.Fatalf("expected a tie, got %v and %v", pages[0].Priority, pages[1].Priority)
	}
	if pages[0].URL != "https://x.com/in/john-s" || pages[1].URL != "https://x.com/in/johnsmith" {
		t.Errorf("stable sort violated: got %q then %q", pages[0].URL, pages[1].URL)
	}
}

func TestPrioritizeReasonsTagEveryContribution(t *testing.T) {
	target := candidate.Target{FirstName: "Olivia", LastName: "Melman", Company: "DigitalOcean"}
	hits := []candidate.SearchHit{
		hit("https://www.linkedin.com/in/olivia-melman", "Olivia Melman - DigitalOcean | LinkedIn Profile", "Olivia Melman works at DigitalOcean"),
	}
	pages := Prioritize(hits, target)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	p := pages[0]
	wantReasons := []string{
		"platform domain",
		"direct profile URL",
		"name match in URL",
		"company in title/snippet",
		"full name in title/snippet",
		"profile terms",
		"search rank",
	}
	for _, want := range wantReasons {
		found := false
		for _, r := range p.Reasons {
			if strings.Contains(r, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing reason %q in %v", want, p.Reasons)
		}
	}
	// 50 + 200 + 75*1.0 + 100 + 30 + 5 + 5 = 465
	if p.Priority != 465 {
		t.Errorf("priority = %v, want 465", p.Priority)
	}
}

func TestPrioritizeCompanyInURL(t *testing.T) {
	target := candidate.Target{FirstName: "John", LastName: "Smith", Company: "Digital Ocean"}
	hits := []candidate.SearchHit{
		hit("https://www.digitalocean.com/about/team", "Team", "our people"),
	}
	pages := Prioritize(hits, target)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	found := false
	for _, r := range pages[0].Reasons {
		if r == "company in URL" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected company-in-URL reason, got %v", pages[0].Reasons)
	}
}
