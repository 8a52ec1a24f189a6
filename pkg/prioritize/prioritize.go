// Package prioritize orders raw search hits before expensive page fetches.
package prioritize

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/linkurl"
	"github.com/solvire/fartemis/pkg/match"
)

// Signal weights. Each contribution is independent and tagged in Reasons.
const (
	domainBonus      = 50.0
	directURLBonus   = 200.0
	nameInURLWeight  = 75.0
	companyInURL     = 70.0
	companyInText    = 100.0
	bothNamesInText  = 30.0
	oneNameInText    = 10.0
	profileTermBonus = 5.0
	rankDecayWeight  = 5.0
)

const platformDomain = "linkedin.com"

var profileTerms = []string{"profile", "professional", "connect"}

// Prioritize scores every hit against the target and returns the keepers
// sorted by priority descending. Malformed URLs are excluded, hits scoring
// at or below zero are dropped, and ties retain input order.
func Prioritize(hits []candidate.SearchHit, target candidate.Target) []candidate.PrioritizedPage {
	total := len(hits)
	pages := make([]candidate.PrioritizedPage, 0, total)
	for rank, hit := range hits {
		page, ok := scoreHit(hit, rank, total, target)
		if !ok || page.Priority <= 0 {
			continue
		}
		pages = append(pages, page)
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Priority > pages[j].Priority
	})
	return pages
}

func scoreHit(hit candidate.SearchHit, rank, total int, target candidate.Target) (candidate.PrioritizedPage, bool) {
	withScheme := hit.URL
	if !strings.Contains(withScheme, "://") {
		withScheme = "https://" + withScheme
	}
	u, err := url.Parse(withScheme)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return candidate.PrioritizedPage{}, false
	}

	page := candidate.PrioritizedPage{SearchHit: hit}
	add := func(points float64, reason string) {
		page.Priority += points
		page.Reasons = append(page.Reasons, reason)
	}

	host := strings.ToLower(u.Host)
	if host == platformDomain || strings.HasSuffix(host, "."+platformDomain) {
		add(domainBonus, "platform domain")
	}

	if strings.Contains(u.Path, linkurl.Marker) {
		add(directURLBonus, "direct profile URL")
		if nm := match.NameMatchInURL(hit.URL, target.FirstName, target.LastName); nm > 0 {
			add(nameInURLWeight*nm, fmt.Sprintf("name match in URL (%.2f)", nm))
		}
	}

	text := strings.ToLower(hit.Title + " " + hit.Snippet)
	if company := strings.ToLower(strings.TrimSpace(target.Company)); company != "" {
		squashed := squash(company)
		if squashed != "" && strings.Contains(squash(strings.ToLower(hit.URL)), squashed) {
			add(companyInURL, "company in URL")
		}
		if strings.Contains(text, company) {
			add(companyInText, "company in title/snippet")
		}
	}

	firstIn := containsWord(text, target.FirstName)
	lastIn := containsWord(text, target.LastName)
	switch {
	case firstIn && lastIn:
		add(bothNamesInText, "full name in title/snippet")
	case firstIn || lastIn:
		add(oneNameInText, "partial name in title/snippet")
	}

	for _, term := range profileTerms {
		if strings.Contains(text, term) {
			add(profileTermBonus, "profile terms")
			break
		}
	}

	if total > 0 {
		decay := rankDecayWeight * float64(total-rank) / float64(total)
		if decay > 0 {
			add(decay, fmt.Sprintf("search rank %d", rank))
		}
	}

	return page, true
}

func containsWord(haystack, word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	return word != "" && strings.Contains(haystack, word)
}

// squash strips spaces and dashes so "Digital Ocean" matches
// "digitalocean.com" style URLs.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}
