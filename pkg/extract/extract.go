// Package extract pulls candidate profile links out of fetched HTML.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/linkurl"
	"github.com/solvire/fartemis/pkg/match"
)

const (
	maxContextLen = 500
	// Ancestor text is gathered until the context passes this length.
	contextTargetLen  = 50
	maxAncestorLevels = 3
)

// Profiles finds every outbound profile link in the page, builds a bounded
// context snippet for each, scores it against the target, and returns the
// links with a positive match score.
func Profiles(htmlBody, pageURL string, target candidate.Target) ([]candidate.Profile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var base *url.URL
	if pageURL != "" {
		if u, parseErr := url.Parse(pageURL); parseErr == nil && u.Host != "" {
			base = u
		}
	}

	var profiles []candidate.Profile
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		abs := resolveHref(base, href)
		if !strings.Contains(strings.ToLower(abs), "linkedin.com"+linkurl.Marker) {
			return
		}
		handle := linkurl.ExtractHandle(abs)
		if handle == "" {
			return
		}

		linkText := collapse(s.Text())
		context := buildContext(s, linkText)
		score := match.Score(abs, context, target)
		if score <= 0 {
			return
		}

		profiles = append(profiles, candidate.Profile{
			URL:            abs,
			CleanURL:       linkurl.CleanProfileURL(abs),
			Handle:         handle,
			DisplayText:    linkText,
			ContextSnippet: context,
			MatchScore:     score,
			SourceType:     candidate.SourceExtracted,
		})
	})

	return profiles, nil
}

// buildContext concatenates the link text with up to three levels of
// ancestor text, stopping early once the combined snippet is long enough
// to be useful, and capping the result at maxContextLen.
func buildContext(s *goquery.Selection, linkText string) string {
	context := linkText
	node := s
	for range maxAncestorLevels {
		if len(context) > contextTargetLen {
			break
		}
		node = node.Parent()
		if node.Length() == 0 {
			break
		}
		t := collapse(node.Text())
		if t == "" || t == context {
			continue
		}
		if context == "" {
			context = t
		} else if !strings.Contains(t, context) {
			context = context + " " + t
		} else {
			context = t
		}
	}
	if len(context) > maxContextLen {
		context = context[:maxContextLen]
	}
	return context
}

func resolveHref(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
