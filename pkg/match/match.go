// Package match scores candidate profile URLs and contexts against a
// target identity.
package match

import (
	"math"
	"strings"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/linkurl"
)

// MaxScore is the ceiling of the composite match score.
const MaxScore = 24.0

// Weights for the composite score.
const (
	nameURLWeight  = 10.0
	firstInContext = 3.0
	lastInContext  = 3.0
	companyWeight  = 8.0
)

// Score computes a weighted match between the target and a URL/context
// pair. The result is in [0, MaxScore] and is identical whether the
// context comes from a search snippet or from in-page link surroundings.
func Score(rawURL, context string, target candidate.Target) float64 {
	score := NameMatchInURL(rawURL, target.FirstName, target.LastName) * nameURLWeight

	lc := strings.ToLower(context)
	if first := strings.ToLower(strings.TrimSpace(target.FirstName)); first != "" && strings.Contains(lc, first) {
		score += firstInContext
	}
	if last := strings.ToLower(strings.TrimSpace(target.LastName)); last != "" && strings.Contains(lc, last) {
		score += lastInContext
	}
	if company := strings.ToLower(strings.TrimSpace(target.Company)); company != "" && strings.Contains(lc, company) {
		score += companyWeight
	}

	return math.Min(score, MaxScore)
}

// Confidence converts a match score to a 0-100 percentage.
func Confidence(score float64) int {
	return int(math.Round(math.Min(1.0, score/MaxScore) * 100))
}

// NameMatchInURL returns a tiered similarity between the target name and
// the handle embedded in the URL. The cascade runs most-specific first and
// returns exactly one of {0, 0.4, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0}.
func NameMatchInURL(rawURL, firstName, lastName string) float64 {
	handle := strings.ToLower(linkurl.ExtractHandle(rawURL))
	if handle == "" {
		return 0
	}

	first := foldName(firstName)
	last := foldName(lastName)
	if first == "" && last == "" {
		return 0
	}
	if first == "" || last == "" {
		if strings.Contains(handle, first+last) {
			return 0.4
		}
		return 0
	}

	h := trimVanitySuffix(handle)
	fi := first[:1]
	li := last[:1]

	switch {
	case h == first+"-"+last:
		return 1.0
	case h == last+"-"+first:
		return 0.95
	case h == first+last || h == last+first || h == "iam"+first+last:
		return 0.9
	case h == first+"-"+li || h == fi+"-"+last || h == first+li || h == fi+last:
		return 0.85
	case h == first+"."+last || h == last+"."+first || h == first+"_"+last || h == last+"_"+first:
		return 0.8
	}

	hasFirst := strings.Contains(h, first)
	hasLast := strings.Contains(h, last)
	switch {
	case hasFirst && hasLast:
		if flat := stripSeparators(h); flat == first+last || flat == last+first {
			return 0.75
		}
		return 0.65
	case hasFirst || hasLast:
		return 0.4
	}
	return 0
}

// foldName lowercases a name part and drops everything that cannot appear
// in a handle (spaces, apostrophes, accents are kept as-is by LinkedIn's
// transliteration, so only ASCII cleanup happens here).
func foldName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '.':
			return -1
		}
		return r
	}, s)
}

// trimVanitySuffix removes trailing auto-generated ID groups such as
// "-5b03b34" or "-12345" that LinkedIn appends to non-unique handles.
func trimVanitySuffix(h string) string {
	for {
		i := strings.LastIndexByte(h, '-')
		if i <= 0 {
			return h
		}
		tail := h[i+1:]
		if tail == "" {
			h = h[:i]
			continue
		}
		if isDigits(tail) || (len(tail) >= 5 && isHex(tail) && hasDigit(tail)) {
			h = h[:i]
			continue
		}
		return h
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return s != ""
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
