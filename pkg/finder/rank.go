package finder

import (
	"sort"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/match"
)

// Merge combines two profiles sharing a clean URL. The higher-scoring
// profile wins; non-empty fields from the loser fill the winner's gaps. A
// populated field is never overwritten by an empty one.
func Merge(a, b candidate.Profile) candidate.Profile {
	winner, loser := a, b
	if b.MatchScore > a.MatchScore {
		winner, loser = b, a
	}
	if winner.Handle == "" {
		winner.Handle = loser.Handle
	}
	if winner.DisplayText == "" {
		winner.DisplayText = loser.DisplayText
	}
	if winner.ContextSnippet == "" {
		winner.ContextSnippet = loser.ContextSnippet
	}
	if winner.ProfileSummary == "" {
		winner.ProfileSummary = loser.ProfileSummary
	}
	if winner.URN == "" {
		winner.URN = loser.URN
	}
	// A direct sighting is sticky: once either record came straight from a
	// search result URL, the merged record did too.
	if loser.SourceType == candidate.SourceDirectURL {
		winner.SourceType = candidate.SourceDirectURL
	}
	return winner
}

// Rank deduplicates candidates by clean URL and sorts them by
// (match score, direct URL, shorter URL) descending. Confidence is filled
// in as a 0-100 percentage. Running Rank on its own output is a no-op.
func Rank(candidates []candidate.Profile) []candidate.Profile {
	byURL := make(map[string]candidate.Profile, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		key := c.CleanURL
		if key == "" {
			key = c.URL
		}
		if existing, ok := byURL[key]; ok {
			byURL[key] = Merge(existing, c)
			continue
		}
		byURL[key] = c
		order = append(order, key)
	}

	out := make([]candidate.Profile, 0, len(order))
	for _, key := range order {
		p := byURL[key]
		p.Confidence = match.Confidence(p.MatchScore)
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.IsDirect() != b.IsDirect() {
			return a.IsDirect()
		}
		return len(a.URL) < len(b.URL)
	})
	return out
}
