package voyager

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// profileViewResponse mirrors the slice of the Voyager profileView payload
// this package consumes.
type profileViewResponse struct {
	Profile struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Headline    string `json:"headline"`
		MiniProfile struct {
			PublicIdentifier string `json:"publicIdentifier"`
			EntityUrn        string `json:"entityUrn"`
		} `json:"miniProfile"`
	} `json:"profile"`
	PositionView struct {
		Elements []struct {
			CompanyName string `json:"companyName"`
			Title       string `json:"title"`
			TimePeriod  struct {
				EndDate *struct {
					Year  int `json:"year"`
					Month int `json:"month"`
				} `json:"endDate"`
			} `json:"timePeriod"`
		} `json:"elements"`
	} `json:"positionView"`
}

// fieldRule is one attempt at extracting a field from the raw payload.
// Rules run in priority order and short-circuit on first success.
type fieldRule struct {
	name string
	fn   func(body string) string
}

var urnRules = []fieldRule{
	{"fs_profile urn", regexExtractor(`"urn:li:fs_profile:([^"]+)"`, "urn:li:fs_profile:")},
	{"fsd_profile urn", regexExtractor(`urn:li:fsd_profile:(ACoA[^"&,\\]+)`, "urn:li:fsd_profile:")},
}

var firstNameRules = []fieldRule{
	{"firstName field", regexExtractor(`"firstName"\s*:\s*"([^"]+)"`, "")},
}

var lastNameRules = []fieldRule{
	{"lastName field", regexExtractor(`"lastName"\s*:\s*"([^"]+)"`, "")},
}

func regexExtractor(pattern, prefix string) func(string) string {
	re := regexp.MustCompile(pattern)
	return func(body string) string {
		if m := re.FindStringSubmatch(body); len(m) > 1 {
			return prefix + m[1]
		}
		return ""
	}
}

func applyRules(body string, rules []fieldRule) string {
	for _, r := range rules {
		if v := r.fn(body); v != "" {
			return v
		}
	}
	return ""
}

// parseProfileView decodes a profileView payload. Structured decoding runs
// first; missing fields fall back to the regex rule cascades, so a partial
// payload yields a partial record rather than an error. Only a body with
// no recognizable profile at all fails.
func parseProfileView(body []byte) (*ProfileDetail, error) {
	text := string(body)
	if looksLikeErrorPage(text) {
		return nil, fmt.Errorf("voyager returned an error page")
	}

	var resp profileViewResponse
	// Decode errors are tolerated; the rule cascade covers the gaps.
	_ = json.Unmarshal(body, &resp) //nolint:errcheck // fallback rules below

	detail := &ProfileDetail{
		FirstName:        resp.Profile.FirstName,
		LastName:         resp.Profile.LastName,
		Headline:         resp.Profile.Headline,
		PublicIdentifier: resp.Profile.MiniProfile.PublicIdentifier,
		EntityURN:        resp.Profile.MiniProfile.EntityUrn,
	}
	if detail.FirstName == "" {
		detail.FirstName = applyRules(text, firstNameRules)
	}
	if detail.LastName == "" {
		detail.LastName = applyRules(text, lastNameRules)
	}
	if detail.EntityURN == "" {
		detail.EntityURN = applyRules(text, urnRules)
	}

	for _, el := range resp.PositionView.Elements {
		if el.CompanyName == "" && el.Title == "" {
			continue
		}
		detail.Experience = append(detail.Experience, Experience{
			CompanyName: el.CompanyName,
			Title:       el.Title,
			Current:     el.TimePeriod.EndDate == nil,
		})
	}

	if detail.FirstName == "" && detail.LastName == "" && detail.EntityURN == "" {
		return nil, fmt.Errorf("no profile fields in response")
	}
	return detail, nil
}

func looksLikeErrorPage(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range []string{"csrf check failed", "\"status\":401", "\"status\":403", "page not found"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
