package research

import (
	"regexp"
	"strings"

	"github.com/solvire/fartemis/pkg/candidate"
)

// Search snippets often carry "Jane Doe - VP of Engineering at Acme" or
// "Jane Doe, Recruiter at Acme" even when the hit itself is not a profile
// page. These patterns pull the name/title pairs back out.
var snippetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][a-z]+(?: [A-Z][a-z]+)+)\s*[-|–]\s*([A-Za-z][A-Za-z ,&/]+)`),
	regexp.MustCompile(`([A-Z][a-z]+(?: [A-Z][a-z]+)+),\s+([A-Za-z][A-Za-z /]+?)\s+at\s+`),
}

// Fragments that match the name shape but never are one.
var nameStoplist = map[string]bool{
	"linkedin":     true,
	"sign in":      true,
	"view profile": true,
	"see more":     true,
	"learn more":   true,
}

// EmployeesFromSnippet scans free text for name/title pairs and returns
// them as low-confidence employee candidates.
func EmployeesFromSnippet(text, company string) []candidate.Employee {
	var out []candidate.Employee
	for _, pat := range snippetPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			title := strings.TrimSpace(strings.Trim(m[2], " ,"))
			if !plausibleName(name) || title == "" {
				continue
			}
			first, last, ok := splitName(name)
			if !ok {
				continue
			}
			out = append(out, candidate.Employee{
				FirstName:   first,
				LastName:    last,
				JobTitle:    title,
				CompanyName: company,
				Confidence:  0.5,
				Source:      "search_snippet",
			})
		}
	}
	return out
}

func plausibleName(name string) bool {
	if nameStoplist[strings.ToLower(name)] {
		return false
	}
	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if len(w) < 2 {
			return false
		}
	}
	return true
}

func splitName(name string) (first, last string, ok bool) {
	words := strings.Fields(name)
	if len(words) < 2 {
		return "", "", false
	}
	return words[0], words[len(words)-1], true
}

func titleMatchesAny(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
