package research

import "strings"

// Legal-entity suffixes stripped before comparing company names, so
// "Acme Inc." and "Acme" compare equal.
var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"ltd":          true,
	"limited":      true,
	"llc":          true,
	"llp":          true,
	"plc":          true,
	"gmbh":         true,
	"co":           true,
	"company":      true,
	"holdings":     true,
}

// NormalizeCompanyName lowercases a company name, drops trailing
// legal-entity suffixes, and strips everything but letters and digits.
func NormalizeCompanyName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for len(fields) > 1 && legalSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, "")
}

// CompanyMatches reports whether a profile's stated employer is close
// enough to the target company after normalization.
func (c Config) CompanyMatches(got, want string) bool {
	a, b := NormalizeCompanyName(got), NormalizeCompanyName(want)
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return Ratio(a, b) >= c.CompanyMatchThreshold
}

// Ratio is a similarity measure in [0, 1]: twice the total matching
// characters over the combined length, with matches found by repeatedly
// taking the longest common substring on each side of a match.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return 2 * float64(matchingChars(a, b)) / float64(len(a)+len(b))
}

func matchingChars(a, b string) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return matchingChars(a[:ai], b[:bi]) + size + matchingChars(a[ai+size:], b[bi+size:])
}

func longestCommonBlock(a, b string) (ai, bi, size int) {
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
