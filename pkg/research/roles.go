package research

import "time"

// SizeCategory buckets a company by headcount.
type SizeCategory string

// Size categories.
const (
	SizeSmall   SizeCategory = "small"
	SizeMedium  SizeCategory = "medium"
	SizeLarge   SizeCategory = "large"
	SizeUnknown SizeCategory = "unknown"
)

// RoleTarget is a hiring-relevant role category with its search keywords
// and default influence weight (1-10).
type RoleTarget struct {
	Key       string
	Keywords  []string
	Influence int
}

// Company is the research subject.
type Company struct {
	Name             string
	EmployeeCountMin int
	EmployeeCountMax int
}

// Config is the immutable tuning for one pipeline run. Build it once with
// DefaultConfig, adjust, and pass by value; nothing mutates it afterward.
type Config struct {
	// Company-size thresholds. Hand-tuned defaults carried over from the
	// original heuristics; override per run if product says otherwise.
	SmallMaxEmployees  int
	MediumMaxEmployees int

	// Minimum similarity for the current-employer check.
	CompanyMatchThreshold float64

	Roles        map[string]RoleTarget
	RolesBySize  map[SizeCategory][]string
	RolePriority []string

	// Courtesy delay bounds between per-candidate detail fetches.
	MinFetchDelay time.Duration
	MaxFetchDelay time.Duration
}

// DefaultConfig returns the stock role tables and thresholds.
func DefaultConfig() Config {
	return Config{
		SmallMaxEmployees:     50,
		MediumMaxEmployees:    200,
		CompanyMatchThreshold: 0.80,
		Roles: map[string]RoleTarget{
			"executive": {
				Key:       "executive",
				Keywords:  []string{"ceo", "cto", "founder", "co-founder", "chief technology officer", "vp of engineering"},
				Influence: 9,
			},
			"recruiter": {
				Key:       "recruiter",
				Keywords:  []string{"recruiter", "talent acquisition", "technical recruiter", "sourcer"},
				Influence: 6,
			},
			"hiring_manager": {
				Key:       "hiring_manager",
				Keywords:  []string{"engineering manager", "hiring manager", "head of engineering", "director of engineering"},
				Influence: 7,
			},
		},
		RolesBySize: map[SizeCategory][]string{
			SizeSmall:   {"executive"},
			SizeMedium:  {"executive", "hiring_manager", "recruiter"},
			SizeLarge:   {"recruiter", "hiring_manager"},
			SizeUnknown: {"executive", "recruiter", "hiring_manager"},
		},
		RolePriority:  []string{"executive", "recruiter", "hiring_manager"},
		MinFetchDelay: time.Second,
		MaxFetchDelay: 3 * time.Second,
	}
}

// sizeCategory buckets the company using whichever headcount bound is
// known, preferring the max.
func (c Config) sizeCategory(company Company) SizeCategory {
	n := company.EmployeeCountMax
	if n == 0 {
		n = company.EmployeeCountMin
	}
	switch {
	case n == 0:
		return SizeUnknown
	case n <= c.SmallMaxEmployees:
		return SizeSmall
	case n <= c.MediumMaxEmployees:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// activeRoles resolves the role targets for a size category, in the
// configured order.
func (c Config) activeRoles(cat SizeCategory) []RoleTarget {
	keys, ok := c.RolesBySize[cat]
	if !ok {
		keys = c.RolesBySize[SizeUnknown]
	}
	roles := make([]RoleTarget, 0, len(keys))
	for _, key := range keys {
		if role, ok := c.Roles[key]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}

// mapRole picks the best-matching role for a validated title: the first
// role in priority order with a keyword contained in the title.
func (c Config) mapRole(title string) (RoleTarget, bool) {
	for _, key := range c.RolePriority {
		role, ok := c.Roles[key]
		if !ok {
			continue
		}
		if titleMatchesAny(title, role.Keywords) {
			return role, true
		}
	}
	return RoleTarget{}, false
}
