// Package candidate defines the common types for profile discovery.
package candidate

import (
	"errors"
	"strings"
)

// Common errors returned by discovery and persistence packages.
var (
	ErrNoTarget            = errors.New("target identity missing first or last name")
	ErrNoProviders         = errors.New("no search providers configured")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrAuthRequired        = errors.New("authentication required")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrValidationRejected  = errors.New("candidate failed validation")
	ErrPersistenceConflict = errors.New("persistence conflict")
)

// Target is the query subject for one discovery run. Immutable once built.
type Target struct {
	FirstName string
	LastName  string
	Company   string
}

// FullName returns "First Last" with whatever parts are present.
func (t Target) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Valid reports whether the target has both name parts.
func (t Target) Valid() bool {
	return strings.TrimSpace(t.FirstName) != "" && strings.TrimSpace(t.LastName) != ""
}

// SearchHit is one raw result from a search provider.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// PrioritizedPage is a search hit scored for fetch ordering.
// Every additive contribution to Priority is tagged in Reasons.
type PrioritizedPage struct {
	SearchHit

	Priority float64  `json:"priority"`
	Reasons  []string `json:"reasons"`
}

// SourceType records how a candidate profile was discovered.
type SourceType string

// Discovery source constants.
const (
	SourceDirectURL SourceType = "direct_url"
	SourceExtracted SourceType = "extracted"
)

// Profile is a discovered candidate profile. CleanURL is the dedup key:
// two profiles with the same CleanURL are merged, keeping the higher
// MatchScore and unioning non-empty fields.
type Profile struct {
	URL            string     `json:"url"`
	CleanURL       string     `json:"clean_url"`
	Handle         string     `json:"handle,omitempty"`
	DisplayText    string     `json:"display_text,omitempty"`
	ContextSnippet string     `json:"context_snippet,omitempty"`
	ProfileSummary string     `json:"profile_summary,omitempty"`
	URN            string     `json:"urn,omitempty"`
	MatchScore     float64    `json:"match_score"`
	Confidence     int        `json:"confidence"`
	SourceType     SourceType `json:"source_type"`
}

// IsDirect reports whether the profile came straight from a search result URL.
func (p Profile) IsDirect() bool {
	return p.SourceType == SourceDirectURL
}

// Employee is a validated, deduplicated discovery result bound for the
// record store.
type Employee struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	JobTitle    string  `json:"job_title,omitempty"`
	CompanyName string  `json:"company_name"`
	LinkedInURL string  `json:"linkedin_url,omitempty"`
	LinkedInURN string  `json:"linkedin_urn,omitempty"`
	Email       string  `json:"email,omitempty"`
	MappedRole  string  `json:"mapped_role,omitempty"`
	Influence   int     `json:"influence"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source,omitempty"`
}

// NameKey returns the lowercased "first|last" identity key used as the
// last-resort dedup key.
func (e Employee) NameKey() string {
	return strings.ToLower(strings.TrimSpace(e.FirstName)) + "|" + strings.ToLower(strings.TrimSpace(e.LastName))
}
