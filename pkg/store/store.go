// Package store persists discovered people, their contact methods, source
// links, and company associations behind a narrow record-store interface.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// StatusToContact is the default relationship status for new associations.
const StatusToContact = "to_contact"

// PersonID identifies a person record.
type PersonID int64

// Person is the identity record created on first sight of a candidate.
type Person struct {
	FirstName   string
	LastName    string
	LinkedInURL string
	LinkedInURN string
	Email       string
}

// PersonKey carries the identifiers used to locate an existing person, in
// lookup priority order: URN, then URL, then name as a last resort.
type PersonKey struct {
	URN       string
	URL       string
	FirstName string
	LastName  string
}

// Association holds the company-association defaults written on upsert.
// Status is only applied on creation; an existing non-default status is
// never clobbered.
type Association struct {
	JobTitle  string
	Role      string
	Influence int
	Status    string
}

// Store is the record-store contract the pipeline persists through.
// FindOrCreatePerson reports whether it created the record; all other
// writes are idempotent upserts keyed by natural identity.
type Store interface {
	FindOrCreatePerson(ctx context.Context, key PersonKey, create Person) (PersonID, bool, error)
	GetPerson(ctx context.Context, id PersonID) (Person, error)
	UpsertContactMethod(ctx context.Context, id PersonID, kind, value string) error
	UpsertSourceLink(ctx context.Context, id PersonID, url, title string, relevance float64) error
	UpsertCompanyAssociation(ctx context.Context, id PersonID, company string, defaults Association) error
}

// PlaceholderEmail synthesizes a collision-resistant contact address for a
// person with no known email. The .invalid TLD guarantees it can never be
// delivered to.
func PlaceholderEmail(first, last, company string) string {
	short := uuid.NewString()[:8]
	return emailSlug(first) + "." + emailSlug(last) + "." + emailSlug(company) + "." + short + "@placeholder.invalid"
}

func emailSlug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}
