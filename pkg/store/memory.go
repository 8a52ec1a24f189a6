package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/solvire/fartemis/pkg/linkurl"
)

// Memory is an in-memory Store used for dry runs and tests.
type Memory struct {
	mu           sync.Mutex
	nextID       PersonID
	people       map[PersonID]Person
	contacts     map[PersonID]map[string]string
	sourceLinks  map[PersonID]map[string]sourceLink
	associations map[string]Association
}

type sourceLink struct {
	title     string
	relevance float64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID:       1,
		people:       make(map[PersonID]Person),
		contacts:     make(map[PersonID]map[string]string),
		sourceLinks:  make(map[PersonID]map[string]sourceLink),
		associations: make(map[string]Association),
	}
}

// FindOrCreatePerson implements Store with the URN > URL > name lookup
// priority.
func (m *Memory) FindOrCreatePerson(_ context.Context, key PersonKey, create Person) (PersonID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.lookup(key); ok {
		return id, false, nil
	}
	id := m.nextID
	m.nextID++
	m.people[id] = create
	return id, true, nil
}

func (m *Memory) lookup(key PersonKey) (PersonID, bool) {
	if key.URN != "" {
		for id, p := range m.people {
			if p.LinkedInURN == key.URN {
				return id, true
			}
		}
	}
	if key.URL != "" {
		want := linkurl.Normalize(key.URL)
		for id, p := range m.people {
			if p.LinkedInURL != "" && linkurl.Normalize(p.LinkedInURL) == want {
				return id, true
			}
		}
	}
	if key.FirstName != "" && key.LastName != "" {
		for id, p := range m.people {
			if strings.EqualFold(p.FirstName, key.FirstName) && strings.EqualFold(p.LastName, key.LastName) {
				return id, true
			}
		}
	}
	return 0, false
}

// GetPerson implements Store.
func (m *Memory) GetPerson(_ context.Context, id PersonID) (Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.people[id]
	if !ok {
		return Person{}, ErrNotFound
	}
	return p, nil
}

// UpsertContactMethod implements Store.
func (m *Memory) UpsertContactMethod(_ context.Context, id PersonID, kind, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[id]; !ok {
		return fmt.Errorf("person %d: %w", id, ErrNotFound)
	}
	if m.contacts[id] == nil {
		m.contacts[id] = make(map[string]string)
	}
	m.contacts[id][kind] = value
	return nil
}

// UpsertSourceLink implements Store.
func (m *Memory) UpsertSourceLink(_ context.Context, id PersonID, url, title string, relevance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[id]; !ok {
		return fmt.Errorf("person %d: %w", id, ErrNotFound)
	}
	if m.sourceLinks[id] == nil {
		m.sourceLinks[id] = make(map[string]sourceLink)
	}
	m.sourceLinks[id][linkurl.Normalize(url)] = sourceLink{title: title, relevance: relevance}
	return nil
}

// UpsertCompanyAssociation implements Store. The stored status survives
// the upsert; defaults.Status only applies on first creation.
func (m *Memory) UpsertCompanyAssociation(_ context.Context, id PersonID, company string, defaults Association) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[id]; !ok {
		return fmt.Errorf("person %d: %w", id, ErrNotFound)
	}
	key := assocKey(id, company)
	if existing, ok := m.associations[key]; ok {
		existing.JobTitle = defaults.JobTitle
		existing.Role = defaults.Role
		existing.Influence = defaults.Influence
		m.associations[key] = existing
		return nil
	}
	if defaults.Status == "" {
		defaults.Status = StatusToContact
	}
	m.associations[key] = defaults
	return nil
}

// SetAssociationStatus records a relationship-status change the way a
// CRM workflow would.
func (m *Memory) SetAssociationStatus(id PersonID, company, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assocKey(id, company)
	if a, ok := m.associations[key]; ok {
		a.Status = status
		m.associations[key] = a
	}
}

// Association returns the stored association for tests and reports.
func (m *Memory) Association(id PersonID, company string) (Association, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.associations[assocKey(id, company)]
	return a, ok
}

// ContactMethod returns a stored contact value for tests and reports.
func (m *Memory) ContactMethod(id PersonID, kind string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.contacts[id][kind]
	return v, ok
}

// SourceLinkCount reports how many source links a person has.
func (m *Memory) SourceLinkCount(id PersonID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sourceLinks[id])
}

// People returns the number of stored people.
func (m *Memory) People() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.people)
}

func assocKey(id PersonID, company string) string {
	return fmt.Sprintf("%d|%s", id, strings.ToLower(strings.TrimSpace(company)))
}
