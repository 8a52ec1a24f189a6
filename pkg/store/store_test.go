package store

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryFindOrCreatePersonPriority(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, created, err := m.FindOrCreatePerson(ctx, PersonKey{
		URN: "urn:li:fs_profile:A1", URL: "https://linkedin.com/in/jane-doe", FirstName: "Jane", LastName: "Doe",
	}, Person{FirstName: "Jane", LastName: "Doe", LinkedInURL: "https://linkedin.com/in/jane-doe", LinkedInURN: "urn:li:fs_profile:A1"})
	if err != nil || !created {
		t.Fatalf("first call: id=%d created=%v err=%v", id, created, err)
	}

	// URN lookup wins even when the URL differs.
	id2, created, err := m.FindOrCreatePerson(ctx, PersonKey{URN: "urn:li:fs_profile:A1", URL: "https://other/in/x"}, Person{})
	if err != nil || created || id2 != id {
		t.Errorf("urn lookup: id=%d created=%v err=%v", id2, created, err)
	}

	// URL lookup matches through normalization.
	id3, created, err := m.FindOrCreatePerson(ctx, PersonKey{URL: "https://www.linkedin.com/in/jane-doe/?trk=x"}, Person{})
	if err != nil || created || id3 != id {
		t.Errorf("url lookup: id=%d created=%v err=%v", id3, created, err)
	}

	// Name-only lookup is the last resort and is case-insensitive.
	id4, created, err := m.FindOrCreatePerson(ctx, PersonKey{FirstName: "JANE", LastName: "doe"}, Person{})
	if err != nil || created || id4 != id {
		t.Errorf("name lookup: id=%d created=%v err=%v", id4, created, err)
	}

	if m.People() != 1 {
		t.Errorf("expected 1 person, got %d", m.People())
	}
}

func TestMemoryAssociationStatusNotClobbered(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, _, err := m.FindOrCreatePerson(ctx, PersonKey{FirstName: "A", LastName: "B"}, Person{FirstName: "A", LastName: "B"})
	if err != nil {
		t.Fatal(err)
	}

	if err := m.UpsertCompanyAssociation(ctx, id, "Acme", Association{JobTitle: "CTO", Role: "executive", Influence: 9}); err != nil {
		t.Fatal(err)
	}
	a, ok := m.Association(id, "Acme")
	if !ok || a.Status != StatusToContact {
		t.Fatalf("initial status = %q, want %q", a.Status, StatusToContact)
	}

	// Simulate a worked relationship, then re-run the upsert.
	m.SetAssociationStatus(id, "Acme", "contacted")

	if err := m.UpsertCompanyAssociation(ctx, id, "Acme", Association{JobTitle: "CTO", Role: "executive", Influence: 9, Status: StatusToContact}); err != nil {
		t.Fatal(err)
	}
	a, _ = m.Association(id, "Acme")
	if a.Status != "contacted" {
		t.Errorf("status clobbered to %q", a.Status)
	}
	if a.JobTitle != "CTO" || a.Influence != 9 {
		t.Errorf("defaults not applied: %+v", a)
	}
}

func TestMemoryUpsertSourceLinkIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, _, err := m.FindOrCreatePerson(ctx, PersonKey{FirstName: "A", LastName: "B"}, Person{FirstName: "A", LastName: "B"})
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := m.UpsertSourceLink(ctx, id, "https://linkedin.com/in/a-b/?trk=x", "A B", 0.9); err != nil {
			t.Fatal(err)
		}
	}
	if got := m.SourceLinkCount(id); got != 1 {
		t.Errorf("source links = %d, want 1", got)
	}
}

func TestPlaceholderEmail(t *testing.T) {
	a := PlaceholderEmail("Olivia", "Melman", "DigitalOcean")
	b := PlaceholderEmail("Olivia", "Melman", "DigitalOcean")
	if a == b {
		t.Error("placeholder emails must be collision-resistant")
	}
	if !strings.HasPrefix(a, "olivia.melman.digitalocean.") {
		t.Errorf("unexpected prefix: %q", a)
	}
	if !strings.HasSuffix(a, "@placeholder.invalid") {
		t.Errorf("unexpected domain: %q", a)
	}
	if got := PlaceholderEmail("", "", ""); !strings.HasPrefix(got, "x.x.x.") {
		t.Errorf("empty parts not defaulted: %q", got)
	}
}
