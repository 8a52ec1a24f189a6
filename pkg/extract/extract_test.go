package extract

import (
	"strings"
	"testing"

	"github.com/solvire/fartemis/pkg/candidate"
)

var target = candidate.Target{FirstName: "Olivia", LastName: "Melman", Company: "DigitalOcean"}

func TestProfilesFindsOutboundLinks(t *testing.T) {
	html := `<html><body>
		<div class="team">
			<p>Our engineering leadership at DigitalOcean.</p>
			<a href="https://www.linkedin.com/in/olivia-melman?trk=x">Olivia Melman</a>
		</div>
		<a href="https://www.linkedin.com/company/digitalocean">DigitalOcean</a>
		<a href="https://example.com/other">Elsewhere</a>
	</body></html>`

	profiles, err := Profiles(html, "https://example.com/team", target)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	p := profiles[0]
	if p.Handle != "olivia-melman" {
		t.Errorf("handle = %q, want olivia-melman", p.Handle)
	}
	if p.CleanURL != "https://www.linkedin.com/in/olivia-melman" {
		t.Errorf("clean url = %q", p.CleanURL)
	}
	if p.SourceType != candidate.SourceExtracted {
		t.Errorf("source type = %q, want extracted", p.SourceType)
	}
	if p.MatchScore <= 10 {
		t.Errorf("expected context boost above the bare URL score, got %v", p.MatchScore)
	}
	if !strings.Contains(p.ContextSnippet, "DigitalOcean") {
		t.Errorf("context %q missing ancestor text", p.ContextSnippet)
	}
}

func TestProfilesDropsZeroScoreLinks(t *testing.T) {
	html := `<html><body>
		<a href="https://www.linkedin.com/in/someone-unrelated">Somebody</a>
	</body></html>`
	profiles, err := Profiles(html, "https://example.com", target)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("expected no profiles, got %d", len(profiles))
	}
}

func TestProfilesResolvesRelativeLinks(t *testing.T) {
	html := `<a href="/in/olivia-melman">Olivia Melman</a>`
	profiles, err := Profiles(html, "https://www.linkedin.com/search", target)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if profiles[0].CleanURL != "https://www.linkedin.com/in/olivia-melman" {
		t.Errorf("clean url = %q", profiles[0].CleanURL)
	}
}

func TestContextCappedAtFiveHundred(t *testing.T) {
	filler := strings.Repeat("lorem ipsum dolor sit amet ", 60)
	html := `<div><p>` + filler + `</p><a href="https://linkedin.com/in/olivia-melman">Olivia</a></div>`
	profiles, err := Profiles(html, "https://example.com", target)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if got := len(profiles[0].ContextSnippet); got > 500 {
		t.Errorf("context length %d exceeds cap", got)
	}
}

func TestContextStopsOnceLongEnough(t *testing.T) {
	// The immediate parent already yields more than 50 characters, so the
	// outer div's marker text must not leak into the context.
	html := `<div><p>OUTER MARKER should not appear in the snippet at all</p>
		<div><span>Olivia Melman leads the developer experience team here
		<a href="https://linkedin.com/in/olivia-melman">Olivia Melman</a></span></div></div>`
	profiles, err := Profiles(html, "https://example.com", target)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if strings.Contains(profiles[0].ContextSnippet, "OUTER MARKER") {
		t.Errorf("context walked too far up: %q", profiles[0].ContextSnippet)
	}
}
