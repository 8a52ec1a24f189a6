package match

import (
	"testing"

	"github.com/solvire/fartemis/pkg/candidate"
)

func TestNameMatchInURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		first string
		last  string
		want  float64
	}{
		{"exact dash form", "https://x/in/john-smith", "John", "Smith", 1.0},
		{"reversed dash form", "https://x/in/john-smith", "Smith", "John", 0.95},
		{"dash with vanity suffix", "https://linkedin.com/in/john-smith-5b03b34", "John", "Smith", 1.0},
		{"dash with numeric suffix", "https://linkedin.com/in/john-smith-123", "John", "Smith", 1.0},
		{"concatenated", "https://x/in/johnsmith", "John", "Smith", 0.9},
		{"concatenated reversed", "https://x/in/smithjohn", "John", "Smith", 0.9},
		{"iam vanity form", "https://x/in/iamjohnsmith", "John", "Smith", 0.9},
		{"first plus last initial", "https://x/in/john-s", "John", "Smith", 0.85},
		{"first initial plus last", "https://x/in/j-smith", "John", "Smith", 0.85},
		{"flat initial hybrid", "https://x/in/jsmith", "John", "Smith", 0.85},
		{"dotted", "https://x/in/john.smith", "John", "Smith", 0.8},
		{"underscored", "https://x/in/john_smith", "John", "Smith", 0.8},
		{"both present loose concat", "https://x/in/john--smith", "John", "Smith", 0.75},
		{"both present extra words", "https://x/in/john-smith-engineer", "John", "Smith", 0.65},
		{"only first name", "https://x/in/john-doe-ca", "John", "Smith", 0.4},
		{"only last name", "https://x/in/dave-smith-ca", "John", "Smith", 0.4},
		{"unrelated handle", "https://x/in/alice-jones", "John", "Smith", 0.0},
		{"no marker", "https://example.com/john-smith", "John", "Smith", 0.0},
		{"case folded", "https://x/in/John-Smith", "john", "SMITH", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NameMatchInURL(tt.url, tt.first, tt.last); got != tt.want {
				t.Errorf("NameMatchInURL(%q, %q, %q) = %v, want %v", tt.url, tt.first, tt.last, got, tt.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	target := candidate.Target{FirstName: "Olivia", LastName: "Melman", Company: "DigitalOcean"}

	tests := []struct {
		name    string
		url     string
		context string
		want    float64
	}{
		{
			"full alignment hits the ceiling",
			"https://linkedin.com/in/olivia-melman",
			"Olivia Melman works at DigitalOcean",
			24.0,
		},
		{
			"direct url with empty context",
			"https://linkedin.com/in/olivia-melman",
			"",
			10.0,
		},
		{
			"name in context only",
			"https://example.com/page",
			"Olivia Melman, speaker",
			6.0,
		},
		{
			"company in context only",
			"https://example.com/page",
			"engineering at DigitalOcean",
			8.0,
		},
		{
			"nothing matches",
			"https://example.com/page",
			"unrelated text",
			0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.url, tt.context, target); got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.url, tt.context, got, tt.want)
			}
		})
	}
}

func TestScoreMonotonicInCompany(t *testing.T) {
	withCompany := candidate.Target{FirstName: "John", LastName: "Smith", Company: "Acme"}

	contexts := []string{"", "John Smith", "John Smith - engineer"}
	for _, ctx := range contexts {
		base := Score("https://x/in/john-smith", ctx, withCompany)
		boosted := Score("https://x/in/john-smith", ctx+" at Acme", withCompany)
		if boosted < base {
			t.Errorf("adding company mention decreased score: %v -> %v (context %q)", base, boosted, ctx)
		}
		if boosted > MaxScore {
			t.Errorf("score %v exceeds ceiling %v", boosted, MaxScore)
		}
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{24.0, 100},
		{12.0, 50},
		{0, 0},
		{30.0, 100},
		{21.6, 90},
	}
	for _, tt := range tests {
		if got := Confidence(tt.score); got != tt.want {
			t.Errorf("Confidence(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}
