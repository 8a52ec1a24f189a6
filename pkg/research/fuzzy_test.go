package research

import (
	"math"
	"testing"
)

func TestNormalizeCompanyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Inc.", "acme"},
		{"Acme, Incorporated", "acme"},
		{"DigitalOcean", "digitalocean"},
		{"Digital Ocean LLC", "digitalocean"},
		{"Initech Holdings Ltd", "initech"},
		{"Tiller & Hatch Co.", "tillerhatch"},
		{"Inc", "inc"}, // a lone suffix is still a name
		{"  ", ""},
	}
	for _, tc := range tests {
		if got := NormalizeCompanyName(tc.in); got != tc.want {
			t.Errorf("NormalizeCompanyName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"acme", "acme", 1},
		{"", "", 1},
		{"acme", "", 0},
		{"acme", "wxyz", 0},
		{"acme", "acm", 2.0 * 3 / 7},
		{"abcd", "bcda", 2.0 * 3 / 8},
	}
	for _, tc := range tests {
		if got := Ratio(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Ratio(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompanyMatches(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		got, want string
		match     bool
	}{
		{"Acme Inc", "Acme", true},
		{"Acme", "Acme Corporation", true},
		{"Digital Ocean", "DigitalOcean", true},
		{"DigitalOcean Inc.", "digitalocean", true},
		{"Globex", "Acme", false},
		{"", "Acme", false},
		{"Acmee", "Acme", true}, // ratio 2*4/9 on exact, but containment wins
	}
	for _, tc := range tests {
		if got := cfg.CompanyMatches(tc.got, tc.want); got != tc.match {
			t.Errorf("CompanyMatches(%q, %q) = %v, want %v", tc.got, tc.want, got, tc.match)
		}
	}
}
