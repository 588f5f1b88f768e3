package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmployer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips Inc", "Acme Inc", "acme"},
		{"strips Inc with period", "Acme Inc.", "acme"},
		{"strips LLC", "Acme Consulting LLC", "acme consulting"},
		{"strips Corporation", "Acme Corporation", "acme"},
		{"strips Ltd", "Acme Ltd", "acme"},
		{"strips Co", "Acme Co", "acme"},
		{"strips PLC", "Acme PLC", "acme"},
		{"keeps words containing suffix letters", "Cooper Industries", "cooper industries"},
		{"collapses whitespace", "  Acme   Consulting  ", "acme consulting"},
		{"drops punctuation", "Acme, Inc.", "acme"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeEmployer(tt.input))
		})
	}
}

func TestEmployersMatchSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"Amazon", "Amazon Inc"},
		{"Acme Consulting LLC", "Acme Consulting"},
		{"Acme", "Acme Widgets"},
		{"Google", "Alphabet"},
		{"Starbucks Corp", "Starbucks Coffee Company"},
		{"", "Acme"},
	}

	for _, p := range pairs {
		assert.Equal(t, EmployersMatch(p[0], p[1]), EmployersMatch(p[1], p[0]),
			"matches(%q, %q) must be symmetric", p[0], p[1])
	}
}

func TestEmployersMatch(t *testing.T) {
	tests := []struct {
		a, b    string
		matches bool
	}{
		{"Amazon", "Amazon Inc", true},
		{"Acme Consulting LLC", "acme consulting", true},
		{"Acme", "Acme Widgets", true}, // substring after suffix stripping
		{"Google", "Alphabet", false},
		{"", "", false},
		{"Inc", "Inc", false}, // suffix-only names normalize to empty
	}

	for _, tt := range tests {
		assert.Equal(t, tt.matches, EmployersMatch(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []string
		expected float64
	}{
		{"identical lists", []string{"Acme", "Globex"}, []string{"Acme", "Globex"}, 1.0},
		{"no overlap", []string{"Acme"}, []string{"Globex"}, 0},
		{"half overlap on smaller list", []string{"Acme", "Globex"}, []string{"Acme", "Initech", "Umbrella", "Hooli"}, 0.5},
		{"suffix variants count as matches", []string{"Acme Inc"}, []string{"Acme LLC"}, 1.0},
		{"empty list", nil, []string{"Acme"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, OverlapRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "jane doe", NormalizeName("  Jane   Doe "))
	assert.Equal(t, "jane odoe", NormalizeName("Jane O'Doe")) // punctuation stripped, then collapsed
	assert.Equal(t, "jose garcia", NormalizeName("Jose Garcia-1987"))
	assert.Equal(t, "", NormalizeName("12345"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
