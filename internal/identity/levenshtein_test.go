package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "acme consulting", "acme consulting", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "acme", "", 0},
		{"single substitution", "acme", "acmi", 0.75},
		{"disjoint", "abcd", "wxyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	assert.Equal(t, Similarity("globex", "globex corp"), Similarity("globex corp", "globex"))
}

func TestSimilarityCapsInput(t *testing.T) {
	// Oversized untrusted input must not blow up the O(n*m) table; anything
	// past the cap is ignored.
	long := strings.Repeat("a", 10*maxSimilarityInput)
	capped := strings.Repeat("a", maxSimilarityInput)
	assert.Equal(t, 1.0, Similarity(long, capped))
}
