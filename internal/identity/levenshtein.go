package identity

// maxSimilarityInput caps the inputs to Similarity. The function runs over
// untrusted resume-extracted text, and Levenshtein is O(n*m); longer inputs
// are truncated rather than rejected.
const maxSimilarityInput = 256

// Similarity returns a normalized string similarity in [0, 1] based on
// Levenshtein edit distance: 1 for identical strings, 0 for completely
// dissimilar ones. Complexity is O(n*m) with inputs capped at
// maxSimilarityInput runes.
func Similarity(a, b string) float64 {
	ra, rb := truncate([]rune(a)), truncate([]rune(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	dist := levenshtein(ra, rb)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	return 1 - float64(dist)/float64(longer)
}

func truncate(r []rune) []rune {
	if len(r) > maxSimilarityInput {
		return r[:maxSimilarityInput]
	}
	return r
}

// levenshtein computes edit distance with a two-row rolling table.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
