// Package identity resolves incoming candidate data to canonical candidate
// records, merging duplicate scans of the same person without false-merging
// distinct people who share a name.
package identity

import (
	"regexp"
	"strings"
)

// corporateSuffixes are stripped from employer names before comparison so
// that "Acme Inc" and "Acme LLC" compare equal.
var corporateSuffixes = regexp.MustCompile(`\b(inc|co|company|corp|corporation|ltd|llc|plc)\b\.?`)

var (
	nonLetters = regexp.MustCompile(`[^a-z\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// NormalizeEmail lowercases and trims an email address for exact matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName lowercases a person name, strips non-letter characters and
// collapses whitespace.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = nonLetters.ReplaceAllString(n, "")
	n = whitespace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// NormalizeEmployer lowercases an employer name, strips corporate suffixes
// and punctuation, and collapses whitespace.
func NormalizeEmployer(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = corporateSuffixes.ReplaceAllString(n, "")
	n = nonLetters.ReplaceAllString(n, "")
	n = whitespace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// EmployersMatch reports whether two employer strings refer to the same
// employer: normalized-equal, or one a substring of the other after suffix
// stripping. The rule is symmetric: EmployersMatch(a, b) == EmployersMatch(b, a).
func EmployersMatch(a, b string) bool {
	na, nb := NormalizeEmployer(a), NormalizeEmployer(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// OverlapRatio computes the employer-list overlap used to corroborate a
// name match: matching-employer-count / min(len(a), len(b)). An employer in
// a counts as matching if any employer in b matches it.
func OverlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	matches := 0
	for _, ea := range a {
		for _, eb := range b {
			if EmployersMatch(ea, eb) {
				matches++
				break
			}
		}
	}

	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(matches) / float64(smaller)
}

// ContainsEmployer reports whether list already holds an employer matching
// name under the normalized/substring equality rule.
func ContainsEmployer(list []string, name string) bool {
	for _, e := range list {
		if EmployersMatch(e, name) {
			return true
		}
	}
	return false
}
