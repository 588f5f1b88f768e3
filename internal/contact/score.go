package contact

import (
	"regexp"
	"strings"
	"sync"
)

// Keyword-category scores. These are fixed, hand-assigned weights;
// downstream acceptance logic branches on them, so they must not drift.
const (
	scoreHR       = 0.9
	scoreMainLine = 0.8
	scoreGeneric  = 0.65
	scoreSupport  = 0.35
	scoreNoSignal = 0.5

	// FallbackScore is assigned to numbers found by the LLM-driven web
	// search fallback: medium confidence, always below a directly-scraped
	// HR match.
	FallbackScore = 0.65

	// acceptScore is the minimum score at which a scraped candidate is
	// accepted without running the fallback search.
	acceptScore = 0.6
)

// Keyword categories, checked in priority order. Support lines are
// deliberately downweighted: a help desk cannot verify employment.
var (
	hrKeywords      = []string{"hr", "human resources", "people", "talent", "recruiting", "employment verification"}
	mainKeywords    = []string{"main", "headquarters", "hq", "switchboard", "corporate office", "main office"}
	supportKeywords = []string{"support", "help desk", "helpdesk", "customer service", "customer care", "technical support"}
	genericKeywords = []string{"contact", "phone", "call"}
)

// matchesCategory checks keywords against the context. Short keywords
// ("hr", "hq") only match on word boundaries; "hr" as a bare substring
// would fire on words like "through".
func matchesCategory(context string, keywords []string) bool {
	for _, k := range keywords {
		if len(k) <= 3 {
			if wordPattern(k).MatchString(context) {
				return true
			}
			continue
		}
		if strings.Contains(context, k) {
			return true
		}
	}
	return false
}

var wordPatterns sync.Map // keyword -> *regexp.Regexp

func wordPattern(keyword string) *regexp.Regexp {
	if p, ok := wordPatterns.Load(keyword); ok {
		return p.(*regexp.Regexp)
	}
	p := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	wordPatterns.Store(keyword, p)
	return p
}

// ScoreCandidate assigns a keyword-category score based on the candidate's
// nearby text.
func ScoreCandidate(c PhoneCandidate) float64 {
	switch {
	case matchesCategory(c.Context, hrKeywords):
		return scoreHR
	case matchesCategory(c.Context, mainKeywords):
		return scoreMainLine
	case matchesCategory(c.Context, supportKeywords):
		return scoreSupport
	case matchesCategory(c.Context, genericKeywords):
		return scoreGeneric
	default:
		return scoreNoSignal
	}
}

// SelectBest scores every candidate and returns the highest-scoring one.
// Ties keep the earliest candidate, so input order is the deterministic
// tiebreak.
func SelectBest(candidates []PhoneCandidate) (PhoneCandidate, bool) {
	if len(candidates) == 0 {
		return PhoneCandidate{}, false
	}

	best := candidates[0]
	best.Score = ScoreCandidate(best)
	for _, c := range candidates[1:] {
		c.Score = ScoreCandidate(c)
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}
