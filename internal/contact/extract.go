// Package contact discovers employer phone numbers and HR email addresses
// from company web pages, with a conservative no-guessing validation policy.
package contact

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CandidateSource identifies where a phone candidate was extracted from.
type CandidateSource string

// Extraction sources, in the order they are scanned.
const (
	SourceTelLink CandidateSource = "tel_link"
	SourceText    CandidateSource = "text"
	SourceJSONLD  CandidateSource = "jsonld"
	SourceScript  CandidateSource = "script"
)

// PhoneCandidate is one extracted phone-number candidate with enough
// surrounding context to score it.
type PhoneCandidate struct {
	Number  string          // as found in the page
	Digits  string          // normalized digit string, used for dedup
	Source  CandidateSource // which extractor found it
	Context string          // nearby text, lowercased
	Score   float64
}

// phonePattern matches phone-number-shaped strings in visible text.
var phonePattern = regexp.MustCompile(`\+?\d{0,3}[\s.\-(]*\d{3}[\s.\-)]*\d{3}[\s.\-]*\d{4}\b`)

// digitsOnly strips everything but digits.
var digitsOnly = regexp.MustCompile(`\D`)

// phoneContextKeywords must appear near a script-sourced number for it to
// count; inline scripts are full of IDs and timestamps that look like
// phone numbers.
var phoneContextKeywords = []string{"phone", "tel", "call", "contact", "dial", "fax"}

// contextWindow is how many characters around a match feed the scorer.
const contextWindow = 80

// ExtractPhoneCandidates pulls phone-number candidates from fetched HTML
// using four independent sources: tel: links, visible text, JSON-LD
// structured data, and inline script contents. Candidates are deduplicated
// by normalized digit string (first occurrence wins, preserving source
// order) and filtered for obvious false positives.
func ExtractPhoneCandidates(html string) []PhoneCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var candidates []PhoneCandidate
	candidates = append(candidates, extractTelLinks(doc)...)
	candidates = append(candidates, extractTextNumbers(doc)...)
	candidates = append(candidates, extractJSONLD(doc)...)
	candidates = append(candidates, extractScriptNumbers(doc)...)

	return dedupeAndFilter(candidates)
}

// extractTelLinks reads tel: anchors; these are the strongest signal since
// the page author explicitly marked them as phone numbers.
func extractTelLinks(doc *goquery.Document) []PhoneCandidate {
	var out []PhoneCandidate
	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		number := strings.TrimPrefix(href, "tel:")
		context := strings.ToLower(strings.TrimSpace(s.Text()))
		if parent := s.Parent(); parent.Length() > 0 {
			context += " " + strings.ToLower(strings.TrimSpace(parent.Text()))
		}
		out = append(out, PhoneCandidate{
			Number:  number,
			Digits:  digitsOnly.ReplaceAllString(number, ""),
			Source:  SourceTelLink,
			Context: context,
		})
	})
	return out
}

// extractTextNumbers scans the de-tagged, entity-decoded visible text.
func extractTextNumbers(doc *goquery.Document) []PhoneCandidate {
	clone := doc.Selection.Clone()
	clone.Find("script, style, noscript").Remove()
	text := clone.Text()

	var out []PhoneCandidate
	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		number := text[loc[0]:loc[1]]
		out = append(out, PhoneCandidate{
			Number:  strings.TrimSpace(number),
			Digits:  digitsOnly.ReplaceAllString(number, ""),
			Source:  SourceText,
			Context: contextAround(text, loc[0], loc[1]),
		})
	}
	return out
}

// extractJSONLD reads telephone fields out of JSON-LD structured data
// blocks, which organizations commonly use for their contact points.
func extractJSONLD(doc *goquery.Document) []PhoneCandidate {
	var out []PhoneCandidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		for _, entry := range telephoneFields(data, "") {
			out = append(out, PhoneCandidate{
				Number:  entry.number,
				Digits:  digitsOnly.ReplaceAllString(entry.number, ""),
				Source:  SourceJSONLD,
				Context: strings.ToLower(entry.context),
			})
		}
	})
	return out
}

type jsonldPhone struct {
	number  string
	context string
}

// telephoneFields walks arbitrary JSON-LD recursively collecting telephone
// values together with sibling contactType/name fields for scoring context.
func telephoneFields(data any, parentContext string) []jsonldPhone {
	var out []jsonldPhone
	switch v := data.(type) {
	case map[string]any:
		localContext := parentContext
		for _, key := range []string{"contactType", "name", "@type", "description"} {
			if s, ok := v[key].(string); ok {
				localContext += " " + s
			}
		}
		if tel, ok := v["telephone"].(string); ok && tel != "" {
			out = append(out, jsonldPhone{number: tel, context: localContext})
		}
		for _, child := range v {
			out = append(out, telephoneFields(child, localContext)...)
		}
	case []any:
		for _, child := range v {
			out = append(out, telephoneFields(child, parentContext)...)
		}
	}
	return out
}

// extractScriptNumbers scans inline script contents. Scripts are noisy, so
// a candidate only counts when phone-context keywords appear nearby.
func extractScriptNumbers(doc *goquery.Document) []PhoneCandidate {
	var out []PhoneCandidate
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if typ, _ := s.Attr("type"); typ == "application/ld+json" {
			return // handled by extractJSONLD
		}
		content := s.Text()
		for _, loc := range phonePattern.FindAllStringIndex(content, -1) {
			context := contextAround(content, loc[0], loc[1])
			if !containsAny(context, phoneContextKeywords) {
				continue
			}
			number := content[loc[0]:loc[1]]
			out = append(out, PhoneCandidate{
				Number:  strings.TrimSpace(number),
				Digits:  digitsOnly.ReplaceAllString(number, ""),
				Source:  SourceScript,
				Context: context,
			})
		}
	})
	return out
}

// contextAround returns a lowercased window of text around a match.
func contextAround(text string, start, end int) string {
	from := start - contextWindow
	if from < 0 {
		from = 0
	}
	to := end + contextWindow
	if to > len(text) {
		to = len(text)
	}
	return strings.ToLower(text[from:to])
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// dedupeAndFilter removes duplicate digit strings and obvious false
// positives. First occurrence wins so earlier (stronger) sources take
// precedence, and input order is preserved for deterministic tie-breaking
// downstream.
func dedupeAndFilter(candidates []PhoneCandidate) []PhoneCandidate {
	seen := make(map[string]bool)
	var out []PhoneCandidate
	for _, c := range candidates {
		if seen[c.Digits] {
			continue
		}
		if !plausiblePhone(c.Digits) {
			continue
		}
		seen[c.Digits] = true
		out = append(out, c)
	}
	return out
}

// datePattern matches digit strings starting with a YYYYMMDD date, which
// covers the timestamp values (20240115123045) that litter inline scripts.
var datePattern = regexp.MustCompile(`^(19|20)\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])\d*$`)

// plausiblePhone filters digit strings that cannot be phone numbers.
func plausiblePhone(digits string) bool {
	if len(digits) < 10 || len(digits) > 15 {
		return false
	}
	if datePattern.MatchString(digits) {
		return false
	}
	if repeatedDigits(digits) {
		return false
	}
	return true
}

// repeatedDigits reports whether the string is dominated by one repeating
// digit (e.g. 0000000000 placeholder numbers).
func repeatedDigits(digits string) bool {
	counts := make(map[rune]int)
	for _, d := range digits {
		counts[d]++
	}
	for _, n := range counts {
		if n >= len(digits)-2 {
			return true
		}
	}
	return false
}
