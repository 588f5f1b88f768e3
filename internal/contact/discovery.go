package contact

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/jonathan/employment-verifier/internal/fetch"
	"github.com/jonathan/employment-verifier/internal/types"
)

// PageFetcher retrieves company pages; satisfied by fetch.CachedFetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.CachedResult, error)
}

// FallbackSearcher is the LLM-driven web search used when scraping the
// company's own pages yields no acceptable phone candidate.
type FallbackSearcher interface {
	// SearchPhone returns a phone number and the URL it was found at, or
	// empty strings when nothing was found.
	SearchPhone(ctx context.Context, companyName, companyDomain string) (number, sourceURL string, err error)
}

// Discoverer resolves an employer to a phone number and HR email address.
type Discoverer struct {
	fetcher  PageFetcher
	fallback FallbackSearcher // optional
	verbose  bool
}

// NewDiscoverer creates a contact discoverer. fallback may be nil, in which
// case no LLM search runs when scraping comes up empty.
func NewDiscoverer(fetcher PageFetcher, fallback FallbackSearcher, verbose bool) *Discoverer {
	return &Discoverer{fetcher: fetcher, fallback: fallback, verbose: verbose}
}

// contactPaths are the company-site paths probed for contact information,
// in order.
var contactPaths = []string{"/contact", "/contact-us", "/about/contact", "/about-us", "/about"}

// emailPattern matches a basic local@domain shape.
var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Discover resolves contact info for an employer. Both results pass through
// validation gates before being tagged HIGH; anything that fails a gate
// downgrades to NOT_FOUND. Absence of a high-confidence match is always
// preferred over a guess, since a wrong contact channel risks verifying the
// wrong company.
func (d *Discoverer) Discover(ctx context.Context, companyName, companyDomain string) (types.ContactInfo, error) {
	info := types.ContactInfo{
		Phone: types.ContactResult{Confidence: types.ContactNotFound},
		Email: types.ContactResult{Confidence: types.ContactNotFound},
	}
	if strings.TrimSpace(companyDomain) == "" {
		return info, fmt.Errorf("company domain is required for contact discovery")
	}

	var best PhoneCandidate
	var bestURL string
	found := false

	for _, path := range contactPaths {
		pageURL := "https://" + companyDomain + path
		result, err := d.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			// A single dead page is normal; keep probing.
			if d.verbose {
				log.Printf("[CONTACT] %s: %v", pageURL, err)
			}
			continue
		}

		candidates := ExtractPhoneCandidates(result.HTML)
		if candidate, ok := SelectBest(candidates); ok {
			if !found || candidate.Score > best.Score {
				best = candidate
				bestURL = result.URL
				found = true
			}
		}

		if info.Email.Confidence != types.ContactHigh {
			if email, ok := findEmail(result.HTML, companyDomain); ok {
				info.Email = types.ContactResult{
					Value:      email,
					SourceURL:  result.URL,
					Confidence: types.ContactHigh,
				}
			}
		}

		// A directly-scraped HR line is as good as it gets.
		if found && best.Score >= scoreHR && info.Email.Confidence == types.ContactHigh {
			break
		}
	}

	// Fallback LLM-driven web search when no scraped candidate reached
	// acceptance; its results always score below a directly-scraped HR
	// match.
	if (!found || best.Score < acceptScore) && d.fallback != nil {
		number, sourceURL, err := d.fallback.SearchPhone(ctx, companyName, companyDomain)
		if err != nil {
			if d.verbose {
				log.Printf("[CONTACT] fallback search failed for %s: %v", companyName, err)
			}
		} else if number != "" {
			candidate := PhoneCandidate{
				Number: number,
				Digits: digitsOnly.ReplaceAllString(number, ""),
				Score:  FallbackScore,
			}
			if !found || candidate.Score > best.Score {
				best = candidate
				bestURL = sourceURL
				found = true
			}
		}
	}

	if found {
		if result, ok := validatePhone(best, bestURL, companyDomain); ok {
			info.Phone = result
		}
	}

	return info, nil
}

// validatePhone applies the phone gates: digit count in [10,15] and a
// source URL containing the company domain.
func validatePhone(candidate PhoneCandidate, sourceURL, companyDomain string) (types.ContactResult, bool) {
	if len(candidate.Digits) < 10 || len(candidate.Digits) > 15 {
		return types.ContactResult{Confidence: types.ContactNotFound}, false
	}
	if !strings.Contains(strings.ToLower(sourceURL), strings.ToLower(companyDomain)) {
		return types.ContactResult{Confidence: types.ContactNotFound}, false
	}
	return types.ContactResult{
		Value:      candidate.Number,
		SourceURL:  sourceURL,
		Confidence: types.ContactHigh,
	}, true
}

// findEmail scans a page for an email address whose domain corroborates the
// company domain (substring containment either way).
func findEmail(html, companyDomain string) (string, bool) {
	companyDomain = strings.ToLower(companyDomain)
	for _, match := range emailPattern.FindAllString(html, -1) {
		email := strings.ToLower(match)
		at := strings.LastIndex(email, "@")
		if at < 0 {
			continue
		}
		domain := email[at+1:]
		if strings.Contains(domain, companyDomain) || strings.Contains(companyDomain, domain) {
			return email, true
		}
	}
	return "", false
}
