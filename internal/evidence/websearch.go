package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/types"
)

// SearchItem is one web search result.
type SearchItem struct {
	Title   string
	Link    string
	Snippet string
}

// Searcher runs a web search. The production implementation is
// GoogleSearcher; tests use a canned fake.
type Searcher interface {
	Search(ctx context.Context, query string, num int64) ([]SearchItem, error)
}

// GoogleSearcher is the Custom Search JSON API implementation of Searcher.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher creates a search client for the given API key and
// search engine ID.
func NewGoogleSearcher(ctx context.Context, apiKey, cx string) (*GoogleSearcher, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Search runs one query and maps the results into SearchItems.
func (g *GoogleSearcher) Search(ctx context.Context, query string, num int64) ([]SearchItem, error) {
	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(num).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	items := make([]SearchItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, SearchItem{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return items, nil
}

// searchResultCount is how many results each query requests.
const searchResultCount = 5

// WebSearchProvider finds public web evidence (professional profiles, press
// mentions, team pages) tying a candidate to an employer.
type WebSearchProvider struct {
	searcher Searcher
}

// NewWebSearchProvider creates the web search evidence provider.
func NewWebSearchProvider(searcher Searcher) *WebSearchProvider {
	return &WebSearchProvider{searcher: searcher}
}

// Name implements Provider.
func (p *WebSearchProvider) Name() string { return "web_search" }

// Confidence buckets by number of corroborating results. A single
// professional-profile hit is suggestive but not conclusive on its own.
const (
	confSingleHit   = 0.65
	confTwoHits     = 0.85
	confManyHits    = 0.9
	confPartialHits = 0.4
)

// Lookup searches for pages mentioning both the candidate and the employer
// and scores the result set by how many independently corroborate the pair.
func (p *WebSearchProvider) Lookup(ctx context.Context, candidateName, employer string) (*types.EvidenceResult, error) {
	query := fmt.Sprintf("%q %q", candidateName, employer)
	items, err := p.searcher.Search(ctx, query, searchResultCount)
	if err != nil {
		return nil, fmt.Errorf("web evidence search for %q: %w", candidateName, err)
	}

	name := identity.NormalizeName(candidateName)
	result := &types.EvidenceResult{}
	corroborating := 0
	partial := 0

	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Snippet)
		hasName := name != "" && strings.Contains(identity.NormalizeName(text), name)
		hasEmployer := containsEmployerMention(text, employer)

		switch {
		case hasName && hasEmployer:
			corroborating++
			result.Artifacts = append(result.Artifacts, types.EvidenceArtifact{
				Type:      types.ArtifactWebResult,
				Value:     item.Link,
				Label:     item.Title,
				Snippet:   item.Snippet,
				Timestamp: time.Now().UTC(),
			})
		case hasName || hasEmployer:
			partial++
		}
	}

	switch {
	case corroborating >= 3:
		result.Found = true
		result.Confidence = confManyHits
		result.Reasoning = fmt.Sprintf("%d independent results corroborate the employment claim", corroborating)
	case corroborating == 2:
		result.Found = true
		result.Confidence = confTwoHits
		result.Reasoning = "two independent results corroborate the employment claim"
	case corroborating == 1:
		result.Found = true
		result.Confidence = confSingleHit
		result.Reasoning = "one result mentions both candidate and employer"
	case partial > 0:
		result.Found = true
		result.Confidence = confPartialHits
		result.Reasoning = fmt.Sprintf("%d results mention candidate or employer but not both", partial)
	default:
		result.Reasoning = "no search results mention the candidate with this employer"
	}

	return result, nil
}

// containsEmployerMention checks for the normalized employer name appearing
// anywhere in the result text. The text is a full snippet, not an employer
// field, so plain substring containment after normalization is the right
// test.
func containsEmployerMention(text, employer string) bool {
	normalized := identity.NormalizeEmployer(employer)
	if normalized == "" {
		return false
	}
	return strings.Contains(identity.NormalizeEmployer(text), normalized)
}
