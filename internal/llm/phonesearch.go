package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/employment-verifier/internal/evidence"
)

// PhoneSearcher finds a company phone number through web search plus LLM
// extraction. It is the fallback used when scraping the company's own site
// yields nothing acceptable; internal/contact downgrades its results and
// still applies the validation gates.
type PhoneSearcher struct {
	client   Client
	searcher evidence.Searcher
}

// NewPhoneSearcher creates the fallback phone searcher.
func NewPhoneSearcher(client Client, searcher evidence.Searcher) *PhoneSearcher {
	return &PhoneSearcher{client: client, searcher: searcher}
}

// phoneSearchResults is how many search results feed the extraction prompt.
const phoneSearchResults = 5

// phoneSearchOutput is the typed boundary for the LLM's JSON response.
type phoneSearchOutput struct {
	PhoneNumber string `json:"phone_number"`
	SourceURL   string `json:"source_url"`
}

// SearchPhone searches the web for the company's phone number and has the
// LLM extract it from the result snippets. Returns empty strings when no
// number is clearly attributed to the company.
func (s *PhoneSearcher) SearchPhone(ctx context.Context, companyName, companyDomain string) (string, string, error) {
	query := fmt.Sprintf("%s %s phone number contact", companyName, companyDomain)
	items, err := s.searcher.Search(ctx, query, phoneSearchResults)
	if err != nil {
		return "", "", fmt.Errorf("phone fallback search failed: %w", err)
	}
	if len(items) == 0 {
		return "", "", nil
	}

	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "Result %d\nURL: %s\nTitle: %s\nSnippet: %s\n\n", i+1, item.Link, item.Title, item.Snippet)
	}

	schema := PhoneSearchSchema()
	schema.Description = fmt.Sprintf("%s\nCompany: %s (%s)", schema.Description, companyName, companyDomain)
	prompt := BuildExtractionPrompt(schema, sb.String())

	raw, err := s.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return "", "", fmt.Errorf("phone extraction failed: %w", err)
	}

	var out phoneSearchOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", "", fmt.Errorf("failed to parse phone extraction output: %w", err)
	}

	return strings.TrimSpace(out.PhoneNumber), strings.TrimSpace(out.SourceURL), nil
}
