package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/types"
)

// peopleDataTimeout bounds each people-data API call.
const peopleDataTimeout = 15 * time.Second

// peopleRecord is the subset of the people-data API response we consume.
type peopleRecord struct {
	FullName   string `json:"full_name"`
	Employment []struct {
		Company string `json:"company"`
		Title   string `json:"title"`
		Current bool   `json:"current"`
	} `json:"employment"`
	LikelihoodScore float64 `json:"likelihood_score"`
	ProfileURL      string  `json:"profile_url"`
}

type peopleResponse struct {
	Status  string         `json:"status"`
	Records []peopleRecord `json:"records"`
}

// PeopleDataProvider queries a commercial people-data enrichment API for
// employment records matching the candidate.
type PeopleDataProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPeopleDataProvider creates the provider. baseURL points at the API
// root, e.g. https://api.peopledatalabs.example/v1.
func NewPeopleDataProvider(baseURL, apiKey string) *PeopleDataProvider {
	return &PeopleDataProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: peopleDataTimeout},
	}
}

// Name implements Provider.
func (p *PeopleDataProvider) Name() string { return "people_data" }

// Confidence levels for people-data records. A current-employment record
// from the aggregator is strong evidence; a past record still corroborates.
const (
	confCurrentRecord = 0.85
	confPastRecord    = 0.6
)

// Lookup queries the people-data API and reports whether any returned
// record lists the employer.
func (p *PeopleDataProvider) Lookup(ctx context.Context, candidateName, employer string) (*types.EvidenceResult, error) {
	endpoint := fmt.Sprintf("%s/person/search?name=%s", p.baseURL, url.QueryEscape(candidateName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build people-data request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("people-data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.EmptyEvidence("no people-data record for candidate"), nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("people-data API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed peopleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode people-data response: %w", err)
	}

	result := &types.EvidenceResult{Reasoning: "no people-data record lists this employer"}
	for _, record := range parsed.Records {
		for _, job := range record.Employment {
			if !identity.EmployersMatch(job.Company, employer) {
				continue
			}

			confidence := confPastRecord
			reasoning := fmt.Sprintf("people-data record lists past employment at %s", job.Company)
			if job.Current {
				confidence = confCurrentRecord
				reasoning = fmt.Sprintf("people-data record lists current employment at %s", job.Company)
			}

			result.Found = true
			result.Artifacts = append(result.Artifacts, types.EvidenceArtifact{
				Type:      types.ArtifactPeopleRecord,
				Value:     record.ProfileURL,
				Label:     fmt.Sprintf("%s (%s)", job.Company, job.Title),
				Timestamp: time.Now().UTC(),
			})
			if confidence > result.Confidence {
				result.Confidence = confidence
				result.Reasoning = reasoning
			}
		}
	}

	return result, nil
}
