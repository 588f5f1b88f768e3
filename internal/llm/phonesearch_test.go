package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/employment-verifier/internal/evidence"
)

type fakeWebSearcher struct {
	items []evidence.SearchItem
	err   error
}

func (f *fakeWebSearcher) Search(_ context.Context, _ string, _ int64) ([]evidence.SearchItem, error) {
	return f.items, f.err
}

func TestSearchPhoneExtractsNumber(t *testing.T) {
	searcher := &fakeWebSearcher{items: []evidence.SearchItem{{
		Title:   "Acme Corp contact",
		Link:    "https://acme.com/contact",
		Snippet: "Call our HR team at (415) 555-0100",
	}}}
	client := &fakeClient{json: `{"phone_number": "(415) 555-0100", "source_url": "https://acme.com/contact"}`}

	s := NewPhoneSearcher(client, searcher)
	number, sourceURL, err := s.SearchPhone(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)

	assert.Equal(t, "(415) 555-0100", number)
	assert.Equal(t, "https://acme.com/contact", sourceURL)
}

func TestSearchPhoneNoResultsSkipsModel(t *testing.T) {
	client := &fakeClient{}
	s := NewPhoneSearcher(client, &fakeWebSearcher{})

	number, sourceURL, err := s.SearchPhone(context.Background(), "Ghost Co", "ghost.example")
	require.NoError(t, err)
	assert.Empty(t, number)
	assert.Empty(t, sourceURL)
	assert.Zero(t, client.calls)
}

func TestSearchPhoneEmptyExtraction(t *testing.T) {
	searcher := &fakeWebSearcher{items: []evidence.SearchItem{{Title: "Unrelated"}}}
	client := &fakeClient{json: `{"phone_number": "", "source_url": ""}`}

	s := NewPhoneSearcher(client, searcher)
	number, sourceURL, err := s.SearchPhone(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)
	assert.Empty(t, number)
	assert.Empty(t, sourceURL)
}

func TestSearchPhoneSearchErrorPropagates(t *testing.T) {
	s := NewPhoneSearcher(&fakeClient{}, &fakeWebSearcher{err: errors.New("quota")})
	_, _, err := s.SearchPhone(context.Background(), "Acme", "acme.com")
	assert.Error(t, err)
}
