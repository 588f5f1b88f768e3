package contact

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/employment-verifier/internal/fetch"
	"github.com/jonathan/employment-verifier/internal/types"
)

// fakeFetcher serves canned HTML per URL.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetch.CachedResult, error) {
	html, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("not found: %s", url)
	}
	return &fetch.CachedResult{Result: &fetch.Result{URL: url, HTML: html, StatusCode: 200}}, nil
}

type fakeFallback struct {
	number    string
	sourceURL string
	calls     int
}

func (f *fakeFallback) SearchPhone(_ context.Context, _, _ string) (string, string, error) {
	f.calls++
	return f.number, f.sourceURL, nil
}

func TestDiscoverFindsHRPhoneAndEmail(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/contact": `<html><body>
			<main>
				<p>Human Resources: <a href="tel:+14155550100">+1 (415) 555-0100</a></p>
				<p>Email our HR team: hr@acme.com</p>
			</main>
		</body></html>`,
	}}

	d := NewDiscoverer(fetcher, nil, false)
	info, err := d.Discover(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)

	assert.Equal(t, types.ContactHigh, info.Phone.Confidence)
	assert.Equal(t, "+14155550100", info.Phone.Value)
	assert.Contains(t, info.Phone.SourceURL, "acme.com")

	assert.Equal(t, types.ContactHigh, info.Email.Confidence)
	assert.Equal(t, "hr@acme.com", info.Email.Value)
}

func TestDiscoverNoGuessingWhenNothingFound(t *testing.T) {
	d := NewDiscoverer(&fakeFetcher{pages: map[string]string{}}, nil, false)
	info, err := d.Discover(context.Background(), "Ghost Co", "ghost.example")
	require.NoError(t, err)

	assert.Equal(t, types.ContactNotFound, info.Phone.Confidence)
	assert.Equal(t, types.ContactNotFound, info.Email.Confidence)
	assert.Empty(t, info.Phone.Value)
}

func TestDiscoverRejectsEmailFromWrongDomain(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/contact": `<html><body><main>
			<p>Questions? media@othercorp.net</p>
		</main></body></html>`,
	}}

	d := NewDiscoverer(fetcher, nil, false)
	info, err := d.Discover(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)
	assert.Equal(t, types.ContactNotFound, info.Email.Confidence)
}

func TestDiscoverRejectsInvalidPhoneDigitCount(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/contact": `<html><body><main>
			<p>HR extension: <a href="tel:5100">x5100</a></p>
		</main></body></html>`,
	}}

	d := NewDiscoverer(fetcher, nil, false)
	info, err := d.Discover(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)
	assert.Equal(t, types.ContactNotFound, info.Phone.Confidence)
}

func TestDiscoverRunsFallbackWhenNoAcceptableCandidate(t *testing.T) {
	// Only a support line on the site: score 0.35, below acceptance, so the
	// fallback search runs. Its result is on the company domain, so the
	// source-URL gate passes.
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/contact": `<html><body><main>
			<p>Customer support: (415) 555-0999</p>
		</main></body></html>`,
	}}
	fallback := &fakeFallback{number: "+1 415 555 0100", sourceURL: "https://directory.example/acme.com/listing"}

	d := NewDiscoverer(fetcher, fallback, false)
	info, err := d.Discover(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)

	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, types.ContactHigh, info.Phone.Confidence)
	assert.Equal(t, "+1 415 555 0100", info.Phone.Value)
}

func TestDiscoverSkipsFallbackWhenHRFound(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/contact": `<html><body><main>
			<p>Human resources: (415) 555-0100</p>
		</main></body></html>`,
	}}
	fallback := &fakeFallback{number: "555"}

	d := NewDiscoverer(fetcher, fallback, false)
	info, err := d.Discover(context.Background(), "Acme", "acme.com")
	require.NoError(t, err)

	assert.Zero(t, fallback.calls, "fallback must not run when scraping found an acceptable candidate")
	assert.Equal(t, types.ContactHigh, info.Phone.Confidence)
}

func TestDiscoverRequiresDomain(t *testing.T) {
	d := NewDiscoverer(&fakeFetcher{}, nil, false)
	_, err := d.Discover(context.Background(), "Acme", "")
	assert.Error(t, err)
}
