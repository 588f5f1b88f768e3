package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "EmployVerifier")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><main>Contact us at 555-0100</main></body></html>"))
	}))
	defer srv.Close()

	result, err := URL(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Contains(t, result.HTML, "Contact us")
}

func TestURLNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	result, err := URL(context.Background(), srv.URL, nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.False(t, fetchErr.Retryable)
}

func TestURLInvalid(t *testing.T) {
	_, err := URL(context.Background(), "not-a-url", nil)
	assert.Error(t, err)
}

func TestExtractMainTextStripsNoise(t *testing.T) {
	html := `<html><body>
		<nav>Navigation</nav>
		<main>HR Department: (415) 555-0100</main>
		<footer>Footer junk</footer>
	</body></html>`

	text, err := ExtractMainText(html, ContactPageSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "HR Department")
	assert.NotContains(t, text, "Navigation")
	assert.NotContains(t, text, "Footer junk")
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("short"))
	long := make([]byte, MinContentLength+1)
	for i := range long {
		long[i] = 'x'
	}
	assert.False(t, ShouldUseBrowser(string(long)))
}

// fakePageStore is a map-backed PageStore for cache tests.
type fakePageStore struct {
	pages   map[string]*CachedPage
	skipped map[string]string
	saved   int
	failed  int
}

func newFakePageStore() *fakePageStore {
	return &fakePageStore{pages: make(map[string]*CachedPage), skipped: make(map[string]string)}
}

func (s *fakePageStore) GetFreshPage(_ context.Context, url string, ttl time.Duration) (*CachedPage, error) {
	p, ok := s.pages[url]
	if !ok || time.Since(p.FetchedAt) > ttl {
		return nil, nil
	}
	return p, nil
}

func (s *fakePageStore) SavePage(_ context.Context, page *CachedPage) error {
	s.pages[page.URL] = page
	s.saved++
	return nil
}

func (s *fakePageStore) RecordFailedFetch(_ context.Context, _ string, _ int, _ string) error {
	s.failed++
	return nil
}

func (s *fakePageStore) ShouldSkipURL(_ context.Context, url string) (bool, string, error) {
	reason, ok := s.skipped[url]
	return ok, reason, nil
}

func TestCachedFetcherUsesCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte("<html><body><main>fresh page</main></body></html>"))
	}))
	defer srv.Close()

	fetcher := NewCachedFetcher(newFakePageStore(), nil)

	first, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, hits, "second fetch must be served from cache")
}

func TestCachedFetcherSkipsDeadURLs(t *testing.T) {
	storeFake := newFakePageStore()
	storeFake.skipped["https://dead.example.com"] = "permanent failure"

	fetcher := NewCachedFetcher(storeFake, nil)
	_, err := fetcher.Fetch(context.Background(), "https://dead.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "URL skipped")
}

func TestCachedFetcherRecordsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	storeFake := newFakePageStore()
	fetcher := NewCachedFetcher(storeFake, nil)

	_, err := fetcher.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, 1, storeFake.failed)
}
