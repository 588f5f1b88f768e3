// Package fetch - cached.go wraps URL fetching with store-backed caching.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultPageCacheTTL is how long cached company pages stay fresh. Contact
// pages change rarely; a week keeps repeat verifications cheap.
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// CachedPage is a stored fetch result with failure-tracking metadata.
type CachedPage struct {
	ID                 uuid.UUID
	URL                string
	RawHTML            string
	ParsedText         string
	HTTPStatus         int
	FetchStatus        string
	ErrorMessage       string
	IsPermanentFailure bool
	RetryCount         int
	RetryAfter         *time.Time
	FetchedAt          time.Time
	ExpiresAt          *time.Time
}

// Fetch statuses for cached pages.
const (
	FetchStatusSuccess = "success"
	FetchStatusError   = "error"
)

// PageStore persists fetched pages. The Postgres implementation lives in
// internal/db; tests use a map-backed fake.
type PageStore interface {
	// GetFreshPage returns the cached page for url when it is younger than
	// ttl, or nil on a miss.
	GetFreshPage(ctx context.Context, url string, ttl time.Duration) (*CachedPage, error)

	// SavePage upserts a fetched page.
	SavePage(ctx context.Context, page *CachedPage) error

	// RecordFailedFetch records a failed fetch for backoff tracking.
	RecordFailedFetch(ctx context.Context, url string, statusCode int, message string) error

	// ShouldSkipURL reports whether a URL is in permanent failure or backoff.
	ShouldSkipURL(ctx context.Context, url string) (bool, string, error)
}

// CachedFetcher wraps URL fetching with store-backed caching.
type CachedFetcher struct {
	store     PageStore
	options   *Options
	cacheTTL  time.Duration
	skipCache bool // for testing or forcing fresh fetches
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// NewCachedFetcher creates a new cached fetcher. A nil store disables
// caching and every call fetches fresh.
func NewCachedFetcher(store PageStore, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = &CachedFetcherConfig{}
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultPageCacheTTL
	}
	return &CachedFetcher{
		store:     store,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, using the cache if available and fresh. Failed
// fetches are recorded so repeatedly dead URLs back off.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if !f.skipCache && f.store != nil {
		shouldSkip, reason, err := f.store.ShouldSkipURL(ctx, urlStr)
		if err != nil {
			return nil, fmt.Errorf("failed to check skip status: %w", err)
		}
		if shouldSkip {
			return nil, &Error{
				URL:     urlStr,
				Message: fmt.Sprintf("URL skipped: %s", reason),
			}
		}

		cached, err := f.store.GetFreshPage(ctx, urlStr, f.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache: %w", err)
		}
		if cached != nil {
			return &CachedResult{
				Result: &Result{
					URL:        cached.URL,
					HTML:       cached.RawHTML,
					Text:       cached.ParsedText,
					StatusCode: cached.HTTPStatus,
				},
				FromCache: true,
			}, nil
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		if f.store != nil {
			statusCode := 0
			if result != nil {
				statusCode = result.StatusCode
			}
			_ = f.store.RecordFailedFetch(ctx, urlStr, statusCode, err.Error())
		}
		return nil, err
	}

	text, _ := ExtractMainText(result.HTML, ContactPageSelectors())
	result.Text = text

	if f.store != nil {
		page := &CachedPage{
			URL:         urlStr,
			RawHTML:     result.HTML,
			ParsedText:  result.Text,
			HTTPStatus:  result.StatusCode,
			FetchStatus: FetchStatusSuccess,
			FetchedAt:   time.Now().UTC(),
		}
		// A cache-write failure never fails the fetch itself.
		_ = f.store.SavePage(ctx, page)
	}

	return &CachedResult{
		Result:    result,
		FromCache: false,
	}, nil
}
