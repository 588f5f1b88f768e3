package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/employment-verifier/internal/fetch"
)

const (
	// maxFetchRetries is the failure count after which a URL is marked
	// permanently dead.
	maxFetchRetries = 5

	// baseRetryBackoff doubles per failure, capped at maxRetryBackoff.
	baseRetryBackoff = time.Hour
	maxRetryBackoff  = 24 * time.Hour
)

// GetFreshPage returns the cached page for url when it is younger than ttl.
// A miss returns nil without error.
func (db *DB) GetFreshPage(ctx context.Context, url string, ttl time.Duration) (*fetch.CachedPage, error) {
	var p fetch.CachedPage
	err := db.pool.QueryRow(ctx,
		`SELECT id, url, raw_html, parsed_text, http_status, fetch_status, error_message,
			is_permanent_failure, retry_count, retry_after, fetched_at
		 FROM cached_pages
		 WHERE url = $1 AND fetch_status = $2 AND fetched_at > $3`,
		url, fetch.FetchStatusSuccess, time.Now().UTC().Add(-ttl),
	).Scan(&p.ID, &p.URL, &p.RawHTML, &p.ParsedText, &p.HTTPStatus, &p.FetchStatus,
		&p.ErrorMessage, &p.IsPermanentFailure, &p.RetryCount, &p.RetryAfter, &p.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read page cache: %w", err)
	}
	return &p, nil
}

// SavePage upserts a fetched page, clearing any failure bookkeeping.
func (db *DB) SavePage(ctx context.Context, page *fetch.CachedPage) error {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	if page.FetchedAt.IsZero() {
		page.FetchedAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO cached_pages
			(id, url, raw_html, parsed_text, http_status, fetch_status, error_message,
			 is_permanent_failure, retry_count, retry_after, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, '', FALSE, 0, NULL, $7)
		 ON CONFLICT (url) DO UPDATE SET
			raw_html = EXCLUDED.raw_html,
			parsed_text = EXCLUDED.parsed_text,
			http_status = EXCLUDED.http_status,
			fetch_status = EXCLUDED.fetch_status,
			error_message = '',
			is_permanent_failure = FALSE,
			retry_count = 0,
			retry_after = NULL,
			fetched_at = EXCLUDED.fetched_at`,
		page.ID, page.URL, page.RawHTML, page.ParsedText, page.HTTPStatus,
		page.FetchStatus, page.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

// RecordFailedFetch records a failed fetch with exponential backoff. A 404
// or 410, or too many consecutive failures, marks the URL permanently dead.
func (db *DB) RecordFailedFetch(ctx context.Context, url string, statusCode int, message string) error {
	var retryCount int
	err := db.pool.QueryRow(ctx,
		`SELECT retry_count FROM cached_pages WHERE url = $1`, url,
	).Scan(&retryCount)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to read retry count: %w", err)
	}
	retryCount++

	permanent := statusCode == 404 || statusCode == 410 || retryCount >= maxFetchRetries

	backoff := baseRetryBackoff << (retryCount - 1)
	if backoff > maxRetryBackoff {
		backoff = maxRetryBackoff
	}
	retryAfter := time.Now().UTC().Add(backoff)

	_, err = db.pool.Exec(ctx,
		`INSERT INTO cached_pages
			(id, url, http_status, fetch_status, error_message, is_permanent_failure, retry_count, retry_after, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 ON CONFLICT (url) DO UPDATE SET
			http_status = EXCLUDED.http_status,
			fetch_status = EXCLUDED.fetch_status,
			error_message = EXCLUDED.error_message,
			is_permanent_failure = EXCLUDED.is_permanent_failure,
			retry_count = EXCLUDED.retry_count,
			retry_after = EXCLUDED.retry_after,
			fetched_at = NOW()`,
		uuid.New(), url, statusCode, fetch.FetchStatusError, message, permanent, retryCount, retryAfter)
	if err != nil {
		return fmt.Errorf("failed to record failed fetch: %w", err)
	}
	return nil
}

// ShouldSkipURL reports whether a URL is in permanent failure or backoff.
func (db *DB) ShouldSkipURL(ctx context.Context, url string) (bool, string, error) {
	var permanent bool
	var retryAfter *time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT is_permanent_failure, retry_after FROM cached_pages WHERE url = $1`, url,
	).Scan(&permanent, &retryAfter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check URL status: %w", err)
	}

	if permanent {
		return true, "permanently failed", nil
	}
	if retryAfter != nil && retryAfter.After(time.Now().UTC()) {
		return true, fmt.Sprintf("in backoff until %s", retryAfter.Format(time.RFC3339)), nil
	}
	return false, "", nil
}
