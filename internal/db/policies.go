package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/employment-verifier/internal/policy"
)

// GetPolicy returns the stored policy for a normalized employer domain, or
// nil when uncached. This is the durable tier behind the Redis cache.
func (db *DB) GetPolicy(ctx context.Context, domain string) (*policy.Policy, error) {
	var raw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT policy FROM employer_policies WHERE domain = $1`, domain,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}

	var p policy.Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}
	return &p, nil
}

// PutPolicy stores a policy for a domain. Existing entries are left
// untouched; a re-derived classification is identical by construction.
func (db *DB) PutPolicy(ctx context.Context, domain string, p *policy.Policy) error {
	if domain == "" || p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO employer_policies (domain, policy) VALUES ($1, $2)
		 ON CONFLICT (domain) DO NOTHING`,
		domain, raw)
	if err != nil {
		return fmt.Errorf("failed to store policy: %w", err)
	}
	return nil
}

// PolicyCache adapts the DB to the policy.Cache interface.
type PolicyCache struct {
	db *DB
}

// NewPolicyCache returns a DB-backed policy cache.
func NewPolicyCache(db *DB) *PolicyCache {
	return &PolicyCache{db: db}
}

// Get returns the cached policy for a domain.
func (c *PolicyCache) Get(ctx context.Context, domain string) (*policy.Policy, error) {
	return c.db.GetPolicy(ctx, domain)
}

// Put caches a policy for a domain.
func (c *PolicyCache) Put(ctx context.Context, domain string, p *policy.Policy) error {
	return c.db.PutPolicy(ctx, domain, p)
}
