package policy

import (
	"context"
	"sync"
)

// Cache stores learned employer verification policies keyed by normalized
// employer domain. Writes are idempotent: the same classification computed
// twice is harmless, so implementations need no locking beyond basic safety,
// but should duplicate-check before insert to avoid redundant rows.
type Cache interface {
	// Get returns the cached policy for a domain, or nil when uncached.
	Get(ctx context.Context, domain string) (*Policy, error)

	// Put caches a policy for a domain.
	Put(ctx context.Context, domain string, p *Policy) error
}

// MemoryCache is an in-process policy cache for tests and CLI runs.
type MemoryCache struct {
	mu       sync.RWMutex
	policies map[string]*Policy
}

// NewMemoryCache creates an empty in-memory policy cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{policies: make(map[string]*Policy)}
}

// Get returns the cached policy for a domain.
func (c *MemoryCache) Get(_ context.Context, domain string) (*Policy, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.policies[domain]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// Put caches a policy for a domain. Existing entries are left untouched;
// a re-derived classification is identical by construction.
func (c *MemoryCache) Put(_ context.Context, domain string, p *Policy) error {
	if domain == "" || p == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.policies[domain]; exists {
		return nil
	}
	cp := *p
	c.policies[domain] = &cp
	return nil
}

// Tiered layers a fast cache (Redis) over a durable one (Postgres). Reads
// fall through on a miss and backfill the fast tier; writes go to both.
type Tiered struct {
	fast    Cache
	durable Cache
}

// NewTiered creates a tiered cache.
func NewTiered(fast, durable Cache) *Tiered {
	return &Tiered{fast: fast, durable: durable}
}

// Get checks the fast tier first, then the durable one. A durable hit is
// backfilled into the fast tier best-effort.
func (c *Tiered) Get(ctx context.Context, domain string) (*Policy, error) {
	p, err := c.fast.Get(ctx, domain)
	if err != nil || p != nil {
		return p, err
	}
	p, err = c.durable.Get(ctx, domain)
	if err != nil || p == nil {
		return p, err
	}
	_ = c.fast.Put(ctx, domain, p)
	return p, nil
}

// Put writes both tiers. The durable write is authoritative; a fast-tier
// failure only costs a future backfill.
func (c *Tiered) Put(ctx context.Context, domain string, p *Policy) error {
	if err := c.durable.Put(ctx, domain, p); err != nil {
		return err
	}
	_ = c.fast.Put(ctx, domain, p)
	return nil
}
