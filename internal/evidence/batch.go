package evidence

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/types"
)

// maxConcurrentLookups bounds parallel evidence gathering within a batch.
const maxConcurrentLookups = 4

// Batch holds evidence computed once per candidate and shared read-only
// across every employer run in a batch verification. Get hands out deep
// copies so per-run artifact appends never mutate the shared results.
type Batch struct {
	mu      sync.RWMutex
	results map[string]*types.EvidenceResult // keyed by normalized employer
}

// NewBatch gathers evidence for every employer up front, in parallel.
// Individual provider failures degrade inside Gather; the batch itself only
// fails on context cancellation.
func NewBatch(ctx context.Context, providers []Provider, candidateName string, employers []string) (*Batch, error) {
	b := &Batch{results: make(map[string]*types.EvidenceResult, len(employers))}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)

	for _, employer := range employers {
		key := identity.NormalizeEmployer(employer)
		b.mu.Lock()
		_, dup := b.results[key]
		if !dup {
			b.results[key] = nil // reserve
		}
		b.mu.Unlock()
		if dup {
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := Gather(ctx, providers, candidateName, employer)
			b.mu.Lock()
			b.results[key] = result
			b.mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns a deep copy of the evidence for an employer, or a degraded
// empty result when the employer was not part of the batch.
func (b *Batch) Get(employer string) *types.EvidenceResult {
	b.mu.RLock()
	result := b.results[identity.NormalizeEmployer(employer)]
	b.mu.RUnlock()

	if result == nil {
		return types.EmptyEvidence("employer was not part of the evidence batch")
	}
	return result.Clone()
}
