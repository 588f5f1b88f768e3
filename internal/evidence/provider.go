// Package evidence gathers public proof of employment claims from
// independent lookup sources.
package evidence

import (
	"context"
	"log"

	"github.com/jonathan/employment-verifier/internal/types"
)

// Provider is one independent evidence source for a (candidate, employer)
// pair. Providers are stateless, idempotent and individually retryable.
type Provider interface {
	// Name identifies the provider in logs and artifacts.
	Name() string

	// Lookup produces evidence for the pair. Implementations should return
	// an error only for infrastructure failures; "nothing found" is a
	// normal result with Found=false.
	Lookup(ctx context.Context, candidateName, employer string) (*types.EvidenceResult, error)
}

// Gather runs every provider and combines their results. A provider failure
// degrades to an empty not-found result and is logged for manual retry; it
// never aborts the whole lookup, and a failure is never upgraded to a
// positive outcome.
//
// The combined result carries the highest confidence any provider reached
// and the artifacts of every provider that found something.
func Gather(ctx context.Context, providers []Provider, candidateName, employer string) *types.EvidenceResult {
	combined := types.EmptyEvidence("no evidence providers returned a match")

	for _, p := range providers {
		result, err := p.Lookup(ctx, candidateName, employer)
		if err != nil {
			log.Printf("[EVIDENCE] provider %s failed for %q @ %q: %v", p.Name(), candidateName, employer, err)
			continue
		}
		if result == nil || !result.Found {
			continue
		}

		combined.Found = true
		combined.Artifacts = append(combined.Artifacts, result.Artifacts...)
		if result.Confidence > combined.Confidence {
			combined.Confidence = result.Confidence
			combined.Reasoning = result.Reasoning
		}
	}

	return combined
}
