// Package orchestrator implements the per-(candidate, employer) verification
// decision engine: a sequential stage pipeline that stops as soon as the
// evidence at hand supports a decision, and otherwise routes the caller to
// the next most useful contact channel.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/employment-verifier/internal/policy"
	"github.com/jonathan/employment-verifier/internal/types"
)

// Branch confidences are fixed, hand-assigned scores per decision branch,
// not model probabilities. Downstream UI and attestation writing branch on
// the exact values, so they must not drift.
const (
	// ConfidenceNetworkRequired is assigned on the network-policy hard stop.
	ConfidenceNetworkRequired = 0.95

	// VerifiedEvidenceThreshold is the inclusive evidence confidence at
	// which a claim is verified outright.
	VerifiedEvidenceThreshold = 0.85

	// CorroboratingThreshold is the inclusive lower bound of the
	// corroborating-but-not-conclusive evidence band.
	CorroboratingThreshold = 0.6

	// ConfidencePolicyFloor is the minimum confidence reported when
	// corroborating evidence combines with a known direct policy.
	ConfidencePolicyFloor = 0.7

	// ConfidenceContactOnly is assigned when all we have is a phone number.
	ConfidenceContactOnly = 0.3

	// ConfidenceDeadEnd is assigned when no route forward exists.
	ConfidenceDeadEnd = 0.1
)

// Method values reported on results, naming the decision branch taken.
const (
	MethodNetworkPolicy     = "network_policy"
	MethodPublicEvidence    = "public_evidence"
	MethodPolicyAndEvidence = "policy_and_evidence"
	MethodDirectContact     = "direct_contact"
	MethodNone              = "none"
)

// Input is one verification run's parameters. Evidence is pre-computed:
// public evidence is batch-computed once per candidate across all employers
// (web search is the most expensive operation in the pipeline) and the
// caller hands each run its own deep copy.
type Input struct {
	CandidateName string
	Employer      string
	EmployerPhone string // optional known phone
	JobTitle      string // optional
	Evidence      *types.EvidenceResult
}

// Orchestrator walks the verification stage pipeline for one pair.
type Orchestrator struct {
	policies policy.Cache
	now      func() time.Time
	verbose  bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithVerbose enables per-stage logging.
func WithVerbose(verbose bool) Option {
	return func(o *Orchestrator) { o.verbose = verbose }
}

// New creates an orchestrator backed by the given policy cache.
func New(policies policy.Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		policies: policies,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the stage pipeline for one (candidate, employer) pair. Stages
// run strictly in order and are never revisited; every transition is
// appended to the result's stage history with its timestamp.
//
// The decision order is: network policy first (a network-only employer is a
// hard stop at 0.95 no matter what else is known), then conclusive public
// evidence, then the corroborating-evidence-plus-policy combination, then
// contact-based routing, then the dead end.
func (o *Orchestrator) Run(ctx context.Context, input Input) (*types.VerificationResult, error) {
	if input.Employer == "" {
		return nil, fmt.Errorf("employer name is required")
	}

	result := &types.VerificationResult{Status: types.StatusInProgress}

	// Stage 1: contact enrichment. Pure bookkeeping: record whether a phone
	// number is known; the fact feeds later branching but transitions nothing.
	o.enterStage(result, types.StageContactEnrichment)
	phoneKnown := input.EmployerPhone != ""
	if phoneKnown {
		result.ProofArtifacts = append(result.ProofArtifacts, types.EvidenceArtifact{
			Type:      types.ArtifactContactInfo,
			Value:     input.EmployerPhone,
			Label:     "Known employer phone",
			Timestamp: o.now(),
		})
	}

	// Stage 2: policy discovery.
	o.enterStage(result, types.StagePolicyDiscovery)
	pol := o.discoverPolicy(ctx, input.Employer)
	if pol.Network() {
		// Network verification needs a paid vendor integration we do not
		// automate. This is a deliberate hard stop, not a failure, and it
		// wins over any public evidence.
		o.enterStage(result, types.StageCompletion)
		result.Status = types.StatusCompleted
		result.Outcome = types.OutcomeNetworkRequired
		result.Method = MethodNetworkPolicy
		result.Confidence = ConfidenceNetworkRequired
		result.IsVerified = false
		result.ProofArtifacts = append(result.ProofArtifacts, policyArtifact(pol, o.now()))
		return result, nil
	}

	// Stage 3: public evidence verification.
	o.enterStage(result, types.StagePublicEvidenceVerification)
	ev := input.Evidence
	if ev != nil && ev.Found {
		if ev.Confidence >= VerifiedEvidenceThreshold {
			// Strong direct evidence outranks indirect policy inference.
			o.enterStage(result, types.StageCompletion)
			result.Status = types.StatusCompleted
			result.Outcome = types.OutcomeVerifiedPublicEvidence
			result.Method = MethodPublicEvidence
			result.Confidence = ev.Confidence
			result.IsVerified = true
			result.ProofArtifacts = append(result.ProofArtifacts, ev.Artifacts...)
			return result, nil
		}

		if ev.Confidence >= CorroboratingThreshold && pol != nil {
			// Corroborating but not conclusive, with a known direct policy:
			// hand the decision back to the caller with manual next steps.
			o.enterStage(result, types.StageCompletion)
			result.Status = types.StatusActionRequired
			result.Outcome = types.OutcomePolicyIdentified
			result.Method = MethodPolicyAndEvidence
			result.Confidence = maxFloat(ConfidencePolicyFloor, ev.Confidence)
			result.IsVerified = false
			result.ProofArtifacts = append(result.ProofArtifacts, policyArtifact(pol, o.now()))
			result.ProofArtifacts = append(result.ProofArtifacts, ev.Artifacts...)
			result.NextSteps = policyIdentifiedSteps()
			return result, nil
		}
	}

	// Stage 4: fallback routing. No conclusive evidence and no usable policy.
	o.enterStage(result, types.StageCompletion)
	if phoneKnown {
		result.Status = types.StatusActionRequired
		result.Outcome = types.OutcomeContactIdentified
		result.Method = MethodDirectContact
		result.Confidence = ConfidenceContactOnly
		result.IsVerified = false
		result.NextSteps = contactIdentifiedSteps()
		return result, nil
	}

	result.Status = types.StatusCompleted
	result.Outcome = types.OutcomeUnableToVerify
	result.Method = MethodNone
	result.Confidence = ConfidenceDeadEnd
	result.IsVerified = false
	return result, nil
}

// discoverPolicy returns the cached or freshly-classified policy for the
// employer, or nil when none applies. Cache failures degrade to
// classification; classification results are cached best-effort.
func (o *Orchestrator) discoverPolicy(ctx context.Context, employer string) *policy.Policy {
	key := policy.DomainKey(employer)

	if o.policies != nil {
		cached, err := o.policies.Get(ctx, key)
		if err != nil {
			log.Printf("[ORCHESTRATOR] policy cache read failed for %s: %v", key, err)
		} else if cached != nil {
			return cached
		}
	}

	classified := policy.Classify(employer)
	if classified != nil && o.policies != nil {
		if err := o.policies.Put(ctx, key, classified); err != nil {
			log.Printf("[ORCHESTRATOR] policy cache write failed for %s: %v", key, err)
		}
	}
	return classified
}

// enterStage appends a stage transition to the result.
func (o *Orchestrator) enterStage(result *types.VerificationResult, stage types.Stage) {
	result.Stage = stage
	result.StageHistory = append(result.StageHistory, types.StageEntry{
		Stage:     stage,
		Timestamp: o.now(),
	})
	if o.verbose {
		log.Printf("[ORCHESTRATOR] stage %s", stage)
	}
}

func policyArtifact(p *policy.Policy, at time.Time) types.EvidenceArtifact {
	label := "Employer verification policy: " + string(p.Method)
	if p.Vendor != "" {
		label += " via " + p.Vendor
	}
	return types.EvidenceArtifact{
		Type:      types.ArtifactPolicyRecord,
		Value:     p.Domain,
		Label:     label,
		Timestamp: at,
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
