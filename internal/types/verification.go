// Package types defines the shared domain types for employment verification.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies one phase of the orchestrator's sequential pipeline.
type Stage string

// Orchestrator stages, in pipeline order.
const (
	StageContactEnrichment          Stage = "contact_enrichment"
	StagePolicyDiscovery            Stage = "policy_discovery"
	StagePublicEvidenceVerification Stage = "public_evidence_verification"
	StageCompletion                 Stage = "completion"
)

// Status describes the lifecycle state of a verification attempt.
type Status string

// Verification attempt statuses.
const (
	StatusQueued         Status = "queued"
	StatusInProgress     Status = "in_progress"
	StatusActionRequired Status = "action_required"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

// Outcome classifies the result of a verification attempt.
type Outcome string

// Verification outcomes.
const (
	OutcomeVerifiedPublicEvidence Outcome = "verified_public_evidence"
	OutcomeNetworkRequired        Outcome = "network_required"
	OutcomePolicyIdentified       Outcome = "policy_identified"
	OutcomeContactIdentified      Outcome = "contact_identified"
	OutcomeUnableToVerify         Outcome = "unable_to_verify"
)

// StageEntry records one stage transition with its timestamp.
type StageEntry struct {
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
}

// NextStep describes a follow-up action the caller may take after a
// non-terminal verification outcome.
type NextStep struct {
	Action   string `json:"action"`
	Label    string `json:"label"`
	Enabled  bool   `json:"enabled"`
	Priority int    `json:"priority"`
}

// VerificationResult is the orchestrator's output for one (candidate,
// employer) pair. It carries the full audit trail: the stage reached, every
// stage transition, and the evidence collected along the way.
type VerificationResult struct {
	Stage          Stage              `json:"stage"`
	StageHistory   []StageEntry       `json:"stage_history"`
	Status         Status             `json:"status"`
	Outcome        Outcome            `json:"outcome"`
	Method         string             `json:"method"`
	Confidence     float64            `json:"confidence"`
	IsVerified     bool               `json:"is_verified"`
	NextSteps      []NextStep         `json:"next_steps"`
	ProofArtifacts []EvidenceArtifact `json:"proof_artifacts"`
}

// VerificationAttempt is the persisted record of one orchestrator run for a
// (candidate, employer) pair.
type VerificationAttempt struct {
	ID           uuid.UUID          `json:"id"`
	CandidateID  uuid.UUID          `json:"candidate_id"`
	Employer     string             `json:"employer"`
	Stage        Stage              `json:"stage"`
	StageHistory []StageEntry       `json:"stage_history"`
	Status       Status             `json:"status"`
	Outcome      Outcome            `json:"outcome,omitempty"`
	Confidence   float64            `json:"confidence"`
	IsVerified   bool               `json:"is_verified"`
	Artifacts    []EvidenceArtifact `json:"proof_artifacts"`
	NextSteps    []NextStep         `json:"next_steps"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Terminal reports whether the attempt can no longer be mutated.
// A completed attempt is terminal; so is an unrecoverable failure.
func (a *VerificationAttempt) Terminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusFailed
}

// AppendStage records a stage transition on the attempt. The history is
// append-only and strictly time-ordered; callers never truncate it.
func (a *VerificationAttempt) AppendStage(stage Stage, at time.Time) {
	a.Stage = stage
	a.StageHistory = append(a.StageHistory, StageEntry{Stage: stage, Timestamp: at})
}
