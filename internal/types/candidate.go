package types

import (
	"time"

	"github.com/google/uuid"
)

// ChannelStatus is the per-channel verification status on an employer record.
// Statuses are monotonic: not_started -> pending -> one of the resolved
// states. A channel never regresses to pending once resolved.
type ChannelStatus string

// Channel statuses.
const (
	ChannelNotStarted   ChannelStatus = "not_started"
	ChannelPending      ChannelStatus = "pending"
	ChannelYes          ChannelStatus = "yes"
	ChannelNo           ChannelStatus = "no"
	ChannelRefused      ChannelStatus = "refused"
	ChannelInconclusive ChannelStatus = "inconclusive"
)

// Resolved reports whether the status is one of the terminal channel states.
func (s ChannelStatus) Resolved() bool {
	switch s {
	case ChannelYes, ChannelNo, ChannelRefused, ChannelInconclusive:
		return true
	}
	return false
}

// CanTransitionTo enforces the monotonic channel-status ordering.
func (s ChannelStatus) CanTransitionTo(next ChannelStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ChannelNotStarted, "":
		return true
	case ChannelPending:
		return next != ChannelNotStarted
	default:
		// Resolved states only move between resolved states (e.g. a manual
		// attestation overriding an inconclusive call), never back to pending.
		return next.Resolved()
	}
}

// Verification channels on an employer record.
const (
	ChannelWeb               = "web"
	ChannelCall              = "call"
	ChannelEmail             = "email"
	ChannelManualAttestation = "manual_attestation"
)

// EmployerRecord is one claimed employment relationship on a canonical
// candidate.
type EmployerRecord struct {
	Name          string                   `json:"name"`
	Statuses      map[string]ChannelStatus `json:"statuses"`
	ArtifactCount int                      `json:"artifact_count"`
	LedgerRefs    map[string]string        `json:"ledger_refs,omitempty"`
}

// NewEmployerRecord returns an employer record with all channels unstarted.
func NewEmployerRecord(name string) EmployerRecord {
	return EmployerRecord{
		Name: name,
		Statuses: map[string]ChannelStatus{
			ChannelWeb:               ChannelNotStarted,
			ChannelCall:              ChannelNotStarted,
			ChannelEmail:             ChannelNotStarted,
			ChannelManualAttestation: ChannelNotStarted,
		},
	}
}

// CanonicalCandidate is the deduplicated record representing one real person
// across resume scans and manual attestations. Records are append-only
// evidence: they are created, merged into, and never deleted.
type CanonicalCandidate struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email,omitempty"`
	Phone       string           `json:"phone,omitempty"`
	LinkedInURL string           `json:"linkedin_url,omitempty"`
	City        string           `json:"city,omitempty"`
	State       string           `json:"state,omitempty"`
	Employers   []EmployerRecord `json:"employers"`
	LedgerRef   string           `json:"ledger_ref,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CandidateData is the raw candidate information extracted from one resume
// scan or manual entry, before identity resolution.
type CandidateData struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
}

// MatchType describes how an incoming scan was resolved to a canonical
// candidate.
type MatchType string

// Match types, in matching-priority order.
const (
	MatchEmail           MatchType = "email"
	MatchNameAndEmployer MatchType = "name_employer_overlap"
	MatchNone            MatchType = "new"
)
