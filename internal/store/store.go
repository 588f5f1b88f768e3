// Package store defines the persistence interfaces for canonical candidates,
// verification attempts, workflow runs and attestations, plus in-memory
// implementations used by tests and CLI dry runs. The Postgres
// implementations live in internal/db.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/types"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// CandidateStore provides CRUD access to canonical candidate records.
type CandidateStore interface {
	// GetCandidate returns the candidate by ID, or ErrNotFound.
	GetCandidate(ctx context.Context, id uuid.UUID) (*types.CanonicalCandidate, error)

	// FindCandidateByEmail returns the candidate with the given normalized
	// email, or nil if none exists. Absence is not an error.
	FindCandidateByEmail(ctx context.Context, email string) (*types.CanonicalCandidate, error)

	// FindCandidatesByName returns all candidates whose normalized name
	// equals the given normalized name.
	FindCandidatesByName(ctx context.Context, normalizedName string) ([]*types.CanonicalCandidate, error)

	// CreateCandidate persists a new candidate, assigning its ID if unset.
	CreateCandidate(ctx context.Context, c *types.CanonicalCandidate) error

	// UpdateCandidate persists changes to an existing candidate.
	UpdateCandidate(ctx context.Context, c *types.CanonicalCandidate) error

	// UpsertEmployer replaces the employer record matching rec.Name (by the
	// normalized/substring equality rule) on the latest persisted candidate,
	// or appends it if no entry matches. Implementations must re-read the
	// candidate inside the call so concurrent runs for the same candidate do
	// not lose each other's channel-status updates.
	UpsertEmployer(ctx context.Context, candidateID uuid.UUID, rec types.EmployerRecord) error
}

// AttemptStore persists verification attempts.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, a *types.VerificationAttempt) error
	UpdateAttempt(ctx context.Context, a *types.VerificationAttempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (*types.VerificationAttempt, error)
	ListAttemptsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]*types.VerificationAttempt, error)
}

// WorkflowStore persists multi-channel workflow runs and their email
// correlation tokens.
type WorkflowStore interface {
	CreateWorkflow(ctx context.Context, w *types.WorkflowRun) error
	UpdateWorkflow(ctx context.Context, w *types.WorkflowRun) error
	GetWorkflow(ctx context.Context, id uuid.UUID) (*types.WorkflowRun, error)

	// ConsumeToken atomically looks up the workflow in EMAIL_SENT state that
	// owns the given reply token and marks the token consumed. The second
	// return value is false when the token is unknown or already consumed;
	// duplicate webhook deliveries therefore resolve a run exactly once.
	ConsumeToken(ctx context.Context, token string) (*types.WorkflowRun, bool, error)
}

// AttestationStore records written attestations for duplicate-write guarding.
type AttestationStore interface {
	// HasAttestation reports whether an attestation already exists for the
	// (candidate hash, employer, channel) triple.
	HasAttestation(ctx context.Context, candidateHash, employer, channel string) (bool, error)

	// SaveAttestation persists an attestation record.
	SaveAttestation(ctx context.Context, a *types.Attestation) error
}
