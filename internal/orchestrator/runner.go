package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/evidence"
	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

// Runner drives full-candidate verification: it batch-computes public
// evidence once, then runs the stage pipeline for every claimed employer and
// persists the attempts and the per-channel status updates.
type Runner struct {
	orch       *Orchestrator
	providers  []evidence.Provider
	attempts   store.AttemptStore
	candidates store.CandidateStore
	now        func() time.Time
}

// NewRunner creates a verification runner.
func NewRunner(orch *Orchestrator, providers []evidence.Provider, attempts store.AttemptStore, candidates store.CandidateStore) *Runner {
	return &Runner{
		orch:       orch,
		providers:  providers,
		attempts:   attempts,
		candidates: candidates,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// VerifyAll verifies every claimed employer on the candidate. Evidence is
// gathered once per candidate up front and shared read-only across the
// employer runs; each run receives its own deep copy. Employer runs are
// strictly sequential per candidate, so one run's channel updates are
// visible to the next.
//
// phoneByEmployer optionally supplies known employer phone numbers, keyed
// by employer name as claimed.
func (r *Runner) VerifyAll(ctx context.Context, candidate *types.CanonicalCandidate, phoneByEmployer map[string]string) ([]*types.VerificationAttempt, error) {
	employers := make([]string, 0, len(candidate.Employers))
	for _, rec := range candidate.Employers {
		employers = append(employers, rec.Name)
	}

	batch, err := evidence.NewBatch(ctx, r.providers, candidate.Name, employers)
	if err != nil {
		return nil, fmt.Errorf("evidence batch for candidate %s: %w", candidate.ID, err)
	}

	attempts := make([]*types.VerificationAttempt, 0, len(employers))
	for _, employer := range employers {
		attempt, err := r.verifyOne(ctx, candidate, employer, phoneByEmployer[employer], batch)
		if err != nil {
			return attempts, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

// verifyOne runs the pipeline for a single employer and persists the result.
func (r *Runner) verifyOne(ctx context.Context, candidate *types.CanonicalCandidate, employer, phone string, batch *evidence.Batch) (*types.VerificationAttempt, error) {
	attempt := &types.VerificationAttempt{
		CandidateID: candidate.ID,
		Employer:    employer,
		Status:      types.StatusQueued,
		CreatedAt:   r.now(),
		UpdatedAt:   r.now(),
	}
	if err := r.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt for %s: %w", employer, err)
	}

	attempt.Status = types.StatusInProgress
	result, err := r.orch.Run(ctx, Input{
		CandidateName: candidate.Name,
		Employer:      employer,
		EmployerPhone: phone,
		Evidence:      batch.Get(employer),
	})
	if err != nil {
		attempt.Status = types.StatusFailed
		attempt.UpdatedAt = r.now()
		_ = r.attempts.UpdateAttempt(ctx, attempt)
		return attempt, fmt.Errorf("verification run for %s: %w", employer, err)
	}

	applyResult(attempt, result, r.now())
	if err := r.attempts.UpdateAttempt(ctx, attempt); err != nil {
		return attempt, fmt.Errorf("failed to persist attempt for %s: %w", employer, err)
	}

	if err := r.recordWebChannel(ctx, candidate.ID, employer, result); err != nil {
		return attempt, err
	}
	return attempt, nil
}

// applyResult copies a run result onto the persisted attempt record.
func applyResult(attempt *types.VerificationAttempt, result *types.VerificationResult, at time.Time) {
	attempt.Stage = result.Stage
	attempt.StageHistory = result.StageHistory
	attempt.Status = result.Status
	attempt.Outcome = result.Outcome
	attempt.Confidence = result.Confidence
	attempt.IsVerified = result.IsVerified
	attempt.Artifacts = result.ProofArtifacts
	attempt.NextSteps = result.NextSteps
	attempt.UpdatedAt = at
}

// recordWebChannel folds the run outcome into the candidate's per-employer
// web channel status. The update goes through UpsertEmployer so concurrent
// runs for the same candidate do not lose each other's changes.
func (r *Runner) recordWebChannel(ctx context.Context, candidateID uuid.UUID, employer string, result *types.VerificationResult) error {
	latest, err := r.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("failed to reload candidate: %w", err)
	}

	rec := findEmployerRecord(latest, employer)
	if rec.Statuses == nil {
		rec.Statuses = make(map[string]types.ChannelStatus)
	}
	next := webStatusFor(result.Outcome)
	current := rec.Statuses[types.ChannelWeb]
	if current.CanTransitionTo(next) {
		rec.Statuses[types.ChannelWeb] = next
	}
	rec.ArtifactCount += len(result.ProofArtifacts)

	return r.candidates.UpsertEmployer(ctx, latest.ID, rec)
}

// webStatusFor maps a verification outcome onto the web channel status.
func webStatusFor(outcome types.Outcome) types.ChannelStatus {
	switch outcome {
	case types.OutcomeVerifiedPublicEvidence:
		return types.ChannelYes
	default:
		return types.ChannelInconclusive
	}
}

// findEmployerRecord returns the matching employer record from the
// candidate, or a fresh one when the employer is not yet listed.
func findEmployerRecord(candidate *types.CanonicalCandidate, employer string) types.EmployerRecord {
	for _, rec := range candidate.Employers {
		if identity.EmployersMatch(rec.Name, employer) {
			return rec
		}
	}
	return types.NewEmployerRecord(employer)
}
