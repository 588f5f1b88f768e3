package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

const attemptColumns = `id, candidate_id, employer, stage, stage_history, status, outcome, confidence, is_verified, artifacts, next_steps, created_at, updated_at`

func scanAttempt(row pgx.Row) (*types.VerificationAttempt, error) {
	var a types.VerificationAttempt
	var history, artifacts, nextSteps []byte
	err := row.Scan(&a.ID, &a.CandidateID, &a.Employer, &a.Stage, &history, &a.Status,
		&a.Outcome, &a.Confidence, &a.IsVerified, &artifacts, &nextSteps, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan attempt: %w", err)
	}
	if err := json.Unmarshal(history, &a.StageHistory); err != nil {
		return nil, fmt.Errorf("failed to decode stage history: %w", err)
	}
	if err := json.Unmarshal(artifacts, &a.Artifacts); err != nil {
		return nil, fmt.Errorf("failed to decode artifacts: %w", err)
	}
	if err := json.Unmarshal(nextSteps, &a.NextSteps); err != nil {
		return nil, fmt.Errorf("failed to decode next steps: %w", err)
	}
	return &a, nil
}

func attemptJSON(a *types.VerificationAttempt) (history, artifacts, nextSteps []byte, err error) {
	if history, err = json.Marshal(orEmptyHistory(a.StageHistory)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode stage history: %w", err)
	}
	if artifacts, err = json.Marshal(orEmptyArtifacts(a.Artifacts)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode artifacts: %w", err)
	}
	if nextSteps, err = json.Marshal(orEmptySteps(a.NextSteps)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode next steps: %w", err)
	}
	return history, artifacts, nextSteps, nil
}

// CreateAttempt persists a new verification attempt.
func (db *DB) CreateAttempt(ctx context.Context, a *types.VerificationAttempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	history, artifacts, nextSteps, err := attemptJSON(a)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO verification_attempts
			(`+attemptColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.CandidateID, a.Employer, a.Stage, history, a.Status,
		a.Outcome, a.Confidence, a.IsVerified, artifacts, nextSteps, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// UpdateAttempt persists changes to an attempt. Completed attempts are
// terminal and reject further mutation.
func (db *DB) UpdateAttempt(ctx context.Context, a *types.VerificationAttempt) error {
	a.UpdatedAt = time.Now().UTC()

	history, artifacts, nextSteps, err := attemptJSON(a)
	if err != nil {
		return err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE verification_attempts SET
			stage = $2, stage_history = $3, status = $4, outcome = $5,
			confidence = $6, is_verified = $7, artifacts = $8, next_steps = $9, updated_at = $10
		 WHERE id = $1 AND status <> 'completed'`,
		a.ID, a.Stage, history, a.Status, a.Outcome,
		a.Confidence, a.IsVerified, artifacts, nextSteps, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the attempt does not exist or it already completed.
		existing, err := db.GetAttempt(ctx, a.ID)
		if err != nil {
			return err
		}
		if existing.Status == types.StatusCompleted {
			return store.ErrAttemptTerminal
		}
		return store.ErrNotFound
	}
	return nil
}

// GetAttempt returns the attempt by ID.
func (db *DB) GetAttempt(ctx context.Context, id uuid.UUID) (*types.VerificationAttempt, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM verification_attempts WHERE id = $1`, id)
	return scanAttempt(row)
}

// ListAttemptsByCandidate returns all attempts for a candidate, oldest
// first.
func (db *DB) ListAttemptsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]*types.VerificationAttempt, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM verification_attempts
		 WHERE candidate_id = $1 ORDER BY created_at ASC`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var out []*types.VerificationAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func orEmptyHistory(v []types.StageEntry) []types.StageEntry {
	if v == nil {
		return []types.StageEntry{}
	}
	return v
}

func orEmptyArtifacts(v []types.EvidenceArtifact) []types.EvidenceArtifact {
	if v == nil {
		return []types.EvidenceArtifact{}
	}
	return v
}

func orEmptySteps(v []types.NextStep) []types.NextStep {
	if v == nil {
		return []types.NextStep{}
	}
	return v
}
