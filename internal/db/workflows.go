package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

const workflowColumns = `id, candidate_id, employer, state, outcome, reason, reply_token, COALESCE(attempt_id, '00000000-0000-0000-0000-000000000000'), created_at, updated_at`

func scanWorkflow(row pgx.Row) (*types.WorkflowRun, error) {
	var w types.WorkflowRun
	err := row.Scan(&w.ID, &w.CandidateID, &w.Employer, &w.State, &w.Outcome, &w.Reason,
		&w.ReplyToken, &w.AttemptID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan workflow run: %w", err)
	}
	return &w, nil
}

// CreateWorkflow persists a new workflow run and indexes its reply token.
func (db *DB) CreateWorkflow(ctx context.Context, w *types.WorkflowRun) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO workflow_runs
			(id, candidate_id, employer, state, outcome, reason, reply_token, attempt_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '00000000-0000-0000-0000-000000000000'::uuid), $9, $10)`,
		w.ID, w.CandidateID, w.Employer, w.State, w.Outcome, w.Reason, w.ReplyToken, w.AttemptID, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workflow run: %w", err)
	}
	return db.indexReplyToken(ctx, w)
}

// UpdateWorkflow persists changes to a workflow run.
func (db *DB) UpdateWorkflow(ctx context.Context, w *types.WorkflowRun) error {
	w.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE workflow_runs SET
			state = $2, outcome = $3, reason = $4, reply_token = $5,
			attempt_id = NULLIF($6, '00000000-0000-0000-0000-000000000000'::uuid), updated_at = $7
		 WHERE id = $1`,
		w.ID, w.State, w.Outcome, w.Reason, w.ReplyToken, w.AttemptID, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update workflow run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return db.indexReplyToken(ctx, w)
}

// indexReplyToken records the run's email correlation token. Duplicate
// indexing is a no-op.
func (db *DB) indexReplyToken(ctx context.Context, w *types.WorkflowRun) error {
	if w.ReplyToken == "" {
		return nil
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO reply_tokens (token, workflow_id) VALUES ($1, $2)
		 ON CONFLICT (token) DO NOTHING`,
		w.ReplyToken, w.ID)
	if err != nil {
		return fmt.Errorf("failed to index reply token: %w", err)
	}
	return nil
}

// GetWorkflow returns the workflow run by ID.
func (db *DB) GetWorkflow(ctx context.Context, id uuid.UUID) (*types.WorkflowRun, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflow_runs WHERE id = $1`, id)
	return scanWorkflow(row)
}

// ConsumeToken atomically resolves and consumes an email reply token. The
// conditional UPDATE is the atomicity guarantee: only one delivery flips
// consumed to true, every other delivery sees zero rows.
func (db *DB) ConsumeToken(ctx context.Context, token string) (*types.WorkflowRun, bool, error) {
	var workflowID uuid.UUID
	err := db.pool.QueryRow(ctx,
		`UPDATE reply_tokens SET consumed = TRUE
		 WHERE token = $1 AND consumed = FALSE
		 RETURNING workflow_id`,
		token,
	).Scan(&workflowID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to consume reply token: %w", err)
	}

	w, err := db.GetWorkflow(ctx, workflowID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return w, true, nil
}
