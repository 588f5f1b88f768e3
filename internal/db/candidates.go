package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

const candidateColumns = `id, name, email, phone, linkedin_url, city, state, employers, ledger_ref, created_at, updated_at`

func scanCandidate(row pgx.Row) (*types.CanonicalCandidate, error) {
	var c types.CanonicalCandidate
	var employers []byte
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.LinkedInURL, &c.City, &c.State,
		&employers, &c.LedgerRef, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}
	if err := json.Unmarshal(employers, &c.Employers); err != nil {
		return nil, fmt.Errorf("failed to decode employer list: %w", err)
	}
	return &c, nil
}

// GetCandidate returns the candidate by ID.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*types.CanonicalCandidate, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	return scanCandidate(row)
}

// FindCandidateByEmail returns the candidate with the given normalized
// email, or nil if none exists.
func (db *DB) FindCandidateByEmail(ctx context.Context, email string) (*types.CanonicalCandidate, error) {
	normalized := identity.NormalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}
	row := db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE normalized_email = $1 LIMIT 1`, normalized)
	c, err := scanCandidate(row)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// FindCandidatesByName returns all candidates whose normalized name matches.
func (db *DB) FindCandidatesByName(ctx context.Context, normalizedName string) ([]*types.CanonicalCandidate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE normalized_name = $1`, normalizedName)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates by name: %w", err)
	}
	defer rows.Close()

	var out []*types.CanonicalCandidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCandidate persists a new candidate, assigning its ID if unset.
func (db *DB) CreateCandidate(ctx context.Context, c *types.CanonicalCandidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	employers, err := json.Marshal(employersOrEmpty(c.Employers))
	if err != nil {
		return fmt.Errorf("failed to encode employer list: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO candidates
			(id, name, normalized_name, email, normalized_email, phone, linkedin_url, city, state, employers, ledger_ref, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Name, identity.NormalizeName(c.Name), c.Email, identity.NormalizeEmail(c.Email),
		c.Phone, c.LinkedInURL, c.City, c.State, employers, c.LedgerRef, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// UpdateCandidate persists changes to an existing candidate.
func (db *DB) UpdateCandidate(ctx context.Context, c *types.CanonicalCandidate) error {
	c.UpdatedAt = time.Now().UTC()

	employers, err := json.Marshal(employersOrEmpty(c.Employers))
	if err != nil {
		return fmt.Errorf("failed to encode employer list: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE candidates SET
			name = $2, normalized_name = $3, email = $4, normalized_email = $5,
			phone = $6, linkedin_url = $7, city = $8, state = $9,
			employers = $10, ledger_ref = $11, updated_at = $12
		 WHERE id = $1`,
		c.ID, c.Name, identity.NormalizeName(c.Name), c.Email, identity.NormalizeEmail(c.Email),
		c.Phone, c.LinkedInURL, c.City, c.State, employers, c.LedgerRef, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpsertEmployer applies a read-modify-write employer update against the
// latest stored record, inside a transaction with a row lock so concurrent
// runs never lose each other's channel-status updates.
func (db *DB) UpsertEmployer(ctx context.Context, candidateID uuid.UUID, rec types.EmployerRecord) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var employersJSON []byte
	err = tx.QueryRow(ctx,
		`SELECT employers FROM candidates WHERE id = $1 FOR UPDATE`, candidateID,
	).Scan(&employersJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to lock candidate row: %w", err)
	}

	var employers []types.EmployerRecord
	if err := json.Unmarshal(employersJSON, &employers); err != nil {
		return fmt.Errorf("failed to decode employer list: %w", err)
	}

	replaced := false
	for i, e := range employers {
		if identity.EmployersMatch(e.Name, rec.Name) {
			employers[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		employers = append(employers, rec)
	}

	updated, err := json.Marshal(employers)
	if err != nil {
		return fmt.Errorf("failed to encode employer list: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE candidates SET employers = $2, updated_at = NOW() WHERE id = $1`,
		candidateID, updated); err != nil {
		return fmt.Errorf("failed to update employer list: %w", err)
	}

	return tx.Commit(ctx)
}

// employersOrEmpty keeps a nil slice from serializing as JSON null.
func employersOrEmpty(employers []types.EmployerRecord) []types.EmployerRecord {
	if employers == nil {
		return []types.EmployerRecord{}
	}
	return employers
}
