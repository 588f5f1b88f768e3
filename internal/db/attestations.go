package db

import (
	"context"
	"fmt"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/types"
)

// HasAttestation reports whether an attestation exists for the
// (candidate hash, employer, channel) triple. Employer matching uses the
// normalized form so "Acme Inc" and "Acme Corp" dedupe to one row.
func (db *DB) HasAttestation(ctx context.Context, candidateHash, employer, channel string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM attestations
			WHERE candidate_hash = $1 AND employer = $2 AND channel = $3
		)`,
		candidateHash, identity.NormalizeEmployer(employer), channel,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check attestation: %w", err)
	}
	return exists, nil
}

// SaveAttestation persists an attestation record. The primary key makes the
// write idempotent under concurrent duplicate attempts.
func (db *DB) SaveAttestation(ctx context.Context, a *types.Attestation) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO attestations
			(candidate_hash, employer, channel, outcome, reason, ledger_ref, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (candidate_hash, employer, channel) DO NOTHING`,
		a.CandidateHash, identity.NormalizeEmployer(a.Employer), a.Channel,
		a.Outcome, a.Reason, a.LedgerRef, a.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save attestation: %w", err)
	}
	return nil
}
