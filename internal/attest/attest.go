// Package attest writes durable attestations of verification outcomes to an
// external ledger, with idempotent per-(candidate, employer, channel)
// deduplication.
package attest

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

// Ledger is the external attestation ledger capability. Write must be
// idempotent per claim hash on the ledger side; the Recorder additionally
// guards against duplicate writes locally.
type Ledger interface {
	// Write commits a claim and returns a durable reference ID.
	Write(ctx context.Context, claimHash string, payload []byte) (string, error)
}

// Recorder writes attestations at most once per (candidate hash, employer,
// channel) triple.
type Recorder struct {
	ledger Ledger
	stored store.AttestationStore
	now    func() time.Time
}

// NewRecorder creates an attestation recorder.
func NewRecorder(ledger Ledger, stored store.AttestationStore) *Recorder {
	return &Recorder{
		ledger: ledger,
		stored: stored,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CandidateHash derives the stable candidate identifier committed to the
// ledger: SHA3-256 over the normalized name and email. PII never leaves the
// system; only the hash does.
func CandidateHash(name, email string) string {
	input := identity.NormalizeName(name) + "|" + identity.NormalizeEmail(email)
	sum := sha3.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Record writes an attestation for a verification outcome. A previously
// recorded (candidate hash, employer, channel) triple is a success no-op:
// duplicate channel resolutions (for example a webhook delivered twice)
// must not produce duplicate ledger claims.
func (r *Recorder) Record(ctx context.Context, a *types.Attestation) error {
	if a.CandidateHash == "" {
		return fmt.Errorf("candidate hash is required")
	}
	if a.Employer == "" || a.Channel == "" {
		return fmt.Errorf("employer and channel are required")
	}

	exists, err := r.stored.HasAttestation(ctx, a.CandidateHash, a.Employer, a.Channel)
	if err != nil {
		return fmt.Errorf("failed to check for existing attestation: %w", err)
	}
	if exists {
		log.Printf("[ATTEST] attestation already recorded for %s/%s/%s, skipping",
			shortHash(a.CandidateHash), a.Employer, a.Channel)
		return nil
	}

	if a.Timestamp.IsZero() {
		a.Timestamp = r.now()
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode attestation payload: %w", err)
	}

	ref, err := r.ledger.Write(ctx, claimHash(a), payload)
	if err != nil {
		return fmt.Errorf("ledger write failed: %w", err)
	}
	a.LedgerRef = ref

	if err := r.stored.SaveAttestation(ctx, a); err != nil {
		return fmt.Errorf("failed to save attestation record: %w", err)
	}
	return nil
}

// claimHash is the ledger-side idempotency key for a claim.
func claimHash(a *types.Attestation) string {
	input := strings.Join([]string{
		a.CandidateHash,
		identity.NormalizeEmployer(a.Employer),
		a.Channel,
	}, "|")
	sum := sha3.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
