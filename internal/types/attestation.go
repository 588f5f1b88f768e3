package types

import "time"

// Attestation is a durable, hash-referenced claim of a verification outcome,
// committed to an external ledger. At most one attestation is written per
// (candidate hash, employer, channel); the recorder checks before writing.
type Attestation struct {
	CandidateHash string    `json:"candidate_hash"`
	Employer      string    `json:"employer"`
	CompanyDomain string    `json:"company_domain,omitempty"`
	Channel       string    `json:"channel"`
	Outcome       string    `json:"outcome"`
	Reason        string    `json:"reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	LedgerRef     string    `json:"ledger_ref,omitempty"`
}
