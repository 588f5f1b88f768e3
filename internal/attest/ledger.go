package attest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const ledgerTimeout = 15 * time.Second

// HTTPLedger commits claims to an external attestation ledger over its REST
// API. The ledger deduplicates by claim hash on its side.
type HTTPLedger struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPLedger creates a ledger client. baseURL points at the API root.
func NewHTTPLedger(baseURL, apiKey string) *HTTPLedger {
	return &HTTPLedger{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: ledgerTimeout},
	}
}

type ledgerClaim struct {
	ClaimHash string          `json:"claim_hash"`
	Payload   json.RawMessage `json:"payload"`
}

type ledgerReceipt struct {
	Ref string `json:"ref"`
}

// Write implements Ledger.
func (l *HTTPLedger) Write(ctx context.Context, claimHash string, payload []byte) (string, error) {
	body, err := json.Marshal(ledgerClaim{ClaimHash: claimHash, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("failed to encode ledger claim: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/claims", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ledger returned %d: %s", resp.StatusCode, string(respBody))
	}

	var receipt ledgerReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return "", fmt.Errorf("failed to decode ledger receipt: %w", err)
	}
	if receipt.Ref == "" {
		return "", fmt.Errorf("ledger returned no reference")
	}
	return receipt.Ref, nil
}

// LocalLedger is a Ledger for development runs without a real ledger. It
// logs the claim and derives the reference from the claim hash, which keeps
// references stable across duplicate writes.
type LocalLedger struct{}

// Write implements Ledger.
func (LocalLedger) Write(_ context.Context, claimHash string, payload []byte) (string, error) {
	log.Printf("[ATTEST] local ledger claim %s: %s", shortHash(claimHash), string(payload))
	return "local:" + shortHash(claimHash), nil
}
