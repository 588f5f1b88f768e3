package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/employment-verifier/internal/evidence"
	"github.com/jonathan/employment-verifier/internal/policy"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

// employerProvider returns canned evidence per normalized-ish employer name.
type employerProvider struct {
	byEmployer map[string]*types.EvidenceResult
	lookups    []string
}

func (p *employerProvider) Name() string { return "canned" }

func (p *employerProvider) Lookup(_ context.Context, _, employer string) (*types.EvidenceResult, error) {
	p.lookups = append(p.lookups, employer)
	if result, ok := p.byEmployer[employer]; ok {
		return result.Clone(), nil
	}
	return types.EmptyEvidence("nothing"), nil
}

func seedCandidate(t *testing.T, mem *store.Memory, employers ...string) *types.CanonicalCandidate {
	t.Helper()
	c := &types.CanonicalCandidate{Name: "Jane Doe", Email: "jane@example.com"}
	for _, e := range employers {
		c.Employers = append(c.Employers, types.NewEmployerRecord(e))
	}
	require.NoError(t, mem.CreateCandidate(context.Background(), c))
	return c
}

func TestVerifyAllPersistsAttemptsPerEmployer(t *testing.T) {
	mem := store.NewMemory()
	candidate := seedCandidate(t, mem, "Globex", "Initech")

	provider := &employerProvider{byEmployer: map[string]*types.EvidenceResult{
		"Globex": {Found: true, Confidence: 0.9, Artifacts: []types.EvidenceArtifact{{Type: types.ArtifactWebResult, Value: "https://a.example"}}},
	}}
	runner := NewRunner(New(policy.NewMemoryCache()), []evidence.Provider{provider}, mem, mem)

	attempts, err := runner.VerifyAll(context.Background(), candidate, nil)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	byEmployer := map[string]*types.VerificationAttempt{}
	for _, a := range attempts {
		byEmployer[a.Employer] = a

		stored, err := mem.GetAttempt(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.Outcome, stored.Outcome)
	}

	assert.Equal(t, types.OutcomeVerifiedPublicEvidence, byEmployer["Globex"].Outcome)
	assert.True(t, byEmployer["Globex"].IsVerified)
	assert.Equal(t, types.OutcomeUnableToVerify, byEmployer["Initech"].Outcome)
}

func TestVerifyAllGathersEvidenceOncePerEmployer(t *testing.T) {
	mem := store.NewMemory()
	candidate := seedCandidate(t, mem, "Globex", "Initech")

	provider := &employerProvider{}
	runner := NewRunner(New(policy.NewMemoryCache()), []evidence.Provider{provider}, mem, mem)

	_, err := runner.VerifyAll(context.Background(), candidate, nil)
	require.NoError(t, err)
	assert.Len(t, provider.lookups, 2, "one lookup per distinct employer, shared across runs")
}

func TestVerifyAllUpdatesWebChannelStatus(t *testing.T) {
	mem := store.NewMemory()
	candidate := seedCandidate(t, mem, "Globex")

	provider := &employerProvider{byEmployer: map[string]*types.EvidenceResult{
		"Globex": {Found: true, Confidence: 0.9},
	}}
	runner := NewRunner(New(policy.NewMemoryCache()), []evidence.Provider{provider}, mem, mem)

	_, err := runner.VerifyAll(context.Background(), candidate, nil)
	require.NoError(t, err)

	reloaded, err := mem.GetCandidate(context.Background(), candidate.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Employers, 1)
	assert.Equal(t, types.ChannelYes, reloaded.Employers[0].Statuses[types.ChannelWeb])
}

func TestVerifyAllUsesKnownPhone(t *testing.T) {
	mem := store.NewMemory()
	candidate := seedCandidate(t, mem, "Globex")

	runner := NewRunner(New(policy.NewMemoryCache()), nil, mem, mem)

	attempts, err := runner.VerifyAll(context.Background(), candidate,
		map[string]string{"Globex": "+14155550100"})
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, types.OutcomeContactIdentified, attempts[0].Outcome)
}
