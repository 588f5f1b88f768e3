package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/employment-verifier/internal/policy"
	"github.com/jonathan/employment-verifier/internal/types"
)

func testClock() func() time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
}

func newTestOrchestrator() *Orchestrator {
	return New(policy.NewMemoryCache(), WithClock(testClock()))
}

func stages(result *types.VerificationResult) []types.Stage {
	out := make([]types.Stage, 0, len(result.StageHistory))
	for _, e := range result.StageHistory {
		out = append(out, e.Stage)
	}
	return out
}

func TestNetworkEmployerHardStop(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Walmart Inc",
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeNetworkRequired, result.Outcome)
	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.False(t, result.IsVerified, "a network hard stop is not a verification")

	// Direct path from policy discovery to completion: the evidence stage
	// never runs.
	assert.Equal(t, []types.Stage{
		types.StageContactEnrichment,
		types.StagePolicyDiscovery,
		types.StageCompletion,
	}, stages(result))
}

func TestNetworkPolicyWinsOverStrongEvidence(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Starbucks",
		Evidence:      &types.EvidenceResult{Found: true, Confidence: 0.95},
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeNetworkRequired, result.Outcome)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
}

func TestStrongEvidenceVerifies(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		Evidence: &types.EvidenceResult{
			Found:      true,
			Confidence: 0.9,
			Artifacts:  []types.EvidenceArtifact{{Type: types.ArtifactWebResult, Value: "https://a.example"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeVerifiedPublicEvidence, result.Outcome)
	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.True(t, result.IsVerified)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9, "verified outcome reports the evidence confidence")
	assert.NotEmpty(t, result.ProofArtifacts)
}

func TestEvidenceThresholdIsInclusive(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		Evidence:      &types.EvidenceResult{Found: true, Confidence: 0.85},
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeVerifiedPublicEvidence, result.Outcome)
	assert.True(t, result.IsVerified)
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
}

func TestCorroboratingEvidenceWithDirectPolicy(t *testing.T) {
	cache := policy.NewMemoryCache()
	require.NoError(t, cache.Put(context.Background(), policy.DomainKey("Globex"), &policy.Policy{
		Domain: policy.DomainKey("Globex"),
		Method: policy.MethodDirect,
	}))
	o := New(cache, WithClock(testClock()))

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		Evidence:      &types.EvidenceResult{Found: true, Confidence: 0.65},
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomePolicyIdentified, result.Outcome)
	assert.Equal(t, types.StatusActionRequired, result.Status)
	assert.False(t, result.IsVerified)
	assert.InDelta(t, 0.7, result.Confidence, 1e-9, "confidence floors at 0.7 when evidence is weaker")

	require.Len(t, result.NextSteps, 2)
	assert.Equal(t, ActionSendVerificationEmail, result.NextSteps[0].Action)
	assert.False(t, result.NextSteps[0].Enabled)
	assert.Equal(t, ActionStartPolicyCall, result.NextSteps[1].Action)
	assert.False(t, result.NextSteps[1].Enabled)
}

func TestCorroboratingEvidenceConfidenceAboveFloor(t *testing.T) {
	cache := policy.NewMemoryCache()
	require.NoError(t, cache.Put(context.Background(), policy.DomainKey("Globex"), &policy.Policy{
		Domain: policy.DomainKey("Globex"),
		Method: policy.MethodDirect,
	}))
	o := New(cache, WithClock(testClock()))

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		Evidence:      &types.EvidenceResult{Found: true, Confidence: 0.8},
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomePolicyIdentified, result.Outcome)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9, "evidence confidence above 0.7 is kept")
}

func TestCorroboratingEvidenceWithoutPolicyFallsThrough(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		EmployerPhone: "+14155550100",
		Evidence:      &types.EvidenceResult{Found: true, Confidence: 0.7},
	})
	require.NoError(t, err)

	// No policy known for Globex: corroborating evidence alone routes to
	// the contact branch.
	assert.Equal(t, types.OutcomeContactIdentified, result.Outcome)
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
}

func TestPhoneOnlyRouting(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		EmployerPhone: "+14155550100",
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeContactIdentified, result.Outcome)
	assert.Equal(t, types.StatusActionRequired, result.Status)
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)

	require.Len(t, result.NextSteps, 2)
	assert.Equal(t, ActionStartPolicyCall, result.NextSteps[0].Action)
	assert.False(t, result.NextSteps[0].Enabled)
	assert.Equal(t, ActionMarkUnableToVerify, result.NextSteps[1].Action)
	assert.True(t, result.NextSteps[1].Enabled)
}

func TestDeadEnd(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeUnableToVerify, result.Outcome)
	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.InDelta(t, 0.1, result.Confidence, 1e-9)
	assert.False(t, result.IsVerified)
	assert.Empty(t, result.NextSteps)
}

func TestWeakEvidenceIsIgnored(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		Evidence:      &types.EvidenceResult{Found: true, Confidence: 0.4},
	})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeUnableToVerify, result.Outcome)
	assert.InDelta(t, 0.1, result.Confidence, 1e-9)
}

func TestStageHistoryOrderedAndTimestamped(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.Run(context.Background(), Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		Evidence:      &types.EvidenceResult{Found: true, Confidence: 0.9},
	})
	require.NoError(t, err)

	assert.Equal(t, []types.Stage{
		types.StageContactEnrichment,
		types.StagePolicyDiscovery,
		types.StagePublicEvidenceVerification,
		types.StageCompletion,
	}, stages(result))

	for i := 1; i < len(result.StageHistory); i++ {
		assert.True(t, result.StageHistory[i].Timestamp.After(result.StageHistory[i-1].Timestamp),
			"stage history must be strictly time-ordered")
	}
	assert.Equal(t, types.StageCompletion, result.Stage)
}

func TestRunIsDeterministic(t *testing.T) {
	input := Input{
		CandidateName: "Jane Doe",
		Employer:      "Globex",
		EmployerPhone: "+14155550100",
		Evidence:      &types.EvidenceResult{Found: true, Confidence: 0.75},
	}

	a, err := newTestOrchestrator().Run(context.Background(), input)
	require.NoError(t, err)
	b, err := newTestOrchestrator().Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, a.Outcome, b.Outcome)
	assert.Equal(t, a.Confidence, b.Confidence)
	assert.Equal(t, stages(a), stages(b))
}

func TestClassifiedPolicyIsCached(t *testing.T) {
	cache := policy.NewMemoryCache()
	o := New(cache, WithClock(testClock()))

	_, err := o.Run(context.Background(), Input{CandidateName: "Jane Doe", Employer: "Amazon"})
	require.NoError(t, err)

	cached, err := cache.Get(context.Background(), policy.DomainKey("Amazon"))
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, policy.MethodNetwork, cached.Method)
	assert.Equal(t, policy.TheWorkNumber, cached.Vendor)
}

func TestEmployerRequired(t *testing.T) {
	o := newTestOrchestrator()
	_, err := o.Run(context.Background(), Input{CandidateName: "Jane Doe"})
	assert.Error(t, err)
}
