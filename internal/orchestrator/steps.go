package orchestrator

import "github.com/jonathan/employment-verifier/internal/types"

// Next-step actions offered to callers on action_required outcomes.
const (
	ActionSendVerificationEmail = "send_verification_email"
	ActionStartPolicyCall       = "start_policy_call"
	ActionMarkUnableToVerify    = "mark_unable_to_verify"
)

// policyIdentifiedSteps are the manual follow-ups offered when corroborating
// evidence combines with a known direct policy. Both are disabled: they
// require operator review before any outbound contact is made.
func policyIdentifiedSteps() []types.NextStep {
	return []types.NextStep{
		{
			Action:   ActionSendVerificationEmail,
			Label:    "Send verification email",
			Enabled:  false,
			Priority: 1,
		},
		{
			Action:   ActionStartPolicyCall,
			Label:    "Start AI policy call",
			Enabled:  false,
			Priority: 2,
		},
	}
}

// contactIdentifiedSteps are the follow-ups offered when only a phone number
// is known. Marking the claim unverifiable is the one immediately-enabled
// action.
func contactIdentifiedSteps() []types.NextStep {
	return []types.NextStep{
		{
			Action:   ActionStartPolicyCall,
			Label:    "Run AI call for policy discovery",
			Enabled:  false,
			Priority: 1,
		},
		{
			Action:   ActionMarkUnableToVerify,
			Label:    "Mark unable to verify",
			Enabled:  true,
			Priority: 2,
		},
	}
}
