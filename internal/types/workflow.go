package types

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowState is the state of a full multi-channel verification request.
type WorkflowState string

// Workflow states, in escalation order.
const (
	WorkflowPendingConsent          WorkflowState = "PENDING_CONSENT"
	WorkflowConsentApproved         WorkflowState = "CONSENT_APPROVED"
	WorkflowWebRunning              WorkflowState = "WEB_RUNNING"
	WorkflowContactDiscoveryRunning WorkflowState = "CONTACT_DISCOVERY_RUNNING"
	WorkflowPhoneRunning            WorkflowState = "PHONE_RUNNING"
	WorkflowEmailSent               WorkflowState = "EMAIL_SENT"
	WorkflowCompleted               WorkflowState = "COMPLETED"
)

// WorkflowOutcome classifies how a workflow run ended.
type WorkflowOutcome string

// Workflow outcomes.
const (
	WorkflowYes          WorkflowOutcome = "YES"
	WorkflowNo           WorkflowOutcome = "NO"
	WorkflowPhoneYes     WorkflowOutcome = "PHONE_YES"
	WorkflowPhoneNo      WorkflowOutcome = "PHONE_NO"
	WorkflowInconclusive WorkflowOutcome = "INCONCLUSIVE"
)

// Workflow termination reasons.
const (
	ReasonConsentDenied  = "CONSENT_DENIED"
	ReasonNoPhoneNoEmail = "NO_PHONE_NO_EMAIL"
	ReasonEmailTimeout   = "EMAIL_TIMEOUT"
	ReasonWebConclusive  = "WEB_CONCLUSIVE"
)

// WorkflowRun is the persisted state of one consent-gated, multi-channel
// verification request for a single (candidate, employer) pair. The email
// channel suspends the run across process boundaries: after EMAIL_SENT the
// run is cold until the inbound-reply webhook resumes it by correlation
// token.
type WorkflowRun struct {
	ID          uuid.UUID       `json:"id"`
	CandidateID uuid.UUID       `json:"candidate_id"`
	Employer    string          `json:"employer"`
	State       WorkflowState   `json:"state"`
	Outcome     WorkflowOutcome `json:"outcome,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	ReplyToken  string          `json:"reply_token,omitempty"`
	AttemptID   uuid.UUID       `json:"attempt_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Done reports whether the workflow reached a terminal state.
func (w *WorkflowRun) Done() bool {
	return w.State == WorkflowCompleted
}

// CallOutcome is the structured result of one outbound verification call.
type CallOutcome string

// Call outcomes.
const (
	CallYes          CallOutcome = "YES"
	CallNo           CallOutcome = "NO"
	CallRefused      CallOutcome = "REFUSED"
	CallInconclusive CallOutcome = "INCONCLUSIVE"
	CallNoAnswer     CallOutcome = "NO_ANSWER"
)

// CallResult is the structured result of a placed phone call.
type CallResult struct {
	CallID     string      `json:"call_id"`
	Status     string      `json:"status"`
	Transcript string      `json:"transcript,omitempty"`
	Outcome    CallOutcome `json:"outcome"`
}

// ReplyVerdict is a classified inbound email reply.
type ReplyVerdict string

// Reply verdicts.
const (
	ReplyYes          ReplyVerdict = "YES"
	ReplyNo           ReplyVerdict = "NO"
	ReplyRefused      ReplyVerdict = "REFUSED"
	ReplyInconclusive ReplyVerdict = "INCONCLUSIVE"
)
