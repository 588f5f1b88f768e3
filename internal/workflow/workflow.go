// Package workflow implements the consent-gated multi-channel verification
// flow: web evidence first, then an outbound phone call, then email, each
// channel attempted only when the previous one was inconclusive. The email
// channel suspends the run durably; an inbound-reply webhook resumes it by
// correlation token.
package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/attest"
	"github.com/jonathan/employment-verifier/internal/evidence"
	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/orchestrator"
	"github.com/jonathan/employment-verifier/internal/outreach"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

// ContactDiscoverer resolves an employer to contact channels; satisfied by
// contact.Discoverer.
type ContactDiscoverer interface {
	Discover(ctx context.Context, companyName, companyDomain string) (types.ContactInfo, error)
}

// CallRunner places a call and blocks until a bounded result; satisfied by
// outreach.Poller.
type CallRunner interface {
	CallAndWait(ctx context.Context, number string, vars outreach.CallVariables) (*types.CallResult, error)
}

// ReplyClassifier turns an inbound email reply into a verdict; satisfied by
// llm.ReplyClassifier. Pluggable so the free-text heuristic can be swapped
// without touching the flow.
type ReplyClassifier interface {
	Classify(ctx context.Context, replyBody string) (types.ReplyVerdict, error)
}

// AttestationWriter records verification outcomes; satisfied by
// attest.Recorder.
type AttestationWriter interface {
	Record(ctx context.Context, a *types.Attestation) error
}

// Request describes one consent-gated verification request.
type Request struct {
	CandidateID    uuid.UUID
	Employer       string
	CompanyDomain  string
	ConsentGranted bool
}

// Engine drives workflow runs.
type Engine struct {
	workflows  store.WorkflowStore
	candidates store.CandidateStore
	orch       *orchestrator.Orchestrator
	providers  []evidence.Provider
	discoverer ContactDiscoverer
	caller     CallRunner
	emailer    outreach.Emailer
	classifier ReplyClassifier
	attester   AttestationWriter
	now        func() time.Time
}

// Config wires an Engine's dependencies. Caller, Emailer, Discoverer and
// Attester may be nil; the corresponding channel is then skipped (caller,
// emailer, discoverer) or not recorded (attester).
type Config struct {
	Workflows  store.WorkflowStore
	Candidates store.CandidateStore
	Orch       *orchestrator.Orchestrator
	Providers  []evidence.Provider
	Discoverer ContactDiscoverer
	Caller     CallRunner
	Emailer    outreach.Emailer
	Classifier ReplyClassifier
	Attester   AttestationWriter
}

// NewEngine creates a workflow engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		workflows:  cfg.Workflows,
		candidates: cfg.Candidates,
		orch:       cfg.Orch,
		providers:  cfg.Providers,
		discoverer: cfg.Discoverer,
		caller:     cfg.Caller,
		emailer:    cfg.Emailer,
		classifier: cfg.Classifier,
		attester:   cfg.Attester,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run executes the escalation flow for one request. It returns the
// persisted run, which is terminal unless the flow suspended in EMAIL_SENT.
//
// Consent is checked exactly once, up front. Denial is a hard terminal
// state that bypasses every verification stage.
func (e *Engine) Run(ctx context.Context, req Request) (*types.WorkflowRun, error) {
	if req.Employer == "" {
		return nil, fmt.Errorf("employer is required")
	}

	run := &types.WorkflowRun{
		CandidateID: req.CandidateID,
		Employer:    req.Employer,
		State:       types.WorkflowPendingConsent,
	}
	if err := e.workflows.CreateWorkflow(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create workflow run: %w", err)
	}

	if !req.ConsentGranted {
		return run, e.complete(ctx, run, types.WorkflowInconclusive, types.ReasonConsentDenied)
	}
	if err := e.transition(ctx, run, types.WorkflowConsentApproved); err != nil {
		return run, err
	}

	candidate, err := e.candidates.GetCandidate(ctx, req.CandidateID)
	if err != nil {
		return run, fmt.Errorf("failed to load candidate: %w", err)
	}

	// Web channel.
	if err := e.transition(ctx, run, types.WorkflowWebRunning); err != nil {
		return run, err
	}
	conclusive, err := e.runWebChannel(ctx, run, candidate)
	if err != nil {
		return run, err
	}
	if conclusive {
		return run, nil
	}

	// Contact discovery.
	if err := e.transition(ctx, run, types.WorkflowContactDiscoveryRunning); err != nil {
		return run, err
	}
	info := e.discoverContacts(ctx, req)

	// Phone channel, only on a HIGH-confidence number.
	if info.Phone.Found() && e.caller != nil {
		if err := e.transition(ctx, run, types.WorkflowPhoneRunning); err != nil {
			return run, err
		}
		terminal, err := e.runPhoneChannel(ctx, run, candidate, info.Phone.Value)
		if err != nil {
			return run, err
		}
		if terminal {
			return run, nil
		}
	}

	// Email channel, only on a HIGH-confidence address. Fire-and-forget:
	// the run suspends in EMAIL_SENT until the reply webhook resumes it.
	if info.Email.Found() && e.emailer != nil {
		return run, e.sendEmail(ctx, run, candidate, info.Email.Value)
	}

	return run, e.complete(ctx, run, types.WorkflowInconclusive, types.ReasonNoPhoneNoEmail)
}

// runWebChannel runs the stage pipeline on freshly gathered public evidence.
// Returns true when the web result was conclusive and the run completed.
func (e *Engine) runWebChannel(ctx context.Context, run *types.WorkflowRun, candidate *types.CanonicalCandidate) (bool, error) {
	ev := evidence.Gather(ctx, e.providers, candidate.Name, run.Employer)
	result, err := e.orch.Run(ctx, orchestrator.Input{
		CandidateName: candidate.Name,
		Employer:      run.Employer,
		Evidence:      ev,
	})
	if err != nil {
		return false, fmt.Errorf("web verification failed: %w", err)
	}

	if !result.IsVerified {
		return false, nil
	}

	e.updateChannel(ctx, candidate, run.Employer, types.ChannelWeb, types.ChannelYes)
	e.writeAttestation(ctx, candidate, run.Employer, types.ChannelWeb, string(types.WorkflowYes), types.ReasonWebConclusive)
	return true, e.complete(ctx, run, types.WorkflowYes, types.ReasonWebConclusive)
}

// discoverContacts runs contact discovery, degrading to NOT_FOUND results
// when no discoverer is configured or discovery fails.
func (e *Engine) discoverContacts(ctx context.Context, req Request) types.ContactInfo {
	notFound := types.ContactInfo{
		Phone: types.ContactResult{Confidence: types.ContactNotFound},
		Email: types.ContactResult{Confidence: types.ContactNotFound},
	}
	if e.discoverer == nil || req.CompanyDomain == "" {
		return notFound
	}
	info, err := e.discoverer.Discover(ctx, req.Employer, req.CompanyDomain)
	if err != nil {
		log.Printf("[WORKFLOW] contact discovery failed for %s: %v", req.Employer, err)
		return notFound
	}
	return info
}

// runPhoneChannel places the verification call. A YES or NO outcome is
// terminal; anything else falls through to email.
func (e *Engine) runPhoneChannel(ctx context.Context, run *types.WorkflowRun, candidate *types.CanonicalCandidate, number string) (bool, error) {
	result, err := e.caller.CallAndWait(ctx, number, outreach.CallVariables{
		CandidateName: candidate.Name,
		Employer:      run.Employer,
	})
	if err != nil {
		return false, fmt.Errorf("verification call failed: %w", err)
	}

	switch result.Outcome {
	case types.CallYes:
		e.updateChannel(ctx, candidate, run.Employer, types.ChannelCall, types.ChannelYes)
		e.writeAttestation(ctx, candidate, run.Employer, types.ChannelCall, string(types.WorkflowPhoneYes), transcriptNote(result))
		return true, e.complete(ctx, run, types.WorkflowPhoneYes, "")
	case types.CallNo:
		e.updateChannel(ctx, candidate, run.Employer, types.ChannelCall, types.ChannelNo)
		e.writeAttestation(ctx, candidate, run.Employer, types.ChannelCall, string(types.WorkflowPhoneNo), transcriptNote(result))
		return true, e.complete(ctx, run, types.WorkflowPhoneNo, "")
	case types.CallRefused:
		e.updateChannel(ctx, candidate, run.Employer, types.ChannelCall, types.ChannelRefused)
		return false, nil
	default:
		// INCONCLUSIVE and NO_ANSWER escalate to email.
		e.updateChannel(ctx, candidate, run.Employer, types.ChannelCall, types.ChannelInconclusive)
		return false, nil
	}
}

// sendEmail suspends the run: it persists the reply token, marks EMAIL_SENT
// and dispatches the message. Resolution happens in HandleEmailReply.
func (e *Engine) sendEmail(ctx context.Context, run *types.WorkflowRun, candidate *types.CanonicalCandidate, to string) error {
	run.ReplyToken = uuid.NewString()
	run.State = types.WorkflowEmailSent
	run.UpdatedAt = e.now()
	// Persist before sending: a reply must never arrive for a token we have
	// not stored.
	if err := e.workflows.UpdateWorkflow(ctx, run); err != nil {
		return fmt.Errorf("failed to persist email suspension: %w", err)
	}

	subject, body := outreach.VerificationEmail(candidate.Name, run.Employer, run.ReplyToken)
	if err := e.emailer.Send(ctx, to, subject, body, run.ReplyToken); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	e.updateChannel(ctx, candidate, run.Employer, types.ChannelEmail, types.ChannelPending)
	return nil
}

// transition persists a state change.
func (e *Engine) transition(ctx context.Context, run *types.WorkflowRun, state types.WorkflowState) error {
	run.State = state
	run.UpdatedAt = e.now()
	if err := e.workflows.UpdateWorkflow(ctx, run); err != nil {
		return fmt.Errorf("failed to persist workflow state %s: %w", state, err)
	}
	return nil
}

// complete marks the run terminal.
func (e *Engine) complete(ctx context.Context, run *types.WorkflowRun, outcome types.WorkflowOutcome, reason string) error {
	run.State = types.WorkflowCompleted
	run.Outcome = outcome
	run.Reason = reason
	run.UpdatedAt = e.now()
	if err := e.workflows.UpdateWorkflow(ctx, run); err != nil {
		return fmt.Errorf("failed to complete workflow: %w", err)
	}
	return nil
}

// updateChannel folds a channel resolution into the candidate's employer
// record, honoring the monotonic status ordering. Failures are logged, not
// fatal: channel bookkeeping never blocks a verification outcome.
func (e *Engine) updateChannel(ctx context.Context, candidate *types.CanonicalCandidate, employer, channel string, status types.ChannelStatus) {
	latest, err := e.candidates.GetCandidate(ctx, candidate.ID)
	if err != nil {
		log.Printf("[WORKFLOW] failed to reload candidate %s: %v", candidate.ID, err)
		return
	}

	rec := findEmployer(latest, employer)
	if rec.Statuses == nil {
		rec.Statuses = make(map[string]types.ChannelStatus)
	}
	if rec.Statuses[channel].CanTransitionTo(status) {
		rec.Statuses[channel] = status
	}
	if err := e.candidates.UpsertEmployer(ctx, latest.ID, rec); err != nil {
		log.Printf("[WORKFLOW] failed to update channel %s for %s: %v", channel, employer, err)
	}
}

// writeAttestation records the outcome on the ledger, best-effort.
func (e *Engine) writeAttestation(ctx context.Context, candidate *types.CanonicalCandidate, employer, channel, outcome, reason string) {
	if e.attester == nil {
		return
	}
	err := e.attester.Record(ctx, &types.Attestation{
		CandidateHash: attest.CandidateHash(candidate.Name, candidate.Email),
		Employer:      employer,
		Channel:       channel,
		Outcome:       outcome,
		Reason:        reason,
		Timestamp:     e.now(),
	})
	if err != nil {
		log.Printf("[WORKFLOW] attestation write failed for %s/%s: %v", employer, channel, err)
	}
}

// transcriptNote carries the call transcript onto the attestation record,
// truncated so the ledger payload stays bounded.
func transcriptNote(result *types.CallResult) string {
	const maxTranscript = 2000
	t := result.Transcript
	if len(t) > maxTranscript {
		t = t[:maxTranscript]
	}
	return t
}

func findEmployer(candidate *types.CanonicalCandidate, employer string) types.EmployerRecord {
	for _, rec := range candidate.Employers {
		if identity.EmployersMatch(rec.Name, employer) {
			return rec
		}
	}
	return types.NewEmployerRecord(employer)
}
