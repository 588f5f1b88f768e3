package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/types"
)

// HandleEmailReply resumes a suspended run from an inbound-reply webhook.
// The token is consumed atomically: the first delivery resolves the run and
// every duplicate delivery is a success no-op, so provider webhook retries
// never double-resolve a verification.
func (e *Engine) HandleEmailReply(ctx context.Context, token, replyBody string) (*types.WorkflowRun, error) {
	run, ok, err := e.workflows.ConsumeToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to consume reply token: %w", err)
	}
	if !ok {
		log.Printf("[WORKFLOW] reply token unknown or already consumed, ignoring")
		return nil, nil
	}
	if run.State != types.WorkflowEmailSent {
		// The run resolved through some other path while the reply was in
		// flight; keep its existing outcome.
		return run, nil
	}

	verdict := types.ReplyInconclusive
	if e.classifier != nil {
		v, err := e.classifier.Classify(ctx, replyBody)
		if err != nil {
			log.Printf("[WORKFLOW] reply classification failed for run %s: %v", run.ID, err)
		} else {
			verdict = v
		}
	}

	outcome, channelStatus := resolveReply(verdict)
	e.resolveEmailRun(ctx, run, outcome, channelStatus, "")
	return run, nil
}

// HandleEmailTimeout resolves a run whose reply never arrived. Called by a
// periodic sweep; a run that already resolved is left untouched.
func (e *Engine) HandleEmailTimeout(ctx context.Context, runID uuid.UUID) error {
	run, err := e.workflows.GetWorkflow(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load workflow run: %w", err)
	}
	if run.State != types.WorkflowEmailSent {
		return nil
	}

	run.Reason = types.ReasonEmailTimeout
	e.resolveEmailRun(ctx, run, types.WorkflowInconclusive, types.ChannelInconclusive, types.ReasonEmailTimeout)
	return nil
}

// resolveEmailRun completes an email-suspended run and records the channel
// resolution and attestation.
func (e *Engine) resolveEmailRun(ctx context.Context, run *types.WorkflowRun, outcome types.WorkflowOutcome, channelStatus types.ChannelStatus, reason string) {
	candidate, err := e.candidates.GetCandidate(ctx, run.CandidateID)
	if err != nil {
		log.Printf("[WORKFLOW] failed to load candidate for run %s: %v", run.ID, err)
	} else {
		e.updateChannel(ctx, candidate, run.Employer, types.ChannelEmail, channelStatus)
		if outcome == types.WorkflowYes || outcome == types.WorkflowNo {
			e.writeAttestation(ctx, candidate, run.Employer, types.ChannelEmail, string(outcome), reason)
		}
	}

	if err := e.complete(ctx, run, outcome, reason); err != nil {
		log.Printf("[WORKFLOW] failed to complete run %s: %v", run.ID, err)
	}
}

// resolveReply maps a reply verdict onto the workflow outcome and email
// channel status.
func resolveReply(verdict types.ReplyVerdict) (types.WorkflowOutcome, types.ChannelStatus) {
	switch verdict {
	case types.ReplyYes:
		return types.WorkflowYes, types.ChannelYes
	case types.ReplyNo:
		return types.WorkflowNo, types.ChannelNo
	case types.ReplyRefused:
		return types.WorkflowInconclusive, types.ChannelRefused
	default:
		return types.WorkflowInconclusive, types.ChannelInconclusive
	}
}
