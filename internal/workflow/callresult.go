package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/types"
)

// HandleCallResult resolves a run from an asynchronous call-result webhook,
// for voice providers that report outcomes by callback instead of polling.
// A run that is not waiting on a call (resolved elsewhere, or a duplicate
// delivery) is left untouched.
//
// Unlike the synchronous phone channel, a webhook resolution cannot escalate
// to email: the contact discovery context is gone by the time the callback
// arrives. Non-terminal call outcomes therefore complete the run
// inconclusive.
func (e *Engine) HandleCallResult(ctx context.Context, runID uuid.UUID, result *types.CallResult) (*types.WorkflowRun, error) {
	run, err := e.workflows.GetWorkflow(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow run: %w", err)
	}
	if run.State != types.WorkflowPhoneRunning {
		log.Printf("[WORKFLOW] call result for run %s in state %s, ignoring", run.ID, run.State)
		return run, nil
	}

	candidate, err := e.candidates.GetCandidate(ctx, run.CandidateID)
	if err != nil {
		log.Printf("[WORKFLOW] failed to load candidate for run %s: %v", run.ID, err)
		candidate = nil
	}

	var (
		outcome       types.WorkflowOutcome
		channelStatus types.ChannelStatus
	)
	switch result.Outcome {
	case types.CallYes:
		outcome, channelStatus = types.WorkflowPhoneYes, types.ChannelYes
	case types.CallNo:
		outcome, channelStatus = types.WorkflowPhoneNo, types.ChannelNo
	case types.CallRefused:
		outcome, channelStatus = types.WorkflowInconclusive, types.ChannelRefused
	default:
		outcome, channelStatus = types.WorkflowInconclusive, types.ChannelInconclusive
	}

	if candidate != nil {
		e.updateChannel(ctx, candidate, run.Employer, types.ChannelCall, channelStatus)
		if outcome == types.WorkflowPhoneYes || outcome == types.WorkflowPhoneNo {
			e.writeAttestation(ctx, candidate, run.Employer, types.ChannelCall, string(outcome), transcriptNote(result))
		}
	}

	if err := e.complete(ctx, run, outcome, ""); err != nil {
		return run, err
	}
	return run, nil
}
