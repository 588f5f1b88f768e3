// Package outreach defines the outbound contact capabilities (phone calls
// and email) the verification workflow depends on, and the bounded polling
// that turns an asynchronous call into a blocking result.
package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/employment-verifier/internal/types"
)

// CallVariables parameterize the call script for one verification call.
type CallVariables struct {
	CandidateName string
	Employer      string
	JobTitle      string
}

// PhoneCaller places verification calls. Implementations wrap an external
// voice-agent provider; results arrive asynchronously and are fetched by
// call ID.
type PhoneCaller interface {
	// PlaceCall starts an outbound call and returns the provider call ID.
	PlaceCall(ctx context.Context, number string, vars CallVariables) (string, error)

	// GetResult fetches the current result for a call. A call still in
	// progress returns a result with a non-terminal status and no outcome.
	GetResult(ctx context.Context, callID string) (*types.CallResult, error)
}

// Emailer sends verification emails. The reply token is embedded in the
// reply-to address so the inbound webhook can correlate the answer back to
// the suspended workflow run.
type Emailer interface {
	Send(ctx context.Context, to, subject, body, replyToken string) error
}

// Call statuses reported by providers.
const (
	CallStatusQueued     = "queued"
	CallStatusInProgress = "in_progress"
	CallStatusEnded      = "ended"
)

// Polling bounds. The loop degrades to NO_ANSWER rather than hanging: a
// stuck provider must never stall a verification run indefinitely.
const (
	DefaultPollInterval = 10 * time.Second
	DefaultMaxPolls     = 30
)

// Poller drives a placed call to completion by bounded polling.
type Poller struct {
	caller   PhoneCaller
	interval time.Duration
	maxPolls int
}

// NewPoller creates a poller with the default bounds.
func NewPoller(caller PhoneCaller) *Poller {
	return &Poller{caller: caller, interval: DefaultPollInterval, maxPolls: DefaultMaxPolls}
}

// NewPollerWithBounds creates a poller with explicit bounds, for tests.
func NewPollerWithBounds(caller PhoneCaller, interval time.Duration, maxPolls int) *Poller {
	return &Poller{caller: caller, interval: interval, maxPolls: maxPolls}
}

// CallAndWait places a call and polls until the call ends, the poll budget
// runs out, or the context is cancelled. Budget exhaustion returns a
// NO_ANSWER result, not an error.
func (p *Poller) CallAndWait(ctx context.Context, number string, vars CallVariables) (*types.CallResult, error) {
	callID, err := p.caller.PlaceCall(ctx, number, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to place call: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for i := 0; i < p.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		result, err := p.caller.GetResult(ctx, callID)
		if err != nil {
			// Transient fetch failures consume poll budget but do not abort.
			continue
		}
		if result.Status == CallStatusEnded {
			if result.Outcome == "" {
				result.Outcome = types.CallInconclusive
			}
			return result, nil
		}
	}

	return &types.CallResult{
		CallID:  callID,
		Status:  CallStatusEnded,
		Outcome: types.CallNoAnswer,
	}, nil
}
