package server

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/outreach"
	"github.com/jonathan/employment-verifier/internal/schemas"
	"github.com/jonathan/employment-verifier/internal/types"
)

// webhookSecretHeader carries the provider's shared secret on every
// delivery.
const webhookSecretHeader = "X-Webhook-Secret"

// callResultPayload mirrors the call-result webhook schema.
type callResultPayload struct {
	RunID      string `json:"run_id"`
	CallID     string `json:"call_id"`
	Status     string `json:"status"`
	Transcript string `json:"transcript"`
	Outcome    string `json:"outcome"`
}

// emailReplyPayload mirrors the email-reply webhook schema.
type emailReplyPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// readWebhookBody authorizes the delivery and returns the raw body for
// schema validation. A nil slice means the response has already been
// written.
func (s *Server) readWebhookBody(w http.ResponseWriter, r *http.Request, kind string) []byte {
	if s.webhookSecret != "" {
		provided := r.Header.Get(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.webhookSecret)) != 1 {
			s.metrics.IncrementWebhook(kind, "rejected")
			err := &ErrWebhookUnauthorized{}
			s.errorResponse(w, HTTPStatus(err), err.Error())
			return nil
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.metrics.IncrementWebhook(kind, "rejected")
		s.errorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return nil
	}
	return body
}

// handleCallResultWebhook resolves a phone-channel run from the voice
// provider's callback.
func (s *Server) handleCallResultWebhook(w http.ResponseWriter, r *http.Request) {
	const kind = "call_result"

	body := s.readWebhookBody(w, r, kind)
	if body == nil {
		return
	}

	if err := schemas.ValidateCallResult(string(body)); err != nil {
		s.metrics.IncrementWebhook(kind, "rejected")
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var payload callResultPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.metrics.IncrementWebhook(kind, "rejected")
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	runID, err := uuid.Parse(payload.RunID)
	if err != nil {
		s.metrics.IncrementWebhook(kind, "rejected")
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	run, err := s.engine.HandleCallResult(r.Context(), runID, &types.CallResult{
		CallID:     payload.CallID,
		Status:     payload.Status,
		Transcript: payload.Transcript,
		Outcome:    types.CallOutcome(payload.Outcome),
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if run.Done() {
		s.metrics.IncrementWebhook(kind, "resolved")
		s.metrics.IncrementWorkflowOutcome(string(run.Outcome))
	} else {
		s.metrics.IncrementWebhook(kind, "stale")
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleEmailReplyWebhook resumes an email-suspended run from the inbound
// reply. Duplicate deliveries are acknowledged without effect.
func (s *Server) handleEmailReplyWebhook(w http.ResponseWriter, r *http.Request) {
	const kind = "email_reply"

	body := s.readWebhookBody(w, r, kind)
	if body == nil {
		return
	}

	if err := schemas.ValidateEmailReply(string(body)); err != nil {
		s.metrics.IncrementWebhook(kind, "rejected")
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var payload emailReplyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.metrics.IncrementWebhook(kind, "rejected")
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	token := outreach.TokenFromAddress(payload.To)
	if token == "" {
		s.metrics.IncrementWebhook(kind, "rejected")
		s.errorResponse(w, http.StatusBadRequest, "Reply address carries no correlation token")
		return
	}

	run, err := s.engine.HandleEmailReply(r.Context(), token, payload.Body)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if run == nil {
		// Unknown or already consumed token. Acknowledge so the provider
		// stops retrying.
		s.metrics.IncrementWebhook(kind, "duplicate")
		s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	s.metrics.IncrementWebhook(kind, "resolved")
	if run.Done() {
		s.metrics.IncrementWorkflowOutcome(string(run.Outcome))
	}
	s.jsonResponse(w, http.StatusOK, run)
}
