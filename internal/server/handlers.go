package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/types"
	"github.com/jonathan/employment-verifier/internal/workflow"
)

// verifyRequest is the body of POST /verify: one candidate with claimed
// employers, verified in a single batch run.
type verifyRequest struct {
	Candidate struct {
		Name        string `json:"name" validate:"required"`
		Email       string `json:"email" validate:"omitempty,email"`
		Phone       string `json:"phone"`
		LinkedInURL string `json:"linkedin_url" validate:"omitempty,url"`
		City        string `json:"city"`
		State       string `json:"state"`
	} `json:"candidate"`
	Employers []string `json:"employers" validate:"required,min=1,dive,required"`

	// EmployerPhones optionally supplies known employer phone numbers,
	// keyed by employer name as claimed.
	EmployerPhones map[string]string `json:"employer_phones"`
}

// createVerificationRequest is the body of POST /verifications: a
// consent-gated multi-channel run for one (candidate, employer) pair.
type createVerificationRequest struct {
	CandidateID    string `json:"candidate_id" validate:"required,uuid4"`
	Employer       string `json:"employer" validate:"required"`
	CompanyDomain  string `json:"company_domain" validate:"omitempty,fqdn"`
	ConsentGranted bool   `json:"consent_granted"`
}

// decodeAndValidate decodes a JSON body into dst and runs struct validation.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst); err != nil {
		return &ErrValidation{Field: "(body)", Message: "invalid JSON: " + err.Error()}
	}
	if err := s.validate.Struct(dst); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return &ErrValidation{Field: errs[0].Namespace(), Message: "failed on '" + errs[0].Tag() + "'"}
		}
		return &ErrValidation{Field: "(body)", Message: err.Error()}
	}
	return nil
}

// handleVerify resolves the candidate identity and runs the verification
// pipeline for every claimed employer.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resolution, err := s.matcher.Resolve(r.Context(), types.CandidateData{
		Name:        req.Candidate.Name,
		Email:       req.Candidate.Email,
		Phone:       req.Candidate.Phone,
		LinkedInURL: req.Candidate.LinkedInURL,
		City:        req.Candidate.City,
		State:       req.Candidate.State,
	}, req.Employers)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Identity resolution failed: "+err.Error())
		return
	}

	attempts, err := s.runner.VerifyAll(r.Context(), resolution.Candidate, req.EmployerPhones)
	for _, attempt := range attempts {
		s.metrics.IncrementVerificationOutcome(string(attempt.Outcome))
	}
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Verification failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"candidate_id": resolution.Candidate.ID,
		"match_type":   resolution.MatchType,
		"is_new":       resolution.IsNew,
		"attempts":     attempts,
	})
}

// handleCreateVerification starts a consent-gated multi-channel workflow run.
func (s *Server) handleCreateVerification(w http.ResponseWriter, r *http.Request) {
	var req createVerificationRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	run, err := s.engine.Run(r.Context(), workflow.Request{
		CandidateID:    candidateID,
		Employer:       req.Employer,
		CompanyDomain:  req.CompanyDomain,
		ConsentGranted: req.ConsentGranted,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if run == nil {
			status = HTTPStatus(err)
		}
		s.errorResponse(w, status, "Verification run failed: "+err.Error())
		return
	}

	if run.Done() {
		s.metrics.IncrementWorkflowOutcome(string(run.Outcome))
	}
	s.jsonResponse(w, http.StatusCreated, run)
}

// handleGetVerification returns one workflow run by ID.
func (s *Server) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	run, err := s.workflows.GetWorkflow(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, run)
}

// handleEmailTimeout resolves an email-suspended run whose reply never
// arrived. Invoked by the operator's sweep job.
func (s *Server) handleEmailTimeout(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	if err := s.engine.HandleEmailTimeout(r.Context(), runID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	run, err := s.workflows.GetWorkflow(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if run.Done() {
		s.metrics.IncrementWorkflowOutcome(string(run.Outcome))
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleGetCandidate returns one canonical candidate by ID.
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	candidate, err := s.candidates.GetCandidate(r.Context(), candidateID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, candidate)
}

// handleListAttempts lists verification attempts for a candidate.
func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	attempts, err := s.attempts.ListAttemptsByCandidate(r.Context(), candidateID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"attempts": attempts,
		"count":    len(attempts),
	})
}
