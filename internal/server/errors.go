// Package server provides the HTTP REST API for the verification service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/store"
)

// ErrCandidateNotFound indicates the candidate was not found.
type ErrCandidateNotFound struct {
	CandidateID uuid.UUID
}

func (e *ErrCandidateNotFound) Error() string {
	return fmt.Sprintf("candidate not found: %s", e.CandidateID)
}

// ErrRunNotFound indicates a workflow run was not found.
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("verification run not found: %s", e.RunID)
}

// ErrWebhookUnauthorized indicates a webhook delivery failed the
// shared-secret check.
type ErrWebhookUnauthorized struct{}

func (e *ErrWebhookUnauthorized) Error() string {
	return "webhook signature check failed"
}

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	switch err.(type) {
	case *ErrCandidateNotFound, *ErrRunNotFound:
		return http.StatusNotFound
	case *ErrWebhookUnauthorized:
		return http.StatusUnauthorized
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
