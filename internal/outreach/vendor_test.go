package outreach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/employment-verifier/internal/types"
)

func TestVoiceVendorPlaceCall(t *testing.T) {
	var gotAuth string
	var gotBody placeCallRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/calls", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(placeCallResponse{CallID: "call-42"})
	}))
	defer srv.Close()

	vendor := NewVoiceVendor(srv.URL, "secret-key")
	callID, err := vendor.PlaceCall(context.Background(), "+15551234567", CallVariables{
		CandidateName: "Jane Doe",
		Employer:      "Initech",
	})
	require.NoError(t, err)

	assert.Equal(t, "call-42", callID)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "+15551234567", gotBody.Number)
	assert.Equal(t, "Jane Doe", gotBody.CandidateName)
	assert.Equal(t, "Initech", gotBody.Employer)
}

func TestVoiceVendorPlaceCallRejectsEmptyCallID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(placeCallResponse{})
	}))
	defer srv.Close()

	vendor := NewVoiceVendor(srv.URL, "k")
	_, err := vendor.PlaceCall(context.Background(), "+15551234567", CallVariables{})
	assert.ErrorContains(t, err, "no call ID")
}

func TestVoiceVendorGetResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calls/call-42", r.URL.Path)
		json.NewEncoder(w).Encode(types.CallResult{
			CallID:  "call-42",
			Status:  CallStatusEnded,
			Outcome: types.CallYes,
		})
	}))
	defer srv.Close()

	vendor := NewVoiceVendor(srv.URL, "k")
	result, err := vendor.GetResult(context.Background(), "call-42")
	require.NoError(t, err)

	assert.Equal(t, CallStatusEnded, result.Status)
	assert.Equal(t, types.CallYes, result.Outcome)
}

func TestVoiceVendorGetResultSurfacesVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	vendor := NewVoiceVendor(srv.URL, "k")
	_, err := vendor.GetResult(context.Background(), "call-42")
	assert.ErrorContains(t, err, "502")
}

func TestEmailVendorSend(t *testing.T) {
	var gotBody sendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "Bearer mail-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	vendor := NewEmailVendor(srv.URL, "mail-key", "verify@example.com")
	err := vendor.Send(context.Background(), "hr@initech.com", "Subject", "Body", "tok-123")
	require.NoError(t, err)

	assert.Equal(t, "verify@example.com", gotBody.From)
	assert.Equal(t, "hr@initech.com", gotBody.To)
	assert.Equal(t, ReplyAddress("tok-123"), gotBody.ReplyTo)
	assert.Equal(t, "Subject", gotBody.Subject)
}

func TestEmailVendorSendSurfacesVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid recipient", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	vendor := NewEmailVendor(srv.URL, "k", "verify@example.com")
	err := vendor.Send(context.Background(), "bad", "s", "b", "tok")
	assert.ErrorContains(t, err, "422")
}
