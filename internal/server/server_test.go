package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/config"
	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/orchestrator"
	"github.com/jonathan/employment-verifier/internal/policy"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
	"github.com/jonathan/employment-verifier/internal/workflow"
)

// newTestServer wires a server against the in-memory store with no external
// providers. JWT is nil, so API routes are open.
func newTestServer(t *testing.T, webhookSecret string) (*Server, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	orch := orchestrator.New(policy.NewMemoryCache())
	runner := orchestrator.NewRunner(orch, nil, mem, mem)
	engine := workflow.NewEngine(workflow.Config{
		Workflows:  mem,
		Candidates: mem,
		Orch:       orch,
	})

	srv, err := New(Config{ListenAddr: ":0", WebhookSecret: webhookSecret}, Deps{
		Candidates: mem,
		Attempts:   mem,
		Workflows:  mem,
		Matcher:    identity.NewMatcher(mem),
		Runner:     runner,
		Engine:     engine,
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv, mem
}

func doJSON(t *testing.T, srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	// Generate a request so there is something to scrape.
	doJSON(t, srv, http.MethodGet, "/health", "", nil)

	w := doJSON(t, srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "verifier_http_responses_total")
}

func TestVerify_CreatesCandidateAndAttempts(t *testing.T) {
	srv, mem := newTestServer(t, "")

	body := `{
		"candidate": {"name": "Jane Doe", "email": "jane@example.com"},
		"employers": ["Acme Corp", "Initech"]
	}`
	w := doJSON(t, srv, http.MethodPost, "/verify", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		CandidateID string                       `json:"candidate_id"`
		MatchType   string                       `json:"match_type"`
		IsNew       bool                         `json:"is_new"`
		Attempts    []*types.VerificationAttempt `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.IsNew)
	assert.Equal(t, string(types.MatchNone), resp.MatchType)
	require.Len(t, resp.Attempts, 2)
	for _, attempt := range resp.Attempts {
		// No evidence providers are wired, so both runs dead-end.
		assert.Equal(t, types.OutcomeUnableToVerify, attempt.Outcome)
		assert.Equal(t, types.StatusCompleted, attempt.Status)
	}

	stored, err := mem.FindCandidateByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Employers, 2)
}

func TestVerify_ValidationFailure(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/verify", `{"candidate": {"email": "x@y.com"}, "employers": ["Acme"]}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation error")
}

func TestVerify_MalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/verify", `{ not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateVerification_ConsentDenied(t *testing.T) {
	srv, mem := newTestServer(t, "")

	candidate := &types.CanonicalCandidate{Name: "Jane Doe"}
	require.NoError(t, mem.CreateCandidate(context.Background(), candidate))

	body := `{
		"candidate_id": "` + candidate.ID.String() + `",
		"employer": "Acme Corp",
		"consent_granted": false
	}`
	w := doJSON(t, srv, http.MethodPost, "/verifications", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var run types.WorkflowRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, types.WorkflowCompleted, run.State)
	assert.Equal(t, types.WorkflowInconclusive, run.Outcome)
	assert.Equal(t, types.ReasonConsentDenied, run.Reason)
}

func TestCreateVerification_NoChannelsInconclusive(t *testing.T) {
	srv, mem := newTestServer(t, "")

	candidate := &types.CanonicalCandidate{Name: "Jane Doe"}
	require.NoError(t, mem.CreateCandidate(context.Background(), candidate))

	body := `{
		"candidate_id": "` + candidate.ID.String() + `",
		"employer": "Acme Corp",
		"consent_granted": true
	}`
	w := doJSON(t, srv, http.MethodPost, "/verifications", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var run types.WorkflowRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, types.WorkflowCompleted, run.State)
	assert.Equal(t, types.ReasonNoPhoneNoEmail, run.Reason)
}

func TestGetVerification_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodGet, "/verifications/7b6e3c3a-0000-4000-8000-000000000001", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCandidate_InvalidID(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodGet, "/candidates/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCandidate_Found(t *testing.T) {
	srv, mem := newTestServer(t, "")

	candidate := &types.CanonicalCandidate{Name: "Jane Doe", Email: "jane@example.com"}
	require.NoError(t, mem.CreateCandidate(context.Background(), candidate))

	w := doJSON(t, srv, http.MethodGet, "/candidates/"+candidate.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jane Doe")
}

func TestEmailReplyWebhook_SecretRequired(t *testing.T) {
	srv, _ := newTestServer(t, "hunter2")

	body := `{"to": "verify+tok@verify-reply.example.com", "body": "yes"}`

	w := doJSON(t, srv, http.MethodPost, "/webhooks/email-reply", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/webhooks/email-reply", body,
		map[string]string{"X-Webhook-Secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEmailReplyWebhook_UnknownTokenIgnored(t *testing.T) {
	srv, _ := newTestServer(t, "hunter2")

	body := `{"to": "verify+unknown@verify-reply.example.com", "body": "yes"}`
	w := doJSON(t, srv, http.MethodPost, "/webhooks/email-reply", body,
		map[string]string{"X-Webhook-Secret": "hunter2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}

func TestEmailReplyWebhook_ResolvesSuspendedRun(t *testing.T) {
	srv, mem := newTestServer(t, "")
	ctx := context.Background()

	candidate := &types.CanonicalCandidate{Name: "Jane Doe"}
	require.NoError(t, mem.CreateCandidate(ctx, candidate))

	run := &types.WorkflowRun{
		CandidateID: candidate.ID,
		Employer:    "Acme Corp",
		State:       types.WorkflowEmailSent,
		ReplyToken:  "tok-123",
	}
	require.NoError(t, mem.CreateWorkflow(ctx, run))

	body := `{"to": "verify+tok-123@verify-reply.example.com", "body": "Confirmed."}`
	w := doJSON(t, srv, http.MethodPost, "/webhooks/email-reply", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := mem.GetWorkflow(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WorkflowCompleted, stored.State)

	// Duplicate delivery is a no-op acknowledgement.
	w = doJSON(t, srv, http.MethodPost, "/webhooks/email-reply", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}

func TestEmailReplyWebhook_SchemaRejected(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/webhooks/email-reply", `{"to": "verify+tok@x.dev"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallResultWebhook_ResolvesPhoneRun(t *testing.T) {
	srv, mem := newTestServer(t, "")
	ctx := context.Background()

	candidate := &types.CanonicalCandidate{Name: "Jane Doe"}
	require.NoError(t, mem.CreateCandidate(ctx, candidate))

	run := &types.WorkflowRun{
		CandidateID: candidate.ID,
		Employer:    "Acme Corp",
		State:       types.WorkflowPhoneRunning,
	}
	require.NoError(t, mem.CreateWorkflow(ctx, run))

	body := `{
		"run_id": "` + run.ID.String() + `",
		"call_id": "call-1",
		"status": "ended",
		"outcome": "YES"
	}`
	w := doJSON(t, srv, http.MethodPost, "/webhooks/call-result", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := mem.GetWorkflow(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WorkflowCompleted, stored.State)
	assert.Equal(t, types.WorkflowPhoneYes, stored.Outcome)
}

func TestCallResultWebhook_StaleRunIgnored(t *testing.T) {
	srv, mem := newTestServer(t, "")
	ctx := context.Background()

	run := &types.WorkflowRun{
		CandidateID: uuid.New(),
		Employer:    "Acme Corp",
		State:       types.WorkflowCompleted,
		Outcome:     types.WorkflowYes,
	}
	require.NoError(t, mem.CreateWorkflow(ctx, run))

	body := `{
		"run_id": "` + run.ID.String() + `",
		"call_id": "call-1",
		"status": "ended",
		"outcome": "NO"
	}`
	w := doJSON(t, srv, http.MethodPost, "/webhooks/call-result", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := mem.GetWorkflow(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WorkflowYes, stored.Outcome, "resolved runs are never overwritten")
}

func TestCallResultWebhook_SchemaRejected(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/webhooks/call-result", `{"call_id": "c"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerify_RateLimited(t *testing.T) {
	srv, mem := newTestServer(t, "")
	ctx := context.Background()

	candidate := &types.CanonicalCandidate{Name: "Jane Doe", Email: "jane@example.com"}
	require.NoError(t, mem.CreateCandidate(ctx, candidate))

	body := `{
		"candidate": {"name": "Jane Doe", "email": "jane@example.com"},
		"employers": ["Acme Corp"]
	}`

	// The default /verify burst is 3; the fourth request is rejected.
	for i := 0; i < 3; i++ {
		w := doJSON(t, srv, http.MethodPost, "/verify", body, nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d: %s", i+1, w.Body.String())
	}
	w := doJSON(t, srv, http.MethodPost, "/verify", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestAuthEnforcedWhenJWTConfigured(t *testing.T) {
	mem := store.NewMemory()
	orch := orchestrator.New(policy.NewMemoryCache())

	srv, err := New(Config{ListenAddr: ":0"}, Deps{
		Candidates: mem,
		Attempts:   mem,
		Workflows:  mem,
		Matcher:    identity.NewMatcher(mem),
		Runner:     orchestrator.NewRunner(orch, nil, mem, mem),
		Engine:     workflow.NewEngine(workflow.Config{Workflows: mem, Candidates: mem, Orch: orch}),
		JWT:        NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.rateLimiter.Stop() })

	w := doJSON(t, srv, http.MethodGet, "/candidates/"+candidateID(t, mem), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := srv.jwtService.GenerateToken(uuid.New())
	require.NoError(t, err)
	w = doJSON(t, srv, http.MethodGet, "/candidates/"+candidateID(t, mem), "",
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func candidateID(t *testing.T, mem *store.Memory) string {
	t.Helper()
	existing, err := mem.FindCandidateByEmail(context.Background(), "auth@example.com")
	require.NoError(t, err)
	if existing != nil {
		return existing.ID.String()
	}
	c := &types.CanonicalCandidate{Name: "Auth Test", Email: "auth@example.com"}
	require.NoError(t, mem.CreateCandidate(context.Background(), c))
	return c.ID.String()
}
