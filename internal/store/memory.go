package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/types"
)

// Memory is an in-process implementation of every store interface. It is
// safe for concurrent use and backs tests and CLI dry runs.
type Memory struct {
	mu             sync.RWMutex
	candidates     map[uuid.UUID]*types.CanonicalCandidate
	attempts       map[uuid.UUID]*types.VerificationAttempt
	workflows      map[uuid.UUID]*types.WorkflowRun
	tokens         map[string]uuid.UUID // reply token -> workflow ID
	consumedTokens map[string]bool
	attestations   map[string]*types.Attestation // key: hash|employer|channel
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		candidates:     make(map[uuid.UUID]*types.CanonicalCandidate),
		attempts:       make(map[uuid.UUID]*types.VerificationAttempt),
		workflows:      make(map[uuid.UUID]*types.WorkflowRun),
		tokens:         make(map[string]uuid.UUID),
		consumedTokens: make(map[string]bool),
		attestations:   make(map[string]*types.Attestation),
	}
}

// copyCandidate returns a deep copy so callers never share slices or maps
// with the stored record.
func copyCandidate(c *types.CanonicalCandidate) *types.CanonicalCandidate {
	if c == nil {
		return nil
	}
	out := *c
	out.Employers = make([]types.EmployerRecord, len(c.Employers))
	for i, e := range c.Employers {
		out.Employers[i] = copyEmployer(e)
	}
	return &out
}

func copyEmployer(e types.EmployerRecord) types.EmployerRecord {
	out := e
	out.Statuses = make(map[string]types.ChannelStatus, len(e.Statuses))
	for k, v := range e.Statuses {
		out.Statuses[k] = v
	}
	if e.LedgerRefs != nil {
		out.LedgerRefs = make(map[string]string, len(e.LedgerRefs))
		for k, v := range e.LedgerRefs {
			out.LedgerRefs[k] = v
		}
	}
	return out
}

// GetCandidate returns the candidate by ID.
func (m *Memory) GetCandidate(_ context.Context, id uuid.UUID) (*types.CanonicalCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCandidate(c), nil
}

// FindCandidateByEmail returns the candidate with the given normalized email.
func (m *Memory) FindCandidateByEmail(_ context.Context, email string) (*types.CanonicalCandidate, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.candidates {
		if identity.NormalizeEmail(c.Email) == email {
			return copyCandidate(c), nil
		}
	}
	return nil, nil
}

// FindCandidatesByName returns candidates whose normalized name matches.
func (m *Memory) FindCandidatesByName(_ context.Context, normalizedName string) ([]*types.CanonicalCandidate, error) {
	if strings.TrimSpace(normalizedName) == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.CanonicalCandidate
	for _, c := range m.candidates {
		if identity.NormalizeName(c.Name) == normalizedName {
			out = append(out, copyCandidate(c))
		}
	}
	return out, nil
}

// CreateCandidate persists a new candidate.
func (m *Memory) CreateCandidate(_ context.Context, c *types.CanonicalCandidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[c.ID] = copyCandidate(c)
	return nil
}

// UpdateCandidate persists changes to an existing candidate.
func (m *Memory) UpdateCandidate(_ context.Context, c *types.CanonicalCandidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[c.ID]; !ok {
		return ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	m.candidates[c.ID] = copyCandidate(c)
	return nil
}

// UpsertEmployer applies a read-modify-write employer update against the
// latest stored record.
func (m *Memory) UpsertEmployer(_ context.Context, candidateID uuid.UUID, rec types.EmployerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[candidateID]
	if !ok {
		return ErrNotFound
	}
	for i, e := range c.Employers {
		if identity.EmployersMatch(e.Name, rec.Name) {
			c.Employers[i] = copyEmployer(rec)
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	c.Employers = append(c.Employers, copyEmployer(rec))
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// CreateAttempt persists a new verification attempt.
func (m *Memory) CreateAttempt(_ context.Context, a *types.VerificationAttempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.attempts[a.ID] = &cp
	return nil
}

// UpdateAttempt persists changes to an attempt. Completed attempts are
// terminal and reject further mutation.
func (m *Memory) UpdateAttempt(_ context.Context, a *types.VerificationAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.attempts[a.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Status == types.StatusCompleted {
		return ErrAttemptTerminal
	}
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	m.attempts[a.ID] = &cp
	return nil
}

// GetAttempt returns the attempt by ID.
func (m *Memory) GetAttempt(_ context.Context, id uuid.UUID) (*types.VerificationAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ListAttemptsByCandidate returns all attempts for a candidate.
func (m *Memory) ListAttemptsByCandidate(_ context.Context, candidateID uuid.UUID) ([]*types.VerificationAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.VerificationAttempt
	for _, a := range m.attempts {
		if a.CandidateID == candidateID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateWorkflow persists a new workflow run and indexes its reply token.
func (m *Memory) CreateWorkflow(_ context.Context, w *types.WorkflowRun) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.workflows[w.ID] = &cp
	if w.ReplyToken != "" {
		m.tokens[w.ReplyToken] = w.ID
	}
	return nil
}

// UpdateWorkflow persists changes to a workflow run.
func (m *Memory) UpdateWorkflow(_ context.Context, w *types.WorkflowRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[w.ID]; !ok {
		return ErrNotFound
	}
	w.UpdatedAt = time.Now().UTC()
	cp := *w
	m.workflows[w.ID] = &cp
	if w.ReplyToken != "" {
		m.tokens[w.ReplyToken] = w.ID
	}
	return nil
}

// GetWorkflow returns the workflow run by ID.
func (m *Memory) GetWorkflow(_ context.Context, id uuid.UUID) (*types.WorkflowRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *w
	return &cp, nil
}

// ConsumeToken atomically resolves and consumes an email reply token.
func (m *Memory) ConsumeToken(_ context.Context, token string) (*types.WorkflowRun, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumedTokens[token] {
		return nil, false, nil
	}
	id, ok := m.tokens[token]
	if !ok {
		return nil, false, nil
	}
	w, ok := m.workflows[id]
	if !ok {
		return nil, false, nil
	}
	m.consumedTokens[token] = true
	cp := *w
	return &cp, true, nil
}

func attestationKey(hash, employer, channel string) string {
	return hash + "|" + identity.NormalizeEmployer(employer) + "|" + channel
}

// HasAttestation reports whether an attestation exists for the triple.
func (m *Memory) HasAttestation(_ context.Context, candidateHash, employer, channel string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.attestations[attestationKey(candidateHash, employer, channel)]
	return ok, nil
}

// SaveAttestation persists an attestation record.
func (m *Memory) SaveAttestation(_ context.Context, a *types.Attestation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.attestations[attestationKey(a.CandidateHash, a.Employer, a.Channel)] = &cp
	return nil
}
