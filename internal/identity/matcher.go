package identity

import (
	"context"
	"fmt"

	"github.com/jonathan/employment-verifier/internal/types"
)

// minEmployerOverlap is the employer-list overlap ratio required to merge
// two candidates on a name match. Name-only matching would over-merge
// people who share common names, so it is gated on corroboration.
const minEmployerOverlap = 0.5

// CandidateFinder is the subset of store operations the matcher needs.
type CandidateFinder interface {
	FindCandidateByEmail(ctx context.Context, email string) (*types.CanonicalCandidate, error)
	FindCandidatesByName(ctx context.Context, normalizedName string) ([]*types.CanonicalCandidate, error)
	CreateCandidate(ctx context.Context, c *types.CanonicalCandidate) error
	UpdateCandidate(ctx context.Context, c *types.CanonicalCandidate) error
}

// Matcher finds-or-creates canonical candidate records.
type Matcher struct {
	store CandidateFinder
}

// NewMatcher creates a matcher backed by the given candidate store.
func NewMatcher(store CandidateFinder) *Matcher {
	return &Matcher{store: store}
}

// Resolution is the outcome of resolving one scan against the store.
type Resolution struct {
	Candidate *types.CanonicalCandidate
	IsNew     bool
	MatchType types.MatchType
}

// Resolve maps incoming candidate data to its canonical record.
//
// Matching priority, first hit wins:
//  1. Exact normalized-email match.
//  2. Normalized-name match corroborated by >= 50% employer-list overlap.
//  3. Otherwise a new canonical candidate is created.
//
// Absence of a match is a normal outcome, not an error. On a match, fields
// merge monotonically: empty fields fill in, populated fields are never
// overwritten, except the name which always reflects the latest scan.
func (m *Matcher) Resolve(ctx context.Context, data types.CandidateData, claimedEmployers []string) (*Resolution, error) {
	if NormalizeName(data.Name) == "" {
		return nil, fmt.Errorf("candidate name is required")
	}

	// Priority 1: email is a strong, low-false-positive key.
	if email := NormalizeEmail(data.Email); email != "" {
		existing, err := m.store.FindCandidateByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up candidate by email: %w", err)
		}
		if existing != nil {
			if err := m.merge(ctx, existing, data, claimedEmployers); err != nil {
				return nil, err
			}
			return &Resolution{Candidate: existing, MatchType: types.MatchEmail}, nil
		}
	}

	// Priority 2: name match gated by employer overlap.
	sameName, err := m.store.FindCandidatesByName(ctx, NormalizeName(data.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to look up candidates by name: %w", err)
	}
	for _, existing := range sameName {
		if OverlapRatio(employerNames(existing.Employers), claimedEmployers) >= minEmployerOverlap {
			if err := m.merge(ctx, existing, data, claimedEmployers); err != nil {
				return nil, err
			}
			return &Resolution{Candidate: existing, MatchType: types.MatchNameAndEmployer}, nil
		}
	}

	// No match: create a new canonical record.
	candidate := &types.CanonicalCandidate{
		Name:        data.Name,
		Email:       NormalizeEmail(data.Email),
		Phone:       data.Phone,
		LinkedInURL: data.LinkedInURL,
		City:        data.City,
		State:       data.State,
	}
	for _, employer := range claimedEmployers {
		if !ContainsEmployer(employerNames(candidate.Employers), employer) {
			candidate.Employers = append(candidate.Employers, types.NewEmployerRecord(employer))
		}
	}
	if err := m.store.CreateCandidate(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return &Resolution{Candidate: candidate, IsNew: true, MatchType: types.MatchNone}, nil
}

// merge folds scan data into an existing candidate and persists it.
func (m *Matcher) merge(ctx context.Context, existing *types.CanonicalCandidate, data types.CandidateData, claimedEmployers []string) error {
	// Name always reflects the latest scan.
	if data.Name != "" {
		existing.Name = data.Name
	}

	// Remaining fields fill in only when empty.
	if existing.Email == "" {
		existing.Email = NormalizeEmail(data.Email)
	}
	if existing.Phone == "" {
		existing.Phone = data.Phone
	}
	if existing.LinkedInURL == "" {
		existing.LinkedInURL = data.LinkedInURL
	}
	if existing.City == "" {
		existing.City = data.City
	}
	if existing.State == "" {
		existing.State = data.State
	}

	// Append employers not already present, with default channel statuses.
	for _, employer := range claimedEmployers {
		if !ContainsEmployer(employerNames(existing.Employers), employer) {
			existing.Employers = append(existing.Employers, types.NewEmployerRecord(employer))
		}
	}

	if err := m.store.UpdateCandidate(ctx, existing); err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	return nil
}

func employerNames(records []types.EmployerRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}
