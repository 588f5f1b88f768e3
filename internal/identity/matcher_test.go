package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

func TestResolveCreatesNewCandidate(t *testing.T) {
	m := identity.NewMatcher(store.NewMemory())

	res, err := m.Resolve(context.Background(), types.CandidateData{
		Name:  "Jane Doe",
		Email: "jane@example.com",
	}, []string{"Acme Inc", "Globex"})
	require.NoError(t, err)

	assert.True(t, res.IsNew)
	assert.Equal(t, types.MatchNone, res.MatchType)
	require.Len(t, res.Candidate.Employers, 2)
	assert.Equal(t, types.ChannelNotStarted, res.Candidate.Employers[0].Statuses[types.ChannelWeb])
}

func TestResolveSameEmailReturnsSameCandidate(t *testing.T) {
	m := identity.NewMatcher(store.NewMemory())
	ctx := context.Background()

	first, err := m.Resolve(ctx, types.CandidateData{Name: "Jane Doe", Email: "Jane@Example.com"}, []string{"Acme"})
	require.NoError(t, err)

	// Repeated ingestion of the same email never creates a duplicate, even
	// with a different name spelling and disjoint employers.
	second, err := m.Resolve(ctx, types.CandidateData{Name: "Jane A. Doe", Email: "jane@example.com "}, []string{"Initech"})
	require.NoError(t, err)

	assert.False(t, second.IsNew)
	assert.Equal(t, types.MatchEmail, second.MatchType)
	assert.Equal(t, first.Candidate.ID, second.Candidate.ID)
	assert.Equal(t, "Jane A. Doe", second.Candidate.Name, "name reflects the latest scan")
	assert.Len(t, second.Candidate.Employers, 2)
}

func TestResolveSameNameNoOverlapNotMerged(t *testing.T) {
	m := identity.NewMatcher(store.NewMemory())
	ctx := context.Background()

	first, err := m.Resolve(ctx, types.CandidateData{Name: "John Smith"}, []string{"Acme", "Globex"})
	require.NoError(t, err)

	second, err := m.Resolve(ctx, types.CandidateData{Name: "John Smith"}, []string{"Initech", "Hooli"})
	require.NoError(t, err)

	assert.True(t, second.IsNew, "0%% employer overlap must not merge two people sharing a name")
	assert.NotEqual(t, first.Candidate.ID, second.Candidate.ID)
}

func TestResolveSameNameWithOverlapMerged(t *testing.T) {
	m := identity.NewMatcher(store.NewMemory())
	ctx := context.Background()

	first, err := m.Resolve(ctx, types.CandidateData{Name: "John Smith", Phone: "+1 555 0100"}, []string{"Acme Inc", "Globex"})
	require.NoError(t, err)

	second, err := m.Resolve(ctx, types.CandidateData{Name: "John Smith", Email: "john@acme.com"}, []string{"Acme LLC", "Initech"})
	require.NoError(t, err)

	assert.False(t, second.IsNew, ">=50%% employer overlap corroborates the name match")
	assert.Equal(t, types.MatchNameAndEmployer, second.MatchType)
	assert.Equal(t, first.Candidate.ID, second.Candidate.ID)

	// Merge is monotonic: phone stays from the first scan, email fills in
	// from the second, and the employer list gains only the new entry.
	assert.Equal(t, "+1 555 0100", second.Candidate.Phone)
	assert.Equal(t, "john@acme.com", second.Candidate.Email)
	assert.Len(t, second.Candidate.Employers, 3)
}

func TestResolveMergeDoesNotOverwritePopulatedFields(t *testing.T) {
	m := identity.NewMatcher(store.NewMemory())
	ctx := context.Background()

	_, err := m.Resolve(ctx, types.CandidateData{
		Name: "Ana Lima", Email: "ana@example.com", City: "Austin", State: "TX",
	}, []string{"Acme"})
	require.NoError(t, err)

	res, err := m.Resolve(ctx, types.CandidateData{
		Name: "Ana Lima", Email: "ana@example.com", City: "Dallas", LinkedInURL: "https://linkedin.com/in/analima",
	}, []string{"Acme"})
	require.NoError(t, err)

	assert.Equal(t, "Austin", res.Candidate.City, "populated fields are never overwritten")
	assert.Equal(t, "https://linkedin.com/in/analima", res.Candidate.LinkedInURL, "empty fields fill in")
}

func TestResolveRequiresName(t *testing.T) {
	m := identity.NewMatcher(store.NewMemory())
	_, err := m.Resolve(context.Background(), types.CandidateData{Email: "x@example.com"}, nil)
	assert.Error(t, err)
}
