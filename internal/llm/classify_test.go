package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/employment-verifier/internal/types"
)

// fakeClient returns canned JSON from GenerateJSON.
type fakeClient struct {
	json  string
	err   error
	calls int
}

func (f *fakeClient) GenerateContent(_ context.Context, _ string, _ ModelTier) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeClient) GenerateJSON(_ context.Context, _ string, _ ModelTier) (string, error) {
	f.calls++
	return f.json, f.err
}

func (f *fakeClient) GetModel(_ ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                { return nil }

func TestClassifyKeywordFastPath(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  types.ReplyVerdict
	}{
		{"confirmation", "Hi, I can confirm that Jane Doe is currently employed here.", types.ReplyYes},
		{"denial", "We have no record of anyone by that name.", types.ReplyNo},
		{"refusal", "Our policy prohibits sharing employment information; please use The Work Number.", types.ReplyRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			c := NewReplyClassifier(client)

			verdict, err := c.Classify(context.Background(), tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
			assert.Zero(t, client.calls, "unambiguous replies must not hit the API")
		})
	}
}

func TestClassifyAmbiguousGoesToModel(t *testing.T) {
	client := &fakeClient{json: `{"verdict": "NO", "rationale": "left last year"}`}
	c := NewReplyClassifier(client)

	verdict, err := c.Classify(context.Background(), "She was with us for a while but things changed last year.")
	require.NoError(t, err)
	assert.Equal(t, types.ReplyNo, verdict)
	assert.Equal(t, 1, client.calls)
}

func TestClassifyConflictingKeywordsGoToModel(t *testing.T) {
	// Both a confirm and a deny phrase appear: the fast path must not pick one.
	client := &fakeClient{json: `{"verdict": "INCONCLUSIVE"}`}
	c := NewReplyClassifier(client)

	verdict, err := c.Classify(context.Background(),
		"I can confirm we received your request, but we have no record of this person in this office.")
	require.NoError(t, err)
	assert.Equal(t, types.ReplyInconclusive, verdict)
	assert.Equal(t, 1, client.calls)
}

func TestClassifyUnknownVerdictDefaultsInconclusive(t *testing.T) {
	client := &fakeClient{json: `{"verdict": "MAYBE"}`}
	c := NewReplyClassifier(client)

	verdict, err := c.Classify(context.Background(), "It is complicated.")
	require.NoError(t, err)
	assert.Equal(t, types.ReplyInconclusive, verdict)
}

func TestClassifyModelErrorIsInconclusive(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	c := NewReplyClassifier(client)

	verdict, err := c.Classify(context.Background(), "Ambiguous reply body.")
	assert.Error(t, err)
	assert.Equal(t, types.ReplyInconclusive, verdict)
}

func TestClassifyNilClientKeywordOnly(t *testing.T) {
	c := NewReplyClassifier(nil)

	verdict, err := c.Classify(context.Background(), "Something vague.")
	require.NoError(t, err)
	assert.Equal(t, types.ReplyInconclusive, verdict)

	verdict, err = c.Classify(context.Background(), "Yes, I can confirm the employment.")
	require.NoError(t, err)
	assert.Equal(t, types.ReplyYes, verdict)
}
