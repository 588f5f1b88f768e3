package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/employment-verifier/internal/types"
)

// ReplyClassifier turns a free-text employer email reply into a structured
// verdict. A keyword pass handles the common unambiguous phrasings without
// an API call; everything else goes to the model.
type ReplyClassifier struct {
	client Client
}

// NewReplyClassifier creates a reply classifier backed by the given client.
// A nil client restricts classification to the keyword pass, with ambiguous
// replies reported INCONCLUSIVE.
func NewReplyClassifier(client Client) *ReplyClassifier {
	return &ReplyClassifier{client: client}
}

// Keyword lists for the fast path. Matching is on the lowercased reply body;
// a reply matching lists for more than one verdict is ambiguous and falls
// through to the model.
var (
	confirmPhrases = []string{"i can confirm", "we can confirm", "is confirmed", "yes, they work", "yes they work", "currently employed", "does work here", "employment is verified"}
	denyPhrases    = []string{"no record of", "does not work", "doesn't work", "never worked", "not employed", "no longer employed", "cannot find any record"}
	refusePhrases  = []string{"cannot disclose", "can't disclose", "not able to share", "cannot share employment", "policy prohibits", "do not respond to verification", "use the work number", "contact our verification vendor"}
)

type replyVerdictOutput struct {
	Verdict   string `json:"verdict"`
	Rationale string `json:"rationale"`
}

// Classify returns the verdict for an inbound reply body.
func (c *ReplyClassifier) Classify(ctx context.Context, replyBody string) (types.ReplyVerdict, error) {
	if verdict, ok := classifyByKeywords(replyBody); ok {
		return verdict, nil
	}
	if c.client == nil {
		return types.ReplyInconclusive, nil
	}

	prompt := BuildExtractionPrompt(ReplyVerdictSchema(), replyBody)
	raw, err := c.client.GenerateJSON(ctx, prompt, TierLite)
	if err != nil {
		return types.ReplyInconclusive, fmt.Errorf("reply classification failed: %w", err)
	}

	var out replyVerdictOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return types.ReplyInconclusive, fmt.Errorf("failed to parse reply verdict: %w", err)
	}

	switch types.ReplyVerdict(strings.ToUpper(strings.TrimSpace(out.Verdict))) {
	case types.ReplyYes:
		return types.ReplyYes, nil
	case types.ReplyNo:
		return types.ReplyNo, nil
	case types.ReplyRefused:
		return types.ReplyRefused, nil
	default:
		return types.ReplyInconclusive, nil
	}
}

// classifyByKeywords handles unambiguous phrasings without an API call.
func classifyByKeywords(replyBody string) (types.ReplyVerdict, bool) {
	body := strings.ToLower(replyBody)

	matched := map[types.ReplyVerdict]bool{}
	for verdict, phrases := range map[types.ReplyVerdict][]string{
		types.ReplyYes:     confirmPhrases,
		types.ReplyNo:      denyPhrases,
		types.ReplyRefused: refusePhrases,
	} {
		for _, phrase := range phrases {
			if strings.Contains(body, phrase) {
				matched[verdict] = true
				break
			}
		}
	}

	if len(matched) != 1 {
		return "", false
	}
	for verdict := range matched {
		return verdict, true
	}
	return "", false
}
