package types

import "time"

// Artifact type tags.
const (
	ArtifactWebResult     = "web_result"
	ArtifactTranscript    = "call_transcript"
	ArtifactContactInfo   = "contact_info"
	ArtifactEmailReply    = "email_reply"
	ArtifactPolicyRecord  = "policy_record"
	ArtifactPeopleRecord  = "people_record"
	ArtifactSearchSnippet = "search_snippet"
)

// EvidenceArtifact is one immutable unit of proof attached to a verification
// attempt: a URL plus snippet, a call transcript, a contact-info discovery.
// Artifacts are only ever appended, never edited.
type EvidenceArtifact struct {
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	Label     string    `json:"label"`
	Snippet   string    `json:"snippet,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EvidenceResult is what an evidence provider produces for one
// (candidate, employer) pair.
type EvidenceResult struct {
	Found      bool               `json:"found"`
	Confidence float64            `json:"confidence"`
	Artifacts  []EvidenceArtifact `json:"artifacts"`
	Reasoning  string             `json:"reasoning"`
}

// Clone returns a deep copy of the result. Batch evidence is computed once
// per candidate and shared read-only across all employer runs; every run
// must clone before attaching the result to its own mutable record so that
// per-run appends never leak across runs.
func (r *EvidenceResult) Clone() *EvidenceResult {
	if r == nil {
		return nil
	}
	out := &EvidenceResult{
		Found:      r.Found,
		Confidence: r.Confidence,
		Reasoning:  r.Reasoning,
	}
	if r.Artifacts != nil {
		out.Artifacts = make([]EvidenceArtifact, len(r.Artifacts))
		copy(out.Artifacts, r.Artifacts)
	}
	return out
}

// EmptyEvidence returns the degraded "no evidence" result used when a
// provider fails. Provider failures fail open to "nothing found", never
// closed to "verified".
func EmptyEvidence(reason string) *EvidenceResult {
	return &EvidenceResult{Found: false, Confidence: 0, Reasoning: reason}
}
