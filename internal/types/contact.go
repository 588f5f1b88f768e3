package types

// ContactConfidence tags a contact-discovery result. There is deliberately
// no middle tier: a result either passed every validation gate (HIGH) or it
// is treated as absent (NOT_FOUND). A wrong contact channel risks verifying
// the wrong company, so no guessing.
type ContactConfidence string

// Contact confidences.
const (
	ContactHigh     ContactConfidence = "HIGH"
	ContactNotFound ContactConfidence = "NOT_FOUND"
)

// ContactResult is one discovered contact value (phone number or email
// address) with its provenance.
type ContactResult struct {
	Value      string            `json:"value,omitempty"`
	SourceURL  string            `json:"source_url,omitempty"`
	Confidence ContactConfidence `json:"confidence"`
}

// Found reports whether the result passed validation.
func (r ContactResult) Found() bool {
	return r.Confidence == ContactHigh && r.Value != ""
}

// ContactInfo bundles the phone and email discovery results for an employer.
type ContactInfo struct {
	Phone ContactResult `json:"phone"`
	Email ContactResult `json:"email"`
}
