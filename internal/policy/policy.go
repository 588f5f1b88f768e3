// Package policy classifies how an employer can be verified and caches the
// learned classification per employer domain.
package policy

import (
	"strings"

	"github.com/jonathan/employment-verifier/internal/identity"
)

// Method is the verification method a policy prescribes.
type Method string

// Policy methods.
const (
	// MethodNetwork means the employer only verifies through a paid
	// verification network (e.g. The Work Number). Hitting this policy is a
	// deliberate hard stop for the orchestrator, not a failure.
	MethodNetwork Method = "network"

	// MethodDirect means the employer can be contacted directly.
	MethodDirect Method = "direct"
)

// Policy is a cached classification of how an employer verifies employment.
type Policy struct {
	Domain string `json:"domain"`
	Method Method `json:"method"`
	Vendor string `json:"vendor,omitempty"`
}

// Network reports whether the policy requires a verification network.
func (p *Policy) Network() bool {
	return p != nil && p.Method == MethodNetwork
}

// networkOnlyEmployers are large enterprises known to route every
// employment verification through The Work Number. Matching is on the
// normalized employer name.
var networkOnlyEmployers = []string{
	"amazon",
	"walmart",
	"target",
	"home depot",
	"lowes",
	"costco",
	"kroger",
	"mcdonalds",
	"burger king",
	"wendys",
	"taco bell",
	"starbucks",
	"chipotle",
	"fedex",
	"ups",
	"usps",
	"bank of america",
	"wells fargo",
	"jpmorgan chase",
	"att",
	"verizon",
	"comcast",
}

// vendorBrands are verification-vendor brand tokens. An employer name
// containing one of these is assumed to verify through that vendor.
var vendorBrands = []string{
	"equifax",
	"truework",
	"hireright",
	"sterling",
	"checkr",
	"adp",
}

// TheWorkNumber is the vendor assigned to network-only enterprise employers.
const TheWorkNumber = "The Work Number"

// Classify applies the static heuristics, in order, to an employer name:
//
//  1. Known network-only large enterprise -> network via The Work Number.
//  2. Name contains a verification-vendor brand token -> network via that
//     vendor.
//
// Returns nil when neither heuristic fires; the employer is then assumed
// directly contactable.
func Classify(employerName string) *Policy {
	normalized := identity.NormalizeEmployer(employerName)
	if normalized == "" {
		return nil
	}

	for _, known := range networkOnlyEmployers {
		if normalized == known || strings.Contains(normalized, known) {
			return &Policy{
				Domain: DomainKey(employerName),
				Method: MethodNetwork,
				Vendor: TheWorkNumber,
			}
		}
	}

	for _, brand := range vendorBrands {
		if strings.Contains(normalized, brand) {
			return &Policy{
				Domain: DomainKey(employerName),
				Method: MethodNetwork,
				Vendor: brandLabel(brand),
			}
		}
	}

	return nil
}

// KnownNetworkOnlyEmployers returns a copy of the built-in network-only
// employer list, for seeding the policy cache.
func KnownNetworkOnlyEmployers() []string {
	out := make([]string, len(networkOnlyEmployers))
	copy(out, networkOnlyEmployers)
	return out
}

// brandLabels maps vendor tokens to their display names.
var brandLabels = map[string]string{
	"equifax":   "Equifax",
	"truework":  "TrueWork",
	"hireright": "HireRight",
	"sterling":  "Sterling",
	"checkr":    "Checkr",
	"adp":       "ADP",
}

func brandLabel(brand string) string {
	if label, ok := brandLabels[brand]; ok {
		return label
	}
	return brand
}

// DomainKey derives the cache key for an employer. When a real domain is
// known callers should pass it instead; this fallback keys on the
// normalized name with spaces collapsed.
func DomainKey(employerName string) string {
	return strings.ReplaceAll(identity.NormalizeEmployer(employerName), " ", "")
}
