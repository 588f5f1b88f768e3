package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTelLinks(t *testing.T) {
	html := `<html><body>
		<div>Human Resources: <a href="tel:+14155550100">Call HR</a></div>
	</body></html>`

	candidates := ExtractPhoneCandidates(html)
	require.NotEmpty(t, candidates)
	assert.Equal(t, SourceTelLink, candidates[0].Source)
	assert.Equal(t, "14155550100", candidates[0].Digits)
	assert.Contains(t, candidates[0].Context, "human resources")
}

func TestExtractVisibleText(t *testing.T) {
	html := `<html><body>
		<p>Reach our main office at (415) 555-0123 during business hours.</p>
	</body></html>`

	candidates := ExtractPhoneCandidates(html)
	require.Len(t, candidates, 1)
	assert.Equal(t, SourceText, candidates[0].Source)
	assert.Equal(t, "4155550123", candidates[0].Digits)
	assert.Contains(t, candidates[0].Context, "main office")
}

func TestExtractJSONLD(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type": "Organization", "contactPoint": {"@type": "ContactPoint", "contactType": "human resources", "telephone": "+1-415-555-0199"}}
		</script>
	</head><body></body></html>`

	candidates := ExtractPhoneCandidates(html)
	require.Len(t, candidates, 1)
	assert.Equal(t, SourceJSONLD, candidates[0].Source)
	assert.Equal(t, "14155550199", candidates[0].Digits)
	assert.Contains(t, candidates[0].Context, "human resources")
}

func TestExtractScriptRequiresPhoneContext(t *testing.T) {
	// The first script has no phone-context keywords near the number; the
	// second does.
	html := `<html><body>
		<script>var sessionId = 4155550111 * 2;</script>
		<script>var config = {phone: "415-555-0122", label: "call us"};</script>
	</body></html>`

	candidates := ExtractPhoneCandidates(html)
	require.Len(t, candidates, 1)
	assert.Equal(t, SourceScript, candidates[0].Source)
	assert.Equal(t, "4155550122", candidates[0].Digits)
}

func TestDedupeByDigits(t *testing.T) {
	html := `<html><body>
		<a href="tel:+14155550100">Call</a>
		<p>Phone: (415) 555-0100</p>
	</body></html>`

	candidates := ExtractPhoneCandidates(html)
	// The same number in two sources collapses to one candidate; the
	// earlier source (tel link) wins.
	digits := map[string]int{}
	for _, c := range candidates {
		digits[c.Digits]++
	}
	for d, n := range digits {
		assert.Equal(t, 1, n, "digits %s duplicated", d)
	}
}

func TestFilterFalsePositives(t *testing.T) {
	tests := []struct {
		name   string
		digits string
		keep   bool
	}{
		{"valid us number", "4155550100", true},
		{"valid with country code", "14155550100", true},
		{"too short", "555010", false},
		{"too long", "1234567890123456", false},
		{"timestamp shaped", "2024011512", false}, // YYYYMMDD prefix
		{"full timestamp", "20240115123045", false},
		{"date-like but invalid month", "2024131512", true},
		{"repeating digits", "0000000000", false},
		{"nearly all repeating", "0000000001", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keep, plausiblePhone(tt.digits))
		})
	}
}

func TestFilterPlaceholderNumbers(t *testing.T) {
	assert.False(t, plausiblePhone("20240115")) // short and date-shaped
	assert.False(t, plausiblePhone("1111111111"))
}
