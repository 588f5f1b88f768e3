package outreach

import (
	"fmt"
	"strings"
)

// replyDomain is the inbound domain whose addresses carry correlation
// tokens; the webhook handler parses the token back out of the reply-to.
const replyDomain = "verify-reply.employment-verifier.dev"

// ReplyAddress builds the tokenized reply-to address for an outbound
// verification email.
func ReplyAddress(token string) string {
	return fmt.Sprintf("verify+%s@%s", token, replyDomain)
}

// TokenFromAddress extracts the correlation token from a tokenized reply
// address, or "" when the address does not carry one.
func TokenFromAddress(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return ""
	}
	local := address[:at]
	plus := strings.Index(local, "+")
	if plus < 0 {
		return ""
	}
	return local[plus+1:]
}

// VerificationEmail composes the outbound verification request.
func VerificationEmail(candidateName, employer, token string) (subject, body string) {
	subject = fmt.Sprintf("Employment verification request: %s", candidateName)
	body = fmt.Sprintf(
		"Hello,\n\n"+
			"We are verifying an employment claim and would appreciate your help.\n\n"+
			"Candidate: %s\n"+
			"Claimed employer: %s\n\n"+
			"Could you confirm whether this person is or was employed at your company?\n"+
			"A simple reply to this email is all we need.\n\n"+
			"Reply reference: %s\n\n"+
			"Thank you,\nEmployment Verification Team\n",
		candidateName, employer, token)
	return subject, body
}
