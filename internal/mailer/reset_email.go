package mailer

import (
	"fmt"
	"net/url"
)

const resetSubject = "Reset your Tek Riders password"

// ResetEmail builds the subject and body of a password-reset message. The link
// carries the token and email as query parameters consumed by the frontend's
// reset form.
func ResetEmail(baseURL, email, token string) (subject, body string) {
	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		baseURL, url.QueryEscape(token), url.QueryEscape(email))

	body = fmt.Sprintf("Hello,\n\n"+
		"A password reset was requested for your Tek Riders account.\n"+
		"Open the link below within one hour to choose a new password:\n\n"+
		"%s\n\n"+
		"If you did not request this, you can ignore this email.\n", link)

	return resetSubject, body
}
