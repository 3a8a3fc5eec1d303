package services

import (
	"net/url"
	"strings"
)

// Links builds the absolute URLs placed in outgoing emails.
type Links struct {
	BaseURL string
}

// AbstractManagement is the self-service link for a management token.
func (l Links) AbstractManagement(token string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/abstracts/manage/" + url.PathEscape(token)
}

// ReviewerInvitation is the account setup link for an invited reviewer.
func (l Links) ReviewerInvitation(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return strings.TrimRight(l.BaseURL, "/") + "/invitations/accept?" + q.Encode()
}
