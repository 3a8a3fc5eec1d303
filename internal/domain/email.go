package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// AbstractSubmittedEmailData holds data for the public submission confirmation.
type AbstractSubmittedEmailData struct {
	Email         string
	FirstName     string
	EventName     string
	AbstractTitle string
	ManagementURL string
}

// AbstractStatusEmailData holds data for the review decision notification.
type AbstractStatusEmailData struct {
	Email         string
	FirstName     string
	EventName     string
	AbstractTitle string
	Status        AbstractStatus
	ReviewNotes   string
	ReviewScore   *int
	ManagementURL string // empty for abstracts created from the dashboard
}

// ReviewerInvitationEmailData holds data for the reviewer invitation.
type ReviewerInvitationEmailData struct {
	Email         string
	FirstName     string
	EventName     string
	InvitationURL string
	ExpiresAt     time.Time
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendAbstractSubmitted(ctx context.Context, data *AbstractSubmittedEmailData) error
	SendAbstractStatus(ctx context.Context, data *AbstractStatusEmailData) error
	SendReviewerInvitation(ctx context.Context, data *ReviewerInvitationEmailData) error
}
