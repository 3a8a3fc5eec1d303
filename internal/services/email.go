package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventdesk/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendAbstractSubmitted sends the submission confirmation with the management link.
func (s *emailService) SendAbstractSubmitted(ctx context.Context, data *domain.AbstractSubmittedEmailData) error {
	if data == nil {
		return fmt.Errorf("abstract submitted email data is nil")
	}
	return s.send(ctx, "abstract_submitted", data.Email, data)
}

// SendAbstractStatus notifies the speaker of a review decision.
func (s *emailService) SendAbstractStatus(ctx context.Context, data *domain.AbstractStatusEmailData) error {
	if data == nil {
		return fmt.Errorf("abstract status email data is nil")
	}
	return s.send(ctx, "abstract_status", data.Email, data)
}

// SendReviewerInvitation sends the account setup link to a new reviewer.
func (s *emailService) SendReviewerInvitation(ctx context.Context, data *domain.ReviewerInvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("reviewer invitation email data is nil")
	}
	return s.send(ctx, "reviewer_invitation", data.Email, data)
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send %s email: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", to)
	return nil
}
