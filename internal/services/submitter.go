package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventdesk/internal/domain"
)

type submitterService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	speakerRepo    domain.SpeakerRepository
	hasher         domain.PasswordHasher
	issuer         domain.TokenIssuer
	audit          *AuditTrail
	tokenExpiry    time.Duration
	contextTimeout time.Duration
	now            func() time.Time
}

// NewSubmitterService returns the SubmitterService for self-registration on public events.
func NewSubmitterService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	speakerRepo domain.SpeakerRepository,
	hasher domain.PasswordHasher,
	issuer domain.TokenIssuer,
	audit *AuditTrail,
	tokenExpiry time.Duration,
	timeout time.Duration,
) domain.SubmitterService {
	return &submitterService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		speakerRepo:    speakerRepo,
		hasher:         hasher,
		issuer:         issuer,
		audit:          audit,
		tokenExpiry:    tokenExpiry,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *submitterService) Register(ctx context.Context, eventSlug string, in domain.SubmitterRegistrationInput) (*domain.SubmitterRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	event, err := loadOpenEvent(ctx, s.eventRepo, eventSlug, now)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	firstName, lastName := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	speaker := domain.NewSpeaker(event.ID, email, firstName, lastName, domain.SpeakerStatusConfirmed, now, now)

	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role != domain.RoleSubmitter {
			return nil, domain.NewError(domain.ErrInvalidInput, "A user with email %s already exists with role %s", email, user.Role)
		}
		if err := s.hasher.Compare(user.PasswordHash, user.Salt, in.Password); err != nil {
			return nil, errInvalidCredentials
		}
		speaker.UserID = &user.ID
		if err := s.speakerRepo.UpsertLinked(ctx, speaker); err != nil {
			return nil, speakerLinkError(err)
		}
	case errors.Is(err, domain.ErrUserNotFound):
		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(salt, in.Password)
		if err != nil {
			return nil, err
		}
		user = domain.NewUser(email, firstName, lastName, domain.RoleSubmitter, nil, now, now)
		user.PasswordHash = hash
		user.Salt = salt
		verified := now
		user.EmailVerifiedAt = &verified
		if err := s.userRepo.CreateWithSpeaker(ctx, user, speaker); err != nil {
			if errors.Is(err, domain.ErrDuplicateEmail) {
				return nil, domain.NewError(domain.ErrInvalidInput, "A user with email %s already exists", email)
			}
			return nil, speakerLinkError(err)
		}
	default:
		return nil, fmt.Errorf("get user: %w", err)
	}

	token, err := s.issuer.Issue(user, s.tokenExpiry)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor:      &domain.Principal{UserID: user.ID, Email: user.Email, Role: user.Role},
		EventID:    event.ID,
		Action:     domain.AuditSubmitterRegister,
		EntityType: domain.AuditEntityUser,
		EntityID:   user.ID,
		Changes:    map[string]any{"speakerId": speaker.ID, "email": email},
	})
	return &domain.SubmitterRegistration{Token: token, User: user, Speaker: speaker}, nil
}

func speakerLinkError(err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return domain.NewError(domain.ErrInvalidInput, "This speaker profile is already linked to another account")
	}
	return fmt.Errorf("link speaker: %w", err)
}
