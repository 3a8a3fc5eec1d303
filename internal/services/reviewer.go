package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventdesk/internal/domain"
	"eventdesk/internal/policy"

	"golang.org/x/sync/errgroup"
)

var errReviewerNotFound = domain.NewError(domain.ErrNotFound, "Reviewer not found")

type reviewerService struct {
	eventRepo      domain.EventRepository
	speakerRepo    domain.SpeakerRepository
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	emailService   domain.EmailService
	audit          *AuditTrail
	effects        *Effects
	links          Links
	contextTimeout time.Duration
	now            func() time.Time
}

// NewReviewerService returns the ReviewerService that provisions reviewer accounts
// and maintains event rosters.
func NewReviewerService(eventRepo domain.EventRepository,
	speakerRepo domain.SpeakerRepository,
	userRepo domain.UserRepository,
	hasher domain.PasswordHasher,
	emailService domain.EmailService,
	audit *AuditTrail,
	effects *Effects,
	links Links,
	timeout time.Duration,
) domain.ReviewerService {
	return &reviewerService{
		eventRepo:      eventRepo,
		speakerRepo:    speakerRepo,
		userRepo:       userRepo,
		hasher:         hasher,
		emailService:   emailService,
		audit:          audit,
		effects:        effects,
		links:          links,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *reviewerService) List(ctx context.Context, p *domain.Principal, eventID string) (*domain.ReviewerRoster, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(policy.Request{Role: p.Role, Action: policy.ActionRead, Resource: policy.ResourceReviewerRoster}); err != nil {
		return nil, err
	}
	event, err := loadEventFor(ctx, s.eventRepo, p, eventID)
	if err != nil {
		return nil, err
	}

	var (
		users    []*domain.User
		speakers []*domain.Speaker
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.userRepo.ListByIDs(gctx, event.Settings.ReviewerUserIDs)
		if err != nil {
			return fmt.Errorf("list reviewer users: %w", err)
		}
		users = list
		return nil
	})
	g.Go(func() error {
		list, err := s.speakerRepo.ListByEventID(gctx, event.ID)
		if err != nil {
			return fmt.Errorf("list speakers: %w", err)
		}
		speakers = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roster := domain.BuildReviewerRoster(event.Settings.ReviewerUserIDs, users, speakers)
	return &roster, nil
}

func (s *reviewerService) Add(ctx context.Context, p *domain.Principal, eventID string, in domain.AddReviewerInput) (*domain.Reviewer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(policy.Request{Role: p.Role, Action: policy.ActionCreate, Resource: policy.ResourceReviewerRoster}); err != nil {
		return nil, err
	}
	event, err := loadEventFor(ctx, s.eventRepo, p, eventID)
	if err != nil {
		return nil, err
	}

	var (
		user        *domain.User
		speaker     *domain.Speaker
		inviteToken string
	)
	switch in.Type {
	case domain.ReviewerSourceSpeaker:
		speaker, err = s.speakerRepo.GetByID(ctx, in.SpeakerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get speaker: %w", err)
		}
		if speaker == nil || speaker.EventID != event.ID {
			return nil, domain.NewError(domain.ErrNotFound, "Speaker not found")
		}
		if speaker.UserID != nil {
			user, err = s.userRepo.GetByID(ctx, *speaker.UserID)
			if err != nil {
				return nil, fmt.Errorf("get linked user: %w", err)
			}
			if err := requireReviewerRole(user); err != nil {
				return nil, err
			}
		} else {
			user, inviteToken, err = s.resolveAccount(ctx, speaker.Email, speaker.FirstName, speaker.LastName)
			if err != nil {
				return nil, err
			}
			if err := s.speakerRepo.LinkUser(ctx, speaker.ID, user.ID); err != nil {
				return nil, speakerLinkError(err)
			}
			speaker.UserID = &user.ID
		}
	case domain.ReviewerSourceDirect:
		user, inviteToken, err = s.resolveAccount(ctx, in.Email, in.FirstName, in.LastName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewError(domain.ErrInvalidInput, "type must be %q or %q", domain.ReviewerSourceSpeaker, domain.ReviewerSourceDirect)
	}

	if _, err := s.eventRepo.AppendReviewer(ctx, event.ID, user.ID); err != nil {
		if errors.Is(err, domain.ErrAlreadyReviewer) {
			return nil, domain.NewError(domain.ErrConflict, "%s", domain.ErrAlreadyReviewer.Error())
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("append reviewer: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      p,
		EventID:    event.ID,
		Action:     domain.AuditReviewerAdd,
		EntityType: domain.AuditEntityUser,
		EntityID:   user.ID,
		Changes:    map[string]any{"type": in.Type, "email": user.Email, "accountCreated": inviteToken != ""},
	})
	if inviteToken != "" {
		s.sendInvitation(ctx, event, user, inviteToken)
	}

	reviewer := domain.NewReviewer(user, speaker)
	return &reviewer, nil
}

func (s *reviewerService) Remove(ctx context.Context, p *domain.Principal, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(policy.Request{Role: p.Role, Action: policy.ActionDelete, Resource: policy.ResourceReviewerRoster}); err != nil {
		return err
	}
	event, err := loadEventFor(ctx, s.eventRepo, p, eventID)
	if err != nil {
		return err
	}
	if _, err := s.eventRepo.RemoveReviewer(ctx, event.ID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errReviewerNotFound
		}
		return fmt.Errorf("remove reviewer: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      p,
		EventID:    event.ID,
		Action:     domain.AuditReviewerRemove,
		EntityType: domain.AuditEntityUser,
		EntityID:   userID,
		Changes:    map[string]any{"removed": userID},
	})
	return nil
}

func (s *reviewerService) ResendInvitation(ctx context.Context, p *domain.Principal, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(policy.Request{Role: p.Role, Action: policy.ActionCreate, Resource: policy.ResourceReviewerRoster}); err != nil {
		return err
	}
	event, err := loadEventFor(ctx, s.eventRepo, p, eventID)
	if err != nil {
		return err
	}
	if !event.Settings.HasReviewer(userID) {
		return errReviewerNotFound
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return errReviewerNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.IsActive() {
		return domain.NewError(domain.ErrInvalidInput, "This reviewer has already activated their account")
	}

	raw, hash, err := newVerificationToken()
	if err != nil {
		return err
	}
	token := &domain.VerificationToken{Identifier: user.Email, TokenHash: hash, ExpiresAt: s.now().Add(domain.InvitationTokenTTL)}
	if err := s.userRepo.ReplaceVerificationToken(ctx, token); err != nil {
		return fmt.Errorf("replace verification token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      p,
		EventID:    event.ID,
		Action:     domain.AuditReviewerResend,
		EntityType: domain.AuditEntityUser,
		EntityID:   user.ID,
		Changes:    map[string]any{"email": user.Email},
	})
	s.sendInvitation(ctx, event, user, raw)
	return nil
}

// resolveAccount finds the reviewer account for email or creates one with a
// pending invitation. inviteToken is the raw token when the account was created here.
func (s *reviewerService) resolveAccount(ctx context.Context, email, firstName, lastName string) (user *domain.User, inviteToken string, err error) {
	email = normalizeEmail(email)
	user, err = s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return user, "", requireReviewerRole(user)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	placeholder, err := randomHex(32)
	if err != nil {
		return nil, "", err
	}
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, "", err
	}
	hash, err := s.hasher.Hash(salt, placeholder)
	if err != nil {
		return nil, "", err
	}
	raw, tokenHash, err := newVerificationToken()
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	user = domain.NewUser(email, strings.TrimSpace(firstName), strings.TrimSpace(lastName), domain.RoleReviewer, nil, now, now)
	user.PasswordHash = hash
	user.Salt = salt
	token := &domain.VerificationToken{Identifier: email, TokenHash: tokenHash, ExpiresAt: now.Add(domain.InvitationTokenTTL)}
	if err := s.userRepo.CreateWithVerificationToken(ctx, user, token); err != nil {
		if !errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, "", fmt.Errorf("create reviewer: %w", err)
		}
		// Created concurrently; resolve against the stored account.
		user, err = s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, "", fmt.Errorf("get user: %w", err)
		}
		return user, "", requireReviewerRole(user)
	}
	return user, raw, nil
}

func requireReviewerRole(u *domain.User) error {
	if u.Role != domain.RoleReviewer {
		return domain.NewError(domain.ErrInvalidInput, "A user with email %s already exists with role %s. Change their role in Settings first", u.Email, u.Role)
	}
	return nil
}

func (s *reviewerService) sendInvitation(ctx context.Context, event *domain.Event, user *domain.User, rawToken string) {
	data := &domain.ReviewerInvitationEmailData{
		Email:         user.Email,
		FirstName:     user.FirstName,
		EventName:     event.Name,
		InvitationURL: s.links.ReviewerInvitation(user.Email, rawToken),
		ExpiresAt:     s.now().Add(domain.InvitationTokenTTL),
	}
	s.effects.Run(ctx, BestEffort, "email reviewer_invitation", func(ctx context.Context) error {
		return s.emailService.SendReviewerInvitation(ctx, data)
	})
}
