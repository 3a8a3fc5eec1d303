package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventdesk/internal/domain"
)

var errInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "Invalid email or password")

type accountService struct {
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	issuer         domain.TokenIssuer
	tokenExpiry    time.Duration
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAccountService returns the AccountService for login and invitation acceptance.
func NewAccountService(userRepo domain.UserRepository, hasher domain.PasswordHasher, issuer domain.TokenIssuer, tokenExpiry, timeout time.Duration) domain.AccountService {
	return &accountService{
		userRepo:       userRepo,
		hasher:         hasher,
		issuer:         issuer,
		tokenExpiry:    tokenExpiry,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *accountService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.IsActive() {
		return nil, domain.NewError(domain.ErrForbidden, "Account is not activated. Use the invitation link to set a password")
	}
	return s.issue(user)
}

func (s *accountService) AcceptInvitation(ctx context.Context, email, token, password string) (*domain.AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.Activate(ctx, normalizeEmail(email), hashToken(token), hash, salt, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.NewError(domain.ErrInvalidInput, "Invitation link is invalid or has expired")
		}
		return nil, fmt.Errorf("activate account: %w", err)
	}
	return s.issue(user)
}

func (s *accountService) issue(user *domain.User) (*domain.AuthResult, error) {
	token, err := s.issuer.Issue(user, s.tokenExpiry)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{Token: token, User: user}, nil
}
