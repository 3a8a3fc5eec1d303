package domain

import (
	"context"
	"time"
)

// Role is a platform-wide account role.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleOrganizer  Role = "ORGANIZER"
	RoleReviewer   Role = "REVIEWER"
	RoleSubmitter  Role = "SUBMITTER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleOrganizer, RoleReviewer, RoleSubmitter:
		return true
	}
	return false
}

// User represents an authenticated account. Reviewers and submitters have no
// organization; everyone else belongs to exactly one.
// swagger:model User
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Role            Role       `json:"role"`
	OrganizationID  *string    `json:"organizationId"`
	PasswordHash    string     `json:"-"`
	Salt            string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(email, firstName, lastName string, role Role, organizationID *string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Role:           role,
		OrganizationID: organizationID,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// IsActive reports whether the account has been activated (password set through
// the invitation flow or at self-registration).
func (u *User) IsActive() bool {
	return u.EmailVerifiedAt != nil
}

// Principal is the authenticated caller of a dashboard request.
type Principal struct {
	UserID         string
	Email          string
	Role           Role
	OrganizationID *string
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(user *User, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the principal it was issued for.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*User, error)
	// CreateWithVerificationToken inserts the user and its invitation token in one transaction.
	CreateWithVerificationToken(ctx context.Context, user *User, token *VerificationToken) error
	// CreateWithSpeaker inserts the user and links (or creates) the event speaker in one transaction.
	CreateWithSpeaker(ctx context.Context, user *User, speaker *Speaker) error
	// Activate consumes a valid verification token and sets the password in one transaction.
	// Returns ErrNotFound when no unexpired token matches.
	Activate(ctx context.Context, email, tokenHash, passwordHash, salt string, now time.Time) (*User, error)
	// ReplaceVerificationToken drops every token for the identifier and stores the given one.
	ReplaceVerificationToken(ctx context.Context, token *VerificationToken) error
}

// VerificationToken is a hashed single-use token used for invitation and
// password-setup flows.
type VerificationToken struct {
	Identifier string
	TokenHash  string
	ExpiresAt  time.Time
}

// InvitationTokenTTL is how long an invitation link stays valid.
const InvitationTokenTTL = 7 * 24 * time.Hour

// AuthResult is returned by login, invitation acceptance and submitter registration.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// AccountService covers login and invitation acceptance.
type AccountService interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	AcceptInvitation(ctx context.Context, email, token, password string) (*AuthResult, error)
}
