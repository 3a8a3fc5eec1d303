package auth

import (
	"errors"
	"fmt"
	"time"

	"eventdesk/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"org,omitempty"`
}

type jwtIssuer struct {
	secret []byte
	now    func() time.Time
}

// JWT is both the TokenIssuer and the TokenVerifier for HS256 access tokens.
type JWT interface {
	domain.TokenIssuer
	domain.TokenVerifier
}

// NewJWTIssuer returns a JWT issuer and verifier that signs with HS256 using the given secret.
func NewJWTIssuer(secret string) JWT {
	return &jwtIssuer{secret: []byte(secret), now: time.Now}
}

func (i *jwtIssuer) Issue(user *domain.User, expiry time.Duration) (string, error) {
	now := i.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email:          user.Email,
		Role:           string(user.Role),
		OrganizationID: user.OrganizationID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (i *jwtIssuer) Verify(tokenString string) (*domain.Principal, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	role := domain.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, errors.New("token is missing subject or role"))
	}
	return &domain.Principal{
		UserID:         claims.Subject,
		Email:          claims.Email,
		Role:           role,
		OrganizationID: claims.OrganizationID,
	}, nil
}
