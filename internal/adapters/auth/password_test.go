package auth

import (
	"regexp"
	"strings"
	"testing"

	"eventdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_GenerateSalt(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		salt, err := h.GenerateSalt()
		require.NoError(t, err)
		assert.Regexp(t, hexRe, salt)
		assert.False(t, seen[salt])
		seen[salt] = true
	}
}

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	salt, err := h.GenerateSalt()
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
	}{
		{name: "short", password: "my-secret-password"},
		{name: "longer than bcrypt input limit", password: strings.Repeat("p", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(salt, tt.password)
			require.NoError(t, err)
			require.NotContains(t, hash, tt.password)

			require.NoError(t, h.Compare(hash, salt, tt.password))
			require.ErrorIs(t, h.Compare(hash, salt, tt.password+"x"), domain.ErrUnauthorized)
			require.ErrorIs(t, h.Compare(hash, "other-salt", tt.password), domain.ErrUnauthorized)
		})
	}
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	h := NewBcryptHasher(0).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
