package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	managementTokenBytes   = 32
	verificationTokenBytes = 32
)

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// newManagementToken returns a 64-character hex management token.
func newManagementToken() (string, error) {
	return randomHex(managementTokenBytes)
}

// isManagementToken reports whether s has the shape of a management token.
func isManagementToken(s string) bool {
	if len(s) != managementTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// newVerificationToken returns a raw invitation token for the email and the
// hash that is stored.
func newVerificationToken() (raw, hash string, err error) {
	raw, err = randomHex(verificationTokenBytes)
	if err != nil {
		return "", "", err
	}
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
