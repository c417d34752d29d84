package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// Identity is the authenticated caller as asserted by the identity
// provider. UID is the stable subject used as user id across the store.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
}

// Verifier checks a bearer token and returns who it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// MaxUIDLength matches the longest uid Firebase Auth issues.
const MaxUIDLength = 128

// ValidUID reports whether uid can be stored as a user id. Uids are used as
// document field names, so dots, a leading "$" and NUL bytes are refused.
func ValidUID(uid string) bool {
	if uid == "" || len(uid) > MaxUIDLength {
		return false
	}
	if strings.HasPrefix(uid, "$") {
		return false
	}
	return !strings.ContainsAny(uid, ".\x00")
}
