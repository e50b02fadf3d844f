package domain

import (
	"time"

	"github.com/tanglebay/doorman/pkg/idx"
)

// Session models a stored bearer session. The ID is the deterministic
// fingerprint (base64url SHA-256) of the opaque token handed to the client;
// the token itself is never persisted.
type Session struct {
	ID                string
	UserID            idx.ID
	TwoFactorVerified bool
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

// PasswordResetSession tracks an in-flight password reset. It carries its own
// verification flags so the reset flow cannot borrow state from a login
// session. At most one is active per user.
type PasswordResetSession struct {
	ID                string // token fingerprint, same scheme as Session.ID
	UserID            idx.ID
	Email             string
	CodeHash          string // fingerprint of the emailed 8-digit code
	EmailVerified     bool
	TwoFactorVerified bool
	CreatedAt         time.Time
	ExpiresAt         time.Time
}
