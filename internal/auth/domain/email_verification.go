package domain

import (
	"time"

	"github.com/tanglebay/doorman/pkg/idx"
)

// EmailVerificationRequest holds a pending email ownership proof. A fresh
// request replaces any prior one for the user.
type EmailVerificationRequest struct {
	ID        idx.ID
	UserID    idx.ID
	Email     string
	CodeHash  string // fingerprint of the emailed 8-digit code
	CreatedAt time.Time
	ExpiresAt time.Time
}
