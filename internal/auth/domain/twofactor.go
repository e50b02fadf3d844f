package domain

import (
	"time"

	"github.com/tanglebay/doorman/pkg/idx"
)

// TOTPCredential stores a user's enrolled authenticator-app secret.
type TOTPCredential struct {
	UserID    idx.ID
	Secret    string // base32 encoded
	CreatedAt time.Time
}

// RecoveryCode is a single-use fallback code for recovering an account whose
// second factors are lost. Only the fingerprint of the code is stored.
type RecoveryCode struct {
	ID        idx.ID
	UserID    idx.ID
	CodeHash  string
	CreatedAt time.Time
}
