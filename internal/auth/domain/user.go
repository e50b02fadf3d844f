package domain

import (
	"time"

	"github.com/tanglebay/doorman/pkg/idx"
)

type User struct {
	ID            idx.ID
	Email         string
	Username      string
	PasswordHash  string // argon2 encoded
	EmailVerified bool

	// Enrolled second factors, loaded alongside the user row.
	RegisteredTOTP        bool
	RegisteredPasskey     bool
	RegisteredSecurityKey bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Registered2FA reports whether the user has any second factor enrolled.
func (u User) Registered2FA() bool {
	return u.RegisteredTOTP || u.RegisteredPasskey || u.RegisteredSecurityKey
}
