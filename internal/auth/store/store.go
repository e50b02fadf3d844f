package store

import (
	"context"
	"errors"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable. We can change having the sub-repos as methods later but we do it
// now so we can have more control and actively stop people from accidently
// doing transactions within transactions.
type Store interface {
	Users() Users
	Sessions() Sessions
	PasswordResetSessions() PasswordResetSessions
	Credentials() Credentials
	TOTPCredentials() TOTPCredentials
	RecoveryCodes() RecoveryCodes
	EmailVerifications() EmailVerifications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., rotating a
	// password and the sessions that depend on it).
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user with its second-factor flags resolved.
	GetUserByID(ctx context.Context, id idx.ID) (domain.User, error)

	// GetUserByEmail looks a user up by email, case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID idx.ID, newHash string) error

	// MarkEmailVerified flips email_verified on and records the verified
	// address in one statement.
	MarkEmailVerified(ctx context.Context, userID idx.ID, email string) error

	// SetEmailUnverified clears the verified flag, e.g. after an address change.
	SetEmailUnverified(ctx context.Context, userID idx.ID) error

	// DeleteUser cascades to sessions and credentials (per schema).
	DeleteUser(ctx context.Context, userID idx.ID) error
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession returns the session row, expired or not. Callers decide
	// what expiry means.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// UpdateSessionExpiry slides the expiry forward during validation.
	UpdateSessionExpiry(ctx context.Context, id string, expiresAt time.Time) error

	// SetSessionTwoFactorVerified flips the flag on. There is no way back.
	SetSessionTwoFactorVerified(ctx context.Context, id string) error

	DeleteSession(ctx context.Context, id string) error

	// DeleteUserSessions removes every session the user holds.
	DeleteUserSessions(ctx context.Context, userID idx.ID) error

	// MarkUserSessionsTwoFactorUnverified demotes all of a user's sessions,
	// used when their second factors are reset.
	MarkUserSessionsTwoFactorUnverified(ctx context.Context, userID idx.ID) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

type PasswordResetSessions interface {
	CreatePasswordResetSession(ctx context.Context, s domain.PasswordResetSession) error

	GetPasswordResetSession(ctx context.Context, id string) (domain.PasswordResetSession, error)

	SetPasswordResetSessionEmailVerified(ctx context.Context, id string) error

	SetPasswordResetSessionTwoFactorVerified(ctx context.Context, id string) error

	DeletePasswordResetSession(ctx context.Context, id string) error

	// DeleteUserPasswordResetSessions enforces the one-active-per-user rule.
	DeleteUserPasswordResetSessions(ctx context.Context, userID idx.ID) error

	// DeleteExpiredPasswordResetSessions is housekeeping.
	DeleteExpiredPasswordResetSessions(ctx context.Context, now time.Time) error
}

type Credentials interface {
	// CreateCredential inserts a registered authenticator.
	// Returns ErrAlreadyExists when the credential id is already known.
	CreateCredential(ctx context.Context, c domain.WebAuthnCredential) error

	// GetUserCredential fetches one credential scoped to its owner.
	GetUserCredential(ctx context.Context, userID idx.ID, id []byte) (domain.WebAuthnCredential, error)

	ListUserCredentials(ctx context.Context, userID idx.ID, kind domain.CredentialKind) ([]domain.WebAuthnCredential, error)

	CountUserCredentials(ctx context.Context, userID idx.ID, kind domain.CredentialKind) (int, error)

	// DeleteUserCredential removes one credential scoped to its owner.
	// Returns ErrNotFound when the pair does not match a row.
	DeleteUserCredential(ctx context.Context, userID idx.ID, id []byte) error

	// DeleteUserCredentials removes every WebAuthn credential the user has.
	DeleteUserCredentials(ctx context.Context, userID idx.ID) error
}

type TOTPCredentials interface {
	// UpsertTOTPCredential replaces any existing enrolment for the user.
	UpsertTOTPCredential(ctx context.Context, c domain.TOTPCredential) error

	GetTOTPCredential(ctx context.Context, userID idx.ID) (domain.TOTPCredential, error)

	DeleteTOTPCredential(ctx context.Context, userID idx.ID) error
}

type RecoveryCodes interface {
	// ReplaceRecoveryCodes atomically swaps the user's code set.
	ReplaceRecoveryCodes(ctx context.Context, userID idx.ID, codes []domain.RecoveryCode) error

	ListRecoveryCodes(ctx context.Context, userID idx.ID) ([]domain.RecoveryCode, error)

	// DeleteRecoveryCode burns a single code after use.
	DeleteRecoveryCode(ctx context.Context, id idx.ID) error
}

type EmailVerifications interface {
	// CreateEmailVerificationRequest inserts a fresh request. Callers delete
	// the prior one first so a user only ever has a single pending request.
	CreateEmailVerificationRequest(ctx context.Context, r domain.EmailVerificationRequest) error

	GetUserEmailVerificationRequest(ctx context.Context, userID idx.ID) (domain.EmailVerificationRequest, error)

	DeleteUserEmailVerificationRequests(ctx context.Context, userID idx.ID) error

	// DeleteExpiredEmailVerificationRequests is housekeeping.
	DeleteExpiredEmailVerificationRequests(ctx context.Context, now time.Time) error
}
