package domain

import (
	"time"

	"github.com/tanglebay/doorman/pkg/idx"
)

// CredentialKind distinguishes the two WebAuthn credential classes. Passkeys
// satisfy user verification on their own; security keys are a plain second
// factor.
type CredentialKind string

const (
	CredentialKindPasskey     CredentialKind = "passkey"
	CredentialKindSecurityKey CredentialKind = "security_key"
)

// WebAuthnCredential is a registered authenticator public key. The ID is the
// credential id bytes chosen by the authenticator.
type WebAuthnCredential struct {
	ID        []byte
	UserID    idx.ID
	Kind      CredentialKind
	Name      string
	Algorithm int64 // COSE algorithm identifier (-7 ES256, -257 RS256)
	PublicKey []byte
	CreatedAt time.Time
}
