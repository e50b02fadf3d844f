package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/pkg/cryptox"
	"github.com/tanglebay/doorman/pkg/idx"
	"github.com/tanglebay/doorman/pkg/webauthn"
)

// maxCredentialsPerKind caps how many authenticators of each class a user
// can register.
const maxCredentialsPerKind = 5

var (
	ErrTooManyCredentials = errors.New("too many credentials")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// WebAuthnService validates registration attestations and authentication
// assertions against this deployment's relying party identity.
type WebAuthnService struct {
	Store      store.Store
	Challenges *webauthn.ChallengeStore

	RelyingPartyID string // e.g. "example.com"
	Origin         string // e.g. "https://example.com"
}

// CreateChallenge issues a single-use challenge for a subsequent register or
// verify call.
func (s *WebAuthnService) CreateChallenge() ([]byte, error) {
	return s.Challenges.Create()
}

// RegisterCredential validates a registration ceremony and stores the new
// credential. Structural, cryptographic and policy failures all surface as
// webauthn.ErrInvalidData except for the distinct unsupported-algorithm and
// credential-cap cases.
func (s *WebAuthnService) RegisterCredential(ctx context.Context, userID idx.ID, kind domain.CredentialKind, name string, attestationObject, clientDataJSON []byte) (domain.WebAuthnCredential, error) {
	att, err := webauthn.ParseAttestationObject(attestationObject)
	if err != nil {
		return domain.WebAuthnCredential{}, err
	}
	if att.Format != webauthn.AttestationFormatNone {
		return domain.WebAuthnCredential{}, webauthn.ErrInvalidData
	}

	authData := att.AuthenticatorData
	if !authData.VerifyRelyingPartyIDHash(s.RelyingPartyID) {
		return domain.WebAuthnCredential{}, webauthn.ErrInvalidData
	}
	// Registration demands both presence and verification.
	if !authData.UserPresent || !authData.UserVerified {
		return domain.WebAuthnCredential{}, webauthn.ErrInvalidData
	}
	if authData.Credential == nil {
		return domain.WebAuthnCredential{}, webauthn.ErrInvalidData
	}

	if err := s.checkClientData(clientDataJSON, webauthn.ClientDataTypeCreate); err != nil {
		return domain.WebAuthnCredential{}, err
	}

	algorithm, err := authData.Credential.PublicKey.Algorithm()
	if err != nil {
		return domain.WebAuthnCredential{}, webauthn.ErrInvalidData
	}

	var publicKey []byte
	switch algorithm {
	case webauthn.AlgorithmES256:
		x, y, err := authData.Credential.PublicKey.ECDSAP256()
		if err != nil {
			return domain.WebAuthnCredential{}, err
		}
		publicKey = cryptox.EncodeSEC1PublicKey(x, y)
	case webauthn.AlgorithmRS256:
		n, e, err := authData.Credential.PublicKey.RSA()
		if err != nil {
			return domain.WebAuthnCredential{}, err
		}
		publicKey = cryptox.EncodePKCS1PublicKey(n, e)
	default:
		return domain.WebAuthnCredential{}, webauthn.ErrUnsupportedAlgorithm
	}

	count, err := s.Store.Credentials().CountUserCredentials(ctx, userID, kind)
	if err != nil {
		return domain.WebAuthnCredential{}, fmt.Errorf("failed to count credentials: %w", err)
	}
	if count >= maxCredentialsPerKind {
		return domain.WebAuthnCredential{}, ErrTooManyCredentials
	}

	cred := domain.WebAuthnCredential{
		ID:        authData.Credential.ID,
		UserID:    userID,
		Kind:      kind,
		Name:      name,
		Algorithm: algorithm,
		PublicKey: publicKey,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Credentials().CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A replayed credential id is treated like any other bad payload.
			return domain.WebAuthnCredential{}, webauthn.ErrInvalidData
		}
		return domain.WebAuthnCredential{}, fmt.Errorf("failed to store credential: %w", err)
	}
	return cred, nil
}

// VerifyAssertion validates an authentication ceremony against one of the
// user's stored credentials of the given kind.
func (s *WebAuthnService) VerifyAssertion(ctx context.Context, userID idx.ID, kind domain.CredentialKind, credentialID, authenticatorData, clientDataJSON, signature []byte) (domain.WebAuthnCredential, error) {
	authData, err := webauthn.ParseAuthenticatorData(authenticatorData)
	if err != nil {
		return domain.WebAuthnCredential{}, err
	}
	if !authData.VerifyRelyingPartyIDHash(s.RelyingPartyID) {
		return domain.WebAuthnCredential{}, webauthn.ErrInvalidData
	}
	// Assertion only demands presence; a registered credential already
	// proved verification capability.
	if !authData.UserPresent {
		return domain.WebAuthnCredential{}, webauthn.ErrInvalidData
	}

	if err := s.checkClientData(clientDataJSON, webauthn.ClientDataTypeGet); err != nil {
		return domain.WebAuthnCredential{}, err
	}

	cred, err := s.Store.Credentials().GetUserCredential(ctx, userID, credentialID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.WebAuthnCredential{}, ErrInvalidCredential
		}
		return domain.WebAuthnCredential{}, fmt.Errorf("failed to load credential: %w", err)
	}
	if cred.Kind != kind {
		return domain.WebAuthnCredential{}, ErrInvalidCredential
	}

	digest := webauthn.AssertionDigest(authenticatorData, clientDataJSON)

	var ok bool
	switch cred.Algorithm {
	case webauthn.AlgorithmES256:
		ok, err = webauthn.VerifyES256(cred.PublicKey, digest, signature)
	case webauthn.AlgorithmRS256:
		ok, err = webauthn.VerifyRS256(cred.PublicKey, digest, signature)
	default:
		// Registration only stores known algorithms, so this row is corrupt.
		// Surface it as an internal failure, not a client error.
		return domain.WebAuthnCredential{}, fmt.Errorf("stored credential %x has unknown algorithm %d", cred.ID, cred.Algorithm)
	}
	if err != nil {
		return domain.WebAuthnCredential{}, err
	}
	if !ok {
		return domain.WebAuthnCredential{}, ErrInvalidSignature
	}
	return cred, nil
}

// ListCredentials returns the user's registered authenticators of one kind.
func (s *WebAuthnService) ListCredentials(ctx context.Context, userID idx.ID, kind domain.CredentialKind) ([]domain.WebAuthnCredential, error) {
	return s.Store.Credentials().ListUserCredentials(ctx, userID, kind)
}

// DeleteCredential removes one of the user's credentials of the given kind.
func (s *WebAuthnService) DeleteCredential(ctx context.Context, userID idx.ID, kind domain.CredentialKind, credentialID []byte) error {
	cred, err := s.Store.Credentials().GetUserCredential(ctx, userID, credentialID)
	if err != nil {
		return err
	}
	if cred.Kind != kind {
		return store.ErrNotFound
	}
	return s.Store.Credentials().DeleteUserCredential(ctx, userID, credentialID)
}

// checkClientData applies the shared client-data rules: expected ceremony
// type, a known single-use challenge, an exact origin match, and no
// cross-origin flag.
func (s *WebAuthnService) checkClientData(clientDataJSON []byte, wantType string) error {
	clientData, err := webauthn.ParseClientDataJSON(clientDataJSON)
	if err != nil {
		return err
	}
	if clientData.Type != wantType {
		return webauthn.ErrInvalidData
	}
	challenge, err := clientData.ChallengeBytes()
	if err != nil {
		return err
	}
	if !s.Challenges.VerifyAndConsume(challenge) {
		return webauthn.ErrInvalidData
	}
	if clientData.Origin != s.Origin {
		return webauthn.ErrInvalidData
	}
	if clientData.IsCrossOrigin() {
		return webauthn.ErrInvalidData
	}
	return nil
}
