package webauthn

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"
)

// Authenticator data flag bits (WebAuthn §6.1).
const (
	flagUserPresent        = 1 << 0
	flagUserVerified       = 1 << 2
	flagAttestedCredential = 1 << 6
)

// AuthenticatorData is the parsed binary authenticator data structure:
// rpIdHash (32) || flags (1) || signCount (4) || attested credential data.
type AuthenticatorData struct {
	RelyingPartyIDHash []byte
	UserPresent        bool
	UserVerified       bool
	SignCount          uint32

	// Credential is non-nil only when the attested-credential flag is set,
	// i.e. during registration.
	Credential *AttestedCredential
}

// AttestedCredential carries the new credential attached by the
// authenticator at registration time.
type AttestedCredential struct {
	AAGUID    []byte
	ID        []byte
	PublicKey COSEPublicKey
}

// ParseAuthenticatorData decodes the fixed header and, when present, the
// attested credential data with its trailing COSE public key.
func ParseAuthenticatorData(raw []byte) (*AuthenticatorData, error) {
	if len(raw) < 37 {
		return nil, ErrInvalidData
	}

	flags := raw[32]
	data := &AuthenticatorData{
		RelyingPartyIDHash: raw[:32],
		UserPresent:        flags&flagUserPresent != 0,
		UserVerified:       flags&flagUserVerified != 0,
		SignCount:          binary.BigEndian.Uint32(raw[33:37]),
	}

	if flags&flagAttestedCredential == 0 {
		return data, nil
	}

	rest := raw[37:]
	if len(rest) < 18 {
		return nil, ErrInvalidData
	}
	idLen := int(binary.BigEndian.Uint16(rest[16:18]))
	if len(rest) < 18+idLen {
		return nil, ErrInvalidData
	}

	// The COSE key is a single CBOR item; extensions may follow it.
	var key cbor.RawMessage
	if err := cbor.NewDecoder(bytes.NewReader(rest[18+idLen:])).Decode(&key); err != nil {
		return nil, ErrInvalidData
	}

	data.Credential = &AttestedCredential{
		AAGUID:    rest[:16],
		ID:        rest[18 : 18+idLen],
		PublicKey: COSEPublicKey{raw: key},
	}
	return data, nil
}

// VerifyRelyingPartyIDHash reports whether the embedded hash matches the
// configured relying party id.
func (d *AuthenticatorData) VerifyRelyingPartyIDHash(rpID string) bool {
	sum := sha256.Sum256([]byte(rpID))
	return subtle.ConstantTimeCompare(sum[:], d.RelyingPartyIDHash) == 1
}
