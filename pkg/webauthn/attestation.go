package webauthn

import (
	"github.com/fxamacker/cbor/v2"
)

// AttestationFormatNone is the only attestation statement format this
// service accepts (self-attestation, no trust chain).
const AttestationFormatNone = "none"

// AttestationObject is the decoded registration payload. The attestation
// statement itself is never evaluated beyond its format.
type AttestationObject struct {
	Format            string
	AuthenticatorData *AuthenticatorData
}

type attestationObjectWire struct {
	Format   string          `cbor:"fmt"`
	AttStmt  cbor.RawMessage `cbor:"attStmt"`
	AuthData []byte          `cbor:"authData"`
}

// ParseAttestationObject decodes the CBOR attestation object and its
// embedded authenticator data.
func ParseAttestationObject(raw []byte) (*AttestationObject, error) {
	var wire attestationObjectWire
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return nil, ErrInvalidData
	}
	if wire.Format == "" || len(wire.AuthData) == 0 {
		return nil, ErrInvalidData
	}
	authData, err := ParseAuthenticatorData(wire.AuthData)
	if err != nil {
		return nil, err
	}
	return &AttestationObject{
		Format:            wire.Format,
		AuthenticatorData: authData,
	}, nil
}
