// Package webauthn implements the slice of the WebAuthn wire protocol this
// service relies on: parsing attestation objects and authenticator data,
// validating collected client data, decoding COSE public keys for the two
// supported algorithms (ES256, RS256), verifying assertion signatures, and
// managing single-use challenges.
//
// Attestation trust chains are deliberately not evaluated: only the "none"
// attestation format is accepted, so registration proves possession of the
// key, not provenance of the authenticator.
package webauthn

import "errors"

// COSE algorithm identifiers for the closed set of supported algorithms.
// Anything else is rejected at registration time.
const (
	AlgorithmES256 int64 = -7
	AlgorithmRS256 int64 = -257
)

// COSE constants used when decoding credential public keys.
const (
	coseKeyTypeEC2        = 2
	coseKeyTypeRSA        = 3
	coseEllipticCurveP256 = 1
)

var (
	// ErrInvalidData covers every structural failure: truncated
	// authenticator data, malformed CBOR or JSON, missing fields. Callers
	// collapse it with signature failures into one opaque response.
	ErrInvalidData = errors.New("webauthn: invalid data")

	// ErrUnsupportedAlgorithm is returned for any COSE algorithm outside
	// the ES256/RS256 set, or an ES256 key on a curve other than P-256.
	ErrUnsupportedAlgorithm = errors.New("webauthn: unsupported algorithm")
)
