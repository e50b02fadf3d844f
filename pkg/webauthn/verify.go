package webauthn

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/tanglebay/doorman/pkg/cryptox"
)

// AssertionDigest computes the value an authenticator actually signs for an
// assertion: SHA-256 over the authenticator data concatenated with the
// SHA-256 digest of the client data JSON.
func AssertionDigest(authenticatorData, clientDataJSON []byte) []byte {
	clientHash := sha256.Sum256(clientDataJSON)

	base := make([]byte, 0, len(authenticatorData)+len(clientHash))
	base = append(base, authenticatorData...)
	base = append(base, clientHash[:]...)

	sum := sha256.Sum256(base)
	return sum[:]
}

// VerifyES256 checks a DER-encoded ECDSA signature over digest using a
// stored uncompressed SEC1 P-256 public key. A malformed key or signature is
// ErrInvalidData; a well-formed signature that does not verify simply
// returns false.
func VerifyES256(publicKeySEC1, digest, signature []byte) (bool, error) {
	key, err := cryptox.DecodeSEC1PublicKey(publicKeySEC1)
	if err != nil {
		return false, ErrInvalidData
	}
	return ecdsa.VerifyASN1(key, digest, signature), nil
}

// VerifyRS256 checks an RSASSA-PKCS1-v1.5 SHA-256 signature over digest
// using a stored PKCS#1 public key.
func VerifyRS256(publicKeyPKCS1, digest, signature []byte) (bool, error) {
	key, err := cryptox.DecodePKCS1PublicKey(publicKeyPKCS1)
	if err != nil {
		return false, ErrInvalidData
	}
	return rsa.VerifyPKCS1v15(key, crypto.SHA256, digest, signature) == nil, nil
}
