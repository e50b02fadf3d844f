package cryptox

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"
)

// Stored public key byte forms for registered credentials: ECDSA P-256 keys
// are kept as uncompressed SEC1 points, RSA keys as PKCS#1 DER.

const sec1UncompressedLength = 65 // 0x04 || X(32) || Y(32)

var ErrInvalidPublicKey = errors.New("cryptox: invalid public key encoding")

// EncodeSEC1PublicKey encodes a P-256 point in uncompressed SEC1 form.
func EncodeSEC1PublicKey(x, y *big.Int) []byte {
	out := make([]byte, sec1UncompressedLength)
	out[0] = 0x04
	x.FillBytes(out[1:33])
	y.FillBytes(out[33:65])
	return out
}

// DecodeSEC1PublicKey decodes an uncompressed SEC1 point into a P-256 ECDSA
// public key, rejecting points that are not on the curve.
func DecodeSEC1PublicKey(der []byte) (*ecdsa.PublicKey, error) {
	if len(der) != sec1UncompressedLength || der[0] != 0x04 {
		return nil, ErrInvalidPublicKey
	}
	x := new(big.Int).SetBytes(der[1:33])
	y := new(big.Int).SetBytes(der[33:65])
	curve := elliptic.P256()
	if !curve.IsOnCurve(x, y) {
		return nil, ErrInvalidPublicKey
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// EncodePKCS1PublicKey encodes an RSA public key as PKCS#1 DER.
func EncodePKCS1PublicKey(n *big.Int, e int) []byte {
	return x509.MarshalPKCS1PublicKey(&rsa.PublicKey{N: n, E: e})
}

// DecodePKCS1PublicKey decodes a PKCS#1 DER RSA public key.
func DecodePKCS1PublicKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return key, nil
}
