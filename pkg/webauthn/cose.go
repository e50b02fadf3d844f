package webauthn

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// COSEPublicKey wraps the raw CBOR credential public key. The COSE map
// reuses label -1/-2 with different meanings per key type, so the payload is
// decoded lazily once the algorithm is known.
type COSEPublicKey struct {
	raw cbor.RawMessage
}

type coseKeyHeader struct {
	KeyType   int64 `cbor:"1,keyasint"`
	Algorithm int64 `cbor:"3,keyasint"`
}

type coseEC2Key struct {
	KeyType   int64  `cbor:"1,keyasint"`
	Algorithm int64  `cbor:"3,keyasint"`
	Curve     int64  `cbor:"-1,keyasint"`
	X         []byte `cbor:"-2,keyasint"`
	Y         []byte `cbor:"-3,keyasint"`
}

type coseRSAKey struct {
	KeyType   int64  `cbor:"1,keyasint"`
	Algorithm int64  `cbor:"3,keyasint"`
	Modulus   []byte `cbor:"-1,keyasint"`
	Exponent  []byte `cbor:"-2,keyasint"`
}

// Algorithm returns the COSE algorithm identifier of the key.
func (k COSEPublicKey) Algorithm() (int64, error) {
	var header coseKeyHeader
	if err := cbor.Unmarshal(k.raw, &header); err != nil {
		return 0, ErrInvalidData
	}
	return header.Algorithm, nil
}

// ECDSAP256 decodes the key as a COSE EC2 key and returns the P-256 point
// coordinates. ErrUnsupportedAlgorithm is returned for any other curve.
func (k COSEPublicKey) ECDSAP256() (x, y *big.Int, err error) {
	var key coseEC2Key
	if err := cbor.Unmarshal(k.raw, &key); err != nil {
		return nil, nil, ErrInvalidData
	}
	if key.KeyType != coseKeyTypeEC2 || len(key.X) == 0 || len(key.Y) == 0 {
		return nil, nil, ErrInvalidData
	}
	if key.Curve != coseEllipticCurveP256 {
		return nil, nil, ErrUnsupportedAlgorithm
	}
	return new(big.Int).SetBytes(key.X), new(big.Int).SetBytes(key.Y), nil
}

// RSA decodes the key as a COSE RSA key and returns the modulus and public
// exponent.
func (k COSEPublicKey) RSA() (n *big.Int, e int, err error) {
	var key coseRSAKey
	if err := cbor.Unmarshal(k.raw, &key); err != nil {
		return nil, 0, ErrInvalidData
	}
	if key.KeyType != coseKeyTypeRSA || len(key.Modulus) == 0 || len(key.Exponent) == 0 {
		return nil, 0, ErrInvalidData
	}
	exp := new(big.Int).SetBytes(key.Exponent)
	if !exp.IsInt64() || exp.Int64() <= 0 || exp.Int64() > int64(1)<<31-1 {
		return nil, 0, ErrInvalidData
	}
	return new(big.Int).SetBytes(key.Modulus), int(exp.Int64()), nil
}
