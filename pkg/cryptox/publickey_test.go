package cryptox

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSEC1PublicKeyRoundTrip(t *testing.T) {
	t.Parallel()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	encoded := EncodeSEC1PublicKey(priv.X, priv.Y)
	require.Len(t, encoded, 65)
	require.Equal(t, byte(0x04), encoded[0])

	decoded, err := DecodeSEC1PublicKey(encoded)
	require.NoError(t, err)
	require.Zero(t, decoded.X.Cmp(priv.X))
	require.Zero(t, decoded.Y.Cmp(priv.Y))
}

func TestDecodeSEC1PublicKeyRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := DecodeSEC1PublicKey(nil)
	require.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = DecodeSEC1PublicKey(make([]byte, 65)) // all zero, wrong prefix
	require.ErrorIs(t, err, ErrInvalidPublicKey)

	// Right shape, but the point is not on P-256.
	bad := make([]byte, 65)
	bad[0] = 0x04
	bad[10] = 0x7f
	_, err = DecodeSEC1PublicKey(bad)
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestPKCS1PublicKeyRoundTrip(t *testing.T) {
	t.Parallel()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	encoded := EncodePKCS1PublicKey(priv.N, priv.E)
	decoded, err := DecodePKCS1PublicKey(encoded)
	require.NoError(t, err)
	require.Zero(t, decoded.N.Cmp(priv.N))
	require.Equal(t, priv.E, decoded.E)

	_, err = DecodePKCS1PublicKey([]byte{0x30, 0x00})
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}
