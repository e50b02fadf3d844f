package webauthn

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/tanglebay/doorman/pkg/cryptox"
)

const testRPID = "example.com"

// buildAuthenticatorData assembles raw authenticator data bytes for tests.
// coseKey may be nil for assertion-style data without attested credentials.
func buildAuthenticatorData(t *testing.T, rpID string, flags byte, credentialID []byte, coseKey any) []byte {
	t.Helper()

	rpHash := sha256.Sum256([]byte(rpID))
	raw := make([]byte, 0, 64)
	raw = append(raw, rpHash[:]...)
	raw = append(raw, flags)
	raw = binary.BigEndian.AppendUint32(raw, 1) // sign count

	if credentialID != nil {
		raw = append(raw, make([]byte, 16)...) // aaguid
		raw = binary.BigEndian.AppendUint16(raw, uint16(len(credentialID)))
		raw = append(raw, credentialID...)

		keyBytes, err := cbor.Marshal(coseKey)
		require.NoError(t, err)
		raw = append(raw, keyBytes...)
	}
	return raw
}

func es256COSEKey(t *testing.T, priv *ecdsa.PrivateKey) map[int64]any {
	t.Helper()
	return map[int64]any{
		1:  coseKeyTypeEC2,
		3:  AlgorithmES256,
		-1: coseEllipticCurveP256,
		-2: priv.X.FillBytes(make([]byte, 32)),
		-3: priv.Y.FillBytes(make([]byte, 32)),
	}
}

func TestParseAttestationObject(t *testing.T) {
	t.Parallel()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	credID := []byte("credential-0001")
	authData := buildAuthenticatorData(t, testRPID,
		flagUserPresent|flagUserVerified|flagAttestedCredential,
		credID, es256COSEKey(t, priv))

	raw, err := cbor.Marshal(map[string]any{
		"fmt":      "none",
		"attStmt":  map[string]any{},
		"authData": authData,
	})
	require.NoError(t, err)

	obj, err := ParseAttestationObject(raw)
	require.NoError(t, err)
	require.Equal(t, AttestationFormatNone, obj.Format)
	require.True(t, obj.AuthenticatorData.UserPresent)
	require.True(t, obj.AuthenticatorData.UserVerified)
	require.True(t, obj.AuthenticatorData.VerifyRelyingPartyIDHash(testRPID))
	require.False(t, obj.AuthenticatorData.VerifyRelyingPartyIDHash("other.com"))

	cred := obj.AuthenticatorData.Credential
	require.NotNil(t, cred)
	require.Equal(t, credID, cred.ID)

	alg, err := cred.PublicKey.Algorithm()
	require.NoError(t, err)
	require.Equal(t, AlgorithmES256, alg)

	x, y, err := cred.PublicKey.ECDSAP256()
	require.NoError(t, err)
	require.Zero(t, x.Cmp(priv.X))
	require.Zero(t, y.Cmp(priv.Y))
}

func TestParseAttestationObjectRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseAttestationObject([]byte("not cbor at all"))
	require.ErrorIs(t, err, ErrInvalidData)

	raw, err := cbor.Marshal(map[string]any{"fmt": "none"})
	require.NoError(t, err)
	_, err = ParseAttestationObject(raw)
	require.ErrorIs(t, err, ErrInvalidData)
}

func TestParseAuthenticatorDataTruncated(t *testing.T) {
	t.Parallel()

	_, err := ParseAuthenticatorData(make([]byte, 36))
	require.ErrorIs(t, err, ErrInvalidData)

	// Attested-credential flag set but no credential bytes.
	raw := buildAuthenticatorData(t, testRPID, flagUserPresent, nil, nil)
	raw[32] |= flagAttestedCredential
	_, err = ParseAuthenticatorData(raw)
	require.ErrorIs(t, err, ErrInvalidData)
}

func TestCOSEKeyCurveAndTypeChecks(t *testing.T) {
	t.Parallel()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	badCurve := es256COSEKey(t, priv)
	badCurve[-1] = 2 // P-384
	raw, err := cbor.Marshal(badCurve)
	require.NoError(t, err)
	_, _, err = COSEPublicKey{raw: raw}.ECDSAP256()
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	rsaPriv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rsaRaw, err := cbor.Marshal(map[int64]any{
		1:  coseKeyTypeRSA,
		3:  AlgorithmRS256,
		-1: rsaPriv.N.Bytes(),
		-2: []byte{0x01, 0x00, 0x01},
	})
	require.NoError(t, err)

	n, e, err := COSEPublicKey{raw: rsaRaw}.RSA()
	require.NoError(t, err)
	require.Zero(t, n.Cmp(rsaPriv.N))
	require.Equal(t, 65537, e)

	// An RSA key is not decodable as an EC2 key.
	_, _, err = COSEPublicKey{raw: rsaRaw}.ECDSAP256()
	require.Error(t, err)
}

func TestClientDataParsing(t *testing.T) {
	t.Parallel()

	data, err := ParseClientDataJSON([]byte(`{
		"type": "webauthn.create",
		"challenge": "AQIDBA",
		"origin": "https://example.com"
	}`))
	require.NoError(t, err)
	require.Equal(t, ClientDataTypeCreate, data.Type)
	require.Equal(t, "https://example.com", data.Origin)
	require.False(t, data.IsCrossOrigin())

	challenge, err := data.ChallengeBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, challenge)

	_, err = ParseClientDataJSON([]byte(`{"type": "webauthn.get"}`))
	require.ErrorIs(t, err, ErrInvalidData)

	_, err = ParseClientDataJSON([]byte(`{broken`))
	require.ErrorIs(t, err, ErrInvalidData)

	crossOrigin, err := ParseClientDataJSON([]byte(`{
		"type": "webauthn.get",
		"challenge": "AQIDBA",
		"origin": "https://example.com",
		"crossOrigin": true
	}`))
	require.NoError(t, err)
	require.True(t, crossOrigin.IsCrossOrigin())
}

func TestES256AssertionVerification(t *testing.T) {
	t.Parallel()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	publicKey := cryptox.EncodeSEC1PublicKey(priv.X, priv.Y)

	authData := buildAuthenticatorData(t, testRPID, flagUserPresent, nil, nil)
	clientData := []byte(`{"type":"webauthn.get","challenge":"AQIDBA","origin":"https://example.com"}`)

	digest := AssertionDigest(authData, clientData)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest)
	require.NoError(t, err)

	ok, err := VerifyES256(publicKey, digest, sig)
	require.NoError(t, err)
	require.True(t, ok)

	// Any single flipped bit in the signed bytes must break verification.
	for _, bit := range []int{0, 77, len(authData)*8 - 1} {
		tampered := append([]byte(nil), authData...)
		tampered[bit/8] ^= 1 << (bit % 8)
		ok, err := VerifyES256(publicKey, AssertionDigest(tampered, clientData), sig)
		require.NoError(t, err)
		require.False(t, ok)
	}

	ok, err = VerifyES256(publicKey, AssertionDigest(authData, []byte(`{}`)), sig)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = VerifyES256([]byte("bogus key"), digest, sig)
	require.ErrorIs(t, err, ErrInvalidData)
}

func TestRS256AssertionVerification(t *testing.T) {
	t.Parallel()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	publicKey := cryptox.EncodePKCS1PublicKey(priv.N, priv.E)

	authData := buildAuthenticatorData(t, testRPID, flagUserPresent, nil, nil)
	clientData := []byte(`{"type":"webauthn.get","challenge":"AQIDBA","origin":"https://example.com"}`)

	digest := AssertionDigest(authData, clientData)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest)
	require.NoError(t, err)

	ok, err := VerifyRS256(publicKey, digest, sig)
	require.NoError(t, err)
	require.True(t, ok)

	for _, bit := range []int{3, 100} {
		tampered := append([]byte(nil), authData...)
		tampered[bit/8] ^= 1 << (bit % 8)
		ok, err := VerifyRS256(publicKey, AssertionDigest(tampered, clientData), sig)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestChallengeStoreSingleUse(t *testing.T) {
	t.Parallel()

	store := NewChallengeStore()
	challenge, err := store.Create()
	require.NoError(t, err)
	require.Len(t, challenge, challengeSize)

	require.True(t, store.VerifyAndConsume(challenge))
	require.False(t, store.VerifyAndConsume(challenge))
	require.False(t, store.VerifyAndConsume([]byte("never issued")))
}

func TestChallengeStoreSweep(t *testing.T) {
	t.Parallel()

	store := NewChallengeStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	old, err := store.Create()
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(11 * time.Minute) }
	fresh, err := store.Create()
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(12 * time.Minute) }
	require.Equal(t, 1, store.Sweep(10*time.Minute))
	require.False(t, store.VerifyAndConsume(old))
	require.True(t, store.VerifyAndConsume(fresh))
}
