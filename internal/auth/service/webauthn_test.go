package service_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/internal/auth/service"
	"github.com/tanglebay/doorman/pkg/webauthn"
)

const (
	testRPID   = "example.com"
	testOrigin = "https://example.com"

	// Authenticator data flag bytes.
	flagsRegistration = 0x45 // UP | UV | AT
	flagsAssertion    = 0x01 // UP only
)

func buildAuthData(t *testing.T, flags byte, credentialID []byte, priv *ecdsa.PrivateKey) []byte {
	t.Helper()

	rpHash := sha256.Sum256([]byte(testRPID))
	raw := make([]byte, 0, 128)
	raw = append(raw, rpHash[:]...)
	raw = append(raw, flags)
	raw = binary.BigEndian.AppendUint32(raw, 1)

	if credentialID != nil {
		raw = append(raw, make([]byte, 16)...) // aaguid
		raw = binary.BigEndian.AppendUint16(raw, uint16(len(credentialID)))
		raw = append(raw, credentialID...)

		keyBytes, err := cbor.Marshal(map[int64]any{
			1:  2, // EC2
			3:  webauthn.AlgorithmES256,
			-1: 1, // P-256
			-2: priv.X.FillBytes(make([]byte, 32)),
			-3: priv.Y.FillBytes(make([]byte, 32)),
		})
		require.NoError(t, err)
		raw = append(raw, keyBytes...)
	}
	return raw
}

func buildClientData(t *testing.T, ceremony string, challenge []byte) []byte {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"type":      ceremony,
		"challenge": base64.RawURLEncoding.EncodeToString(challenge),
		"origin":    testOrigin,
	})
	require.NoError(t, err)
	return raw
}

func buildAttestationObject(t *testing.T, authData []byte) []byte {
	t.Helper()

	raw, err := cbor.Marshal(map[string]any{
		"fmt":      "none",
		"attStmt":  map[string]any{},
		"authData": authData,
	})
	require.NoError(t, err)
	return raw
}

func TestWebAuthnRegisterAndAssert(t *testing.T) {
	testPepper(t)
	st := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, st, "webauthn@example.com")

	wa := &service.WebAuthnService{
		Store:          st,
		Challenges:     webauthn.NewChallengeStore(),
		RelyingPartyID: testRPID,
		Origin:         testOrigin,
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	credID := []byte("credential-0001")

	register := func(t *testing.T) (domain.WebAuthnCredential, error) {
		challenge, err := wa.CreateChallenge()
		require.NoError(t, err)

		authData := buildAuthData(t, flagsRegistration, credID, priv)
		return wa.RegisterCredential(ctx, user.ID, domain.CredentialKindPasskey, "laptop",
			buildAttestationObject(t, authData),
			buildClientData(t, "webauthn.create", challenge))
	}

	cred, err := register(t)
	require.NoError(t, err)
	require.Equal(t, credID, cred.ID)
	require.Equal(t, webauthn.AlgorithmES256, cred.Algorithm)

	t.Run("user passkey flag set", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, got.RegisteredPasskey)
	})

	t.Run("duplicate credential id rejected", func(t *testing.T) {
		_, err := register(t)
		require.ErrorIs(t, err, webauthn.ErrInvalidData)
	})

	t.Run("assertion verifies", func(t *testing.T) {
		challenge, err := wa.CreateChallenge()
		require.NoError(t, err)

		authData := buildAuthData(t, flagsAssertion, nil, nil)
		clientData := buildClientData(t, "webauthn.get", challenge)

		sig, err := ecdsa.SignASN1(rand.Reader, priv, webauthn.AssertionDigest(authData, clientData))
		require.NoError(t, err)

		got, err := wa.VerifyAssertion(ctx, user.ID, domain.CredentialKindPasskey,
			credID, authData, clientData, sig)
		require.NoError(t, err)
		require.Equal(t, cred.ID, got.ID)
	})

	t.Run("challenge is single use", func(t *testing.T) {
		challenge, err := wa.CreateChallenge()
		require.NoError(t, err)

		authData := buildAuthData(t, flagsAssertion, nil, nil)
		clientData := buildClientData(t, "webauthn.get", challenge)
		sig, err := ecdsa.SignASN1(rand.Reader, priv, webauthn.AssertionDigest(authData, clientData))
		require.NoError(t, err)

		_, err = wa.VerifyAssertion(ctx, user.ID, domain.CredentialKindPasskey,
			credID, authData, clientData, sig)
		require.NoError(t, err)

		_, err = wa.VerifyAssertion(ctx, user.ID, domain.CredentialKindPasskey,
			credID, authData, clientData, sig)
		require.ErrorIs(t, err, webauthn.ErrInvalidData)
	})

	t.Run("tampered signature rejected", func(t *testing.T) {
		challenge, err := wa.CreateChallenge()
		require.NoError(t, err)

		authData := buildAuthData(t, flagsAssertion, nil, nil)
		clientData := buildClientData(t, "webauthn.get", challenge)
		sig, err := ecdsa.SignASN1(rand.Reader, priv, webauthn.AssertionDigest(authData, clientData))
		require.NoError(t, err)
		sig[len(sig)-1] ^= 0x01

		_, err = wa.VerifyAssertion(ctx, user.ID, domain.CredentialKindPasskey,
			credID, authData, clientData, sig)
		require.ErrorIs(t, err, service.ErrInvalidSignature)
	})

	t.Run("corrupt stored algorithm is an internal failure", func(t *testing.T) {
		corruptID := []byte("corrupt-algorithm")
		require.NoError(t, st.Credentials().CreateCredential(ctx, domain.WebAuthnCredential{
			ID:        corruptID,
			UserID:    user.ID,
			Kind:      domain.CredentialKindPasskey,
			Name:      "broken",
			Algorithm: -42,
			PublicKey: []byte{0x04},
			CreatedAt: cred.CreatedAt,
		}))

		challenge, err := wa.CreateChallenge()
		require.NoError(t, err)

		authData := buildAuthData(t, flagsAssertion, nil, nil)
		clientData := buildClientData(t, "webauthn.get", challenge)
		sig, err := ecdsa.SignASN1(rand.Reader, priv, webauthn.AssertionDigest(authData, clientData))
		require.NoError(t, err)

		_, err = wa.VerifyAssertion(ctx, user.ID, domain.CredentialKindPasskey,
			corruptID, authData, clientData, sig)
		require.Error(t, err)
		// The row is corrupt, not the request: none of the client-facing
		// sentinels apply.
		require.NotErrorIs(t, err, webauthn.ErrUnsupportedAlgorithm)
		require.NotErrorIs(t, err, webauthn.ErrInvalidData)

		require.NoError(t, st.Credentials().DeleteUserCredential(ctx, user.ID, corruptID))
	})

	t.Run("kind mismatch rejected", func(t *testing.T) {
		challenge, err := wa.CreateChallenge()
		require.NoError(t, err)

		authData := buildAuthData(t, flagsAssertion, nil, nil)
		clientData := buildClientData(t, "webauthn.get", challenge)
		sig, err := ecdsa.SignASN1(rand.Reader, priv, webauthn.AssertionDigest(authData, clientData))
		require.NoError(t, err)

		_, err = wa.VerifyAssertion(ctx, user.ID, domain.CredentialKindSecurityKey,
			credID, authData, clientData, sig)
		require.ErrorIs(t, err, service.ErrInvalidCredential)
	})

	t.Run("delete requires matching kind", func(t *testing.T) {
		err := wa.DeleteCredential(ctx, user.ID, domain.CredentialKindSecurityKey, credID)
		require.Error(t, err)

		require.NoError(t, wa.DeleteCredential(ctx, user.ID, domain.CredentialKindPasskey, credID))

		got, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, got.RegisteredPasskey)
	})
}

func TestWebAuthnRegistrationPolicies(t *testing.T) {
	testPepper(t)
	st := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, st, "webauthn-policy@example.com")

	wa := &service.WebAuthnService{
		Store:          st,
		Challenges:     webauthn.NewChallengeStore(),
		RelyingPartyID: testRPID,
		Origin:         testOrigin,
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	register := func(t *testing.T, credID []byte, mutate func(authData, clientData []byte) ([]byte, []byte)) error {
		challenge, err := wa.CreateChallenge()
		require.NoError(t, err)

		authData := buildAuthData(t, flagsRegistration, credID, priv)
		clientData := buildClientData(t, "webauthn.create", challenge)
		if mutate != nil {
			authData, clientData = mutate(authData, clientData)
		}
		_, err = wa.RegisterCredential(ctx, user.ID, domain.CredentialKindSecurityKey, "key",
			buildAttestationObject(t, authData), clientData)
		return err
	}

	t.Run("missing user verification rejected", func(t *testing.T) {
		err := register(t, []byte("no-uv"), func(authData, clientData []byte) ([]byte, []byte) {
			authData[32] &^= 0x04 // clear UV
			return authData, clientData
		})
		require.ErrorIs(t, err, webauthn.ErrInvalidData)
	})

	t.Run("wrong ceremony type rejected", func(t *testing.T) {
		challenge, err := wa.CreateChallenge()
		require.NoError(t, err)
		authData := buildAuthData(t, flagsRegistration, []byte("wrong-type"), priv)
		_, err = wa.RegisterCredential(ctx, user.ID, domain.CredentialKindSecurityKey, "key",
			buildAttestationObject(t, authData),
			buildClientData(t, "webauthn.get", challenge))
		require.ErrorIs(t, err, webauthn.ErrInvalidData)
	})

	t.Run("credential cap enforced", func(t *testing.T) {
		for i := range 5 {
			require.NoError(t, register(t, []byte{byte(i)}, nil))
		}
		err := register(t, []byte("one-too-many"), nil)
		require.ErrorIs(t, err, service.ErrTooManyCredentials)
	})
}
