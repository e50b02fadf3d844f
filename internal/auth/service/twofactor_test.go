package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/tanglebay/doorman/internal/auth/service"
)

func generateTOTPSecret(t *testing.T) string {
	t.Helper()

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "doorman-test",
		AccountName: "tester@example.com",
	})
	require.NoError(t, err)
	return key.Secret()
}

func TestTOTPSetupAndVerify(t *testing.T) {
	testPepper(t)
	st := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, st, "totp@example.com")
	twoFactor := &service.TwoFactorService{Store: st}

	secret := generateTOTPSecret(t)
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	t.Run("setup rejects a wrong proof code", func(t *testing.T) {
		err := twoFactor.SetupTOTP(ctx, user.ID, secret, "000000")
		if err == nil {
			t.Skip("generated code happened to be 000000")
		}
		require.ErrorIs(t, err, service.ErrInvalidTOTPCode)
	})

	require.NoError(t, twoFactor.SetupTOTP(ctx, user.ID, secret, code))

	t.Run("verify accepts a fresh code", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, twoFactor.VerifyTOTP(ctx, user.ID, code))
	})

	t.Run("verify rejects garbage", func(t *testing.T) {
		err := twoFactor.VerifyTOTP(ctx, user.ID, "123")
		require.ErrorIs(t, err, service.ErrInvalidTOTPCode)
	})

	t.Run("enrolment flag shows on the user", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, got.RegisteredTOTP)
		require.True(t, got.Registered2FA())
	})

	t.Run("verify without enrolment", func(t *testing.T) {
		other := createTestUser(t, st, "totp-none@example.com")
		err := twoFactor.VerifyTOTP(ctx, other.ID, "123456")
		require.ErrorIs(t, err, service.ErrTOTPNotEnrolled)
	})
}

func TestRecoveryCodes(t *testing.T) {
	testPepper(t)
	st := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, st, "recovery@example.com")
	twoFactor := &service.TwoFactorService{Store: st}

	codes, err := twoFactor.EnsureRecoveryCodes(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, codes, 8)

	t.Run("ensure is a no-op when codes exist", func(t *testing.T) {
		again, err := twoFactor.EnsureRecoveryCodes(ctx, user.ID)
		require.NoError(t, err)
		require.Nil(t, again)
	})

	t.Run("reset burns the code and tears factors down", func(t *testing.T) {
		// Enrol TOTP and mark a session verified so the teardown has
		// something to do.
		secret := generateTOTPSecret(t)
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, twoFactor.SetupTOTP(ctx, user.ID, secret, code))

		sessions := &service.SessionService{Store: st}
		session, token, err := sessions.CreateSession(ctx, user.ID, true)
		require.NoError(t, err)
		require.True(t, session.TwoFactorVerified)

		require.NoError(t, twoFactor.ResetWithRecoveryCode(ctx, user.ID, codes[0]))

		got, gotUser, err := sessions.ValidateSessionToken(ctx, token)
		require.NoError(t, err)
		require.False(t, got.TwoFactorVerified)
		require.False(t, gotUser.RegisteredTOTP)

		// The burnt code is gone; the others remain.
		err = twoFactor.ResetWithRecoveryCode(ctx, user.ID, codes[0])
		require.ErrorIs(t, err, service.ErrInvalidRecoveryCode)
		require.NoError(t, twoFactor.ResetWithRecoveryCode(ctx, user.ID, codes[1]))
	})

	t.Run("unknown code rejected", func(t *testing.T) {
		err := twoFactor.ResetWithRecoveryCode(ctx, user.ID, "nope")
		require.ErrorIs(t, err, service.ErrInvalidRecoveryCode)
	})
}
