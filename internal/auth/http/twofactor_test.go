package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// enrollTOTP registers an authenticator secret for the session's user and
// returns the secret plus the minted recovery codes.
func enrollTOTP(t *testing.T, r http.Handler, session *http.Cookie) (string, []string) {
	t.Helper()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "doorman", AccountName: "test"})
	require.NoError(t, err)
	secret := key.Secret()

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodPost, "/v1/user/totp", map[string]string{
		"key":  secret,
		"code": code,
	}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	raw := decodeBody(t, rec)["recovery_codes"].([]any)
	codes := make([]string, 0, len(raw))
	for _, c := range raw {
		codes = append(codes, c.(string))
	}
	return secret, codes
}

func TestTOTPSetupAndVerify(t *testing.T) {
	r, mailer := newTestRouter(t)
	session := signup(t, r, "ivan@example.com")

	t.Run("setup requires a verified email", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/user/totp", map[string]string{
			"key": "whatever", "code": "000000",
		}, session)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	verifyEmail(t, r, mailer, session)
	secret, codes := enrollTOTP(t, r, session)
	require.Len(t, codes, 8)

	// A fresh login starts without the second factor.
	rec := doJSON(t, r, http.MethodPost, "/v1/login", map[string]string{
		"email":    "ivan@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	fresh := responseCookie(t, rec, "session")

	rec = doJSON(t, r, http.MethodGet, "/v1/user", nil, fresh)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec)["registered_2fa"])

	t.Run("password change blocked until verified", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPatch, "/v1/user/password", map[string]string{
			"password":     testPassword,
			"new_password": "a different long password",
		}, fresh)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong code rejected", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/2fa/totp", map[string]string{
			"code": "000000",
		}, fresh)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Incorrect code", decodeBody(t, rec)["error"])
	})

	t.Run("correct code verifies the session", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		rec := doJSON(t, r, http.MethodPost, "/v1/2fa/totp", map[string]string{
			"code": code,
		}, fresh)
		require.Equal(t, http.StatusNoContent, rec.Code)

		// Verified sessions stay verified; a repeat attempt is refused.
		rec = doJSON(t, r, http.MethodPost, "/v1/2fa/totp", map[string]string{
			"code": code,
		}, fresh)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestReset2FAWithRecoveryCode(t *testing.T) {
	r, mailer := newTestRouter(t)
	session := signup(t, r, "judy@example.com")
	verifyEmail(t, r, mailer, session)
	_, codes := enrollTOTP(t, r, session)

	rec := doJSON(t, r, http.MethodPost, "/v1/login", map[string]string{
		"email":    "judy@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	fresh := responseCookie(t, rec, "session")

	t.Run("bad code rejected", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/user/reset-2fa", map[string]string{
			"code": "not-a-recovery-code",
		}, fresh)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Incorrect code", decodeBody(t, rec)["error"])
	})

	t.Run("recovery code strips all second factors", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/user/reset-2fa", map[string]string{
			"code": codes[0],
		}, fresh)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, r, http.MethodGet, "/v1/user", nil, fresh)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, false, decodeBody(t, rec)["registered_2fa"])
	})

	t.Run("used code does not work twice", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/user/reset-2fa", map[string]string{
			"code": codes[0],
		}, fresh)
		// The account no longer has a second factor to reset.
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
