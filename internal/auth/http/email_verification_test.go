package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmailVerificationFlow(t *testing.T) {
	r, mailer := newTestRouter(t)
	session := signup(t, r, "erin@example.com")
	require.Len(t, mailer.verificationCodes, 1)

	t.Run("wrong code", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/email-verification/verify", map[string]string{
			"code": "00000000",
		}, session)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Incorrect code", decodeBody(t, rec)["error"])
	})

	t.Run("resend mints a new code", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/email-verification/resend", nil, session)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Len(t, mailer.verificationCodes, 2)
	})

	t.Run("correct code verifies", func(t *testing.T) {
		verifyEmail(t, r, mailer, session)

		rec := doJSON(t, r, http.MethodGet, "/v1/user", nil, session)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, true, decodeBody(t, rec)["email_verified"])
	})

	t.Run("resend after verified is forbidden", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/email-verification/resend", nil, session)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestEmailVerificationAttemptLimit(t *testing.T) {
	r, _ := newTestRouter(t)
	session := signup(t, r, "frank@example.com")

	for i := 0; i < 5; i++ {
		rec := doJSON(t, r, http.MethodPost, "/v1/email-verification/verify", map[string]string{
			"code": "00000000",
		}, session)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := doJSON(t, r, http.MethodPost, "/v1/email-verification/verify", map[string]string{
		"code": "00000000",
	}, session)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
