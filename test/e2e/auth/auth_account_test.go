package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanglebay/doorman/pkg/authsdk"
)

// TestSignupVerifyLogin walks the happy path from account creation to a
// verified login session.
func TestSignupVerifyLogin(t *testing.T) {
	baseURL, mailer := setupAuthServer(t)
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session, user, err := client.Signup(ctx, "alice@example.com", "alice", testPassword)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.False(t, user.EmailVerified)
	require.NotEmpty(t, session.Token())

	require.NoError(t, session.VerifyEmail(ctx, mailer.lastVerificationCode(t)))

	loginSession, err := client.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	loginUser, err := loginSession.User(ctx)
	require.NoError(t, err)
	require.True(t, loginUser.EmailVerified)
	require.False(t, loginUser.Registered2FA)

	require.NoError(t, loginSession.Logout(ctx))

	// The cookie is dead after logout.
	err = loginSession.Logout(ctx)
	require.True(t, authsdk.IsNotAuthenticated(err))
}

// TestWrongCredentials verifies the login failure answers.
func TestWrongCredentials(t *testing.T) {
	baseURL, _ := setupAuthServer(t)
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	_, _, err := client.Signup(ctx, "bob@example.com", "bob", testPassword)
	require.NoError(t, err)

	_, err = client.Login(ctx, "bob@example.com", "not the password")
	apiErr := &authsdk.APIError{}
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "Incorrect password", apiErr.Message)

	_, err = client.Login(ctx, "nobody@example.com", testPassword)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Account does not exist", apiErr.Message)
}

// TestPasswordChangeRotatesSessions verifies every other session dies on a
// password change while the changing session keeps working.
func TestPasswordChangeRotatesSessions(t *testing.T) {
	baseURL, _ := setupAuthServer(t)
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	_, _, err := client.Signup(ctx, "carol@example.com", "carol", testPassword)
	require.NoError(t, err)

	first, err := client.Login(ctx, "carol@example.com", testPassword)
	require.NoError(t, err)
	second, err := client.Login(ctx, "carol@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, first.UpdatePassword(ctx, testPassword, "a brand new password"))

	// The changing session rode the rotation; the other did not.
	require.NoError(t, first.Logout(ctx))
	require.True(t, authsdk.IsNotAuthenticated(second.Logout(ctx)))

	_, err = client.Login(ctx, "carol@example.com", "a brand new password")
	require.NoError(t, err)
}

// TestPasswordResetFlow completes a reset end to end and confirms the old
// password stops working.
func TestPasswordResetFlow(t *testing.T) {
	baseURL, mailer := setupAuthServer(t)
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session, _, err := client.Signup(ctx, "dave@example.com", "dave", testPassword)
	require.NoError(t, err)

	reset, err := client.RequestPasswordReset(ctx, "dave@example.com")
	require.NoError(t, err)

	require.NoError(t, reset.VerifyEmail(ctx, mailer.lastResetCode(t)))

	fresh, err := reset.SetPassword(ctx, "a brand new password")
	require.NoError(t, err)

	// Pre-reset sessions are revoked, the returned one works.
	require.True(t, authsdk.IsNotAuthenticated(session.Logout(ctx)))
	require.NoError(t, fresh.Logout(ctx))

	_, err = client.Login(ctx, "dave@example.com", testPassword)
	apiErr := &authsdk.APIError{}
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Incorrect password", apiErr.Message)
}
