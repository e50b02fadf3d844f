/*
Package authsdk provides a client SDK for the doorman authentication service.

# Overview

The package is organized around three types:

  - SDKClient: unauthenticated operations and the entry points that create sessions
  - Session: authenticated operations carried by the session cookie
  - ResetSession: the password reset flow, carried by its own short-lived cookie

Create an SDKClient to talk to public endpoints and sign in:

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Create an account or sign in
	session, user, err := client.Signup(ctx, "a@example.com", "alice", password)
	session, err := client.Login(ctx, "a@example.com", password)

Use the Session for everything behind authentication:

	user, err := session.User(ctx)
	err = session.VerifyEmail(ctx, code)
	codes, err := session.SetupTOTP(ctx, secret, totpCode)
	err = session.VerifyTOTP(ctx, totpCode)
	err = session.UpdatePassword(ctx, oldPassword, newPassword)
	err = session.Logout(ctx)

The server rotates the session cookie on some operations (password change in
particular); the Session tracks the replacement automatically.

# Password reset

A reset starts anonymously and runs over its own cookie. Completing it
returns a fresh authenticated Session:

	reset, err := client.RequestPasswordReset(ctx, "a@example.com")
	err = reset.VerifyEmail(ctx, emailedCode)
	err = reset.VerifyTOTP(ctx, totpCode) // only for accounts with a second factor
	session, err := reset.SetPassword(ctx, newPassword)

# Errors

Failed requests return *APIError carrying the HTTP status code and the
server's error message:

	if apiErr, ok := err.(*authsdk.APIError); ok {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			// back off
		}
	}
*/
package authsdk
