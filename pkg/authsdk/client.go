package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	sessionCookieName = "session"
	resetCookieName   = "password_reset_session"
)

// SDKClient is a client for the doorman authentication service.
// It provides access to unauthenticated operations and creates authenticated
// Sessions via Signup and Login.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Signup creates a new account and returns its authenticated session. The
// service emails a verification code immediately; complete enrolment with
// Session.VerifyEmail.
func (c *SDKClient) Signup(ctx context.Context, email, username, password string) (*Session, *User, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/signup", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, nil)
	if err != nil {
		return nil, nil, err
	}

	cookie := responseCookie(resp, sessionCookieName)
	var user User
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, nil, err
	}
	return newSession(c, cookie), &user, nil
}

// Login authenticates with email and password. Accounts with a second factor
// come back with an unverified session; complete it with one of the Session
// 2FA methods before touching protected operations. Account details are
// available via Session.User.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return nil, err
	}

	cookie := responseCookie(resp, sessionCookieName)
	if err := checkStatusNoContent(resp); err != nil {
		return nil, err
	}
	return newSession(c, cookie), nil
}

// RequestPasswordReset starts a password reset for the account. The service
// emails an 8 digit code; continue with ResetSession.VerifyEmail.
func (c *SDKClient) RequestPasswordReset(ctx context.Context, email string) (*ResetSession, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/password-reset/session", map[string]string{
		"email": email,
	}, nil)
	if err != nil {
		return nil, err
	}

	cookie := responseCookie(resp, resetCookieName)
	if err := checkStatusNoContent(resp); err != nil {
		return nil, err
	}
	return &ResetSession{client: c, cookie: cookie}, nil
}

// GetWebAuthnChallenge fetches a fresh single-use challenge for a WebAuthn
// ceremony. The returned string is base64url encoded.
func (c *SDKClient) GetWebAuthnChallenge(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/webauthn/challenge", nil, nil)
	if err != nil {
		return "", err
	}

	var body struct {
		Challenge string `json:"challenge"`
	}
	if err := decodeJSON(resp, &body, http.StatusOK); err != nil {
		return "", err
	}
	return body.Challenge, nil
}
