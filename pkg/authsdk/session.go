package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Session represents an authenticated session carried by the session cookie.
// The server rotates the cookie on operations like password changes; Session
// methods pick the replacement up automatically. Safe for concurrent use.
type Session struct {
	client *SDKClient

	mu     sync.RWMutex
	cookie *http.Cookie
}

// newSession creates a session from the cookie a signup or login set.
func newSession(client *SDKClient, cookie *http.Cookie) *Session {
	return &Session{client: client, cookie: cookie}
}

// Token returns the raw session token, e.g. for persisting across restarts.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cookie == nil {
		return ""
	}
	return s.cookie.Value
}

// NewSessionFromToken rebuilds a Session from a previously persisted token.
func (c *SDKClient) NewSessionFromToken(token string) *Session {
	return newSession(c, &http.Cookie{Name: sessionCookieName, Value: token})
}

// doAuthRequest performs a request with the session cookie attached and
// tracks any rotated cookie the response carries.
func (s *Session) doAuthRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	s.mu.RLock()
	cookie := s.cookie
	s.mu.RUnlock()

	if cookie == nil || cookie.Value == "" {
		return nil, fmt.Errorf("session has no token")
	}

	resp, err := s.client.doRequest(ctx, method, path, body, cookie)
	if err != nil {
		return nil, err
	}

	if rotated := responseCookie(resp, sessionCookieName); rotated != nil && rotated.Value != "" {
		s.mu.Lock()
		s.cookie = rotated
		s.mu.Unlock()
	}
	return resp, nil
}

// User fetches the account behind the session.
func (s *Session) User(ctx context.Context) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/user", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteAccount removes the account and everything attached to it. The
// session is gone afterwards.
func (s *Session) DeleteAccount(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/user", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// UpdateEmail starts an address change. The account drops to unverified and
// a code goes to the new address; confirm it with VerifyEmail.
func (s *Session) UpdateEmail(ctx context.Context, email string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, "/v1/user/email", map[string]string{
		"email": email,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Logout revokes the session server side.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/session", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// UpdatePassword changes the account password. Every other session is
// revoked; this one transparently continues on a fresh cookie.
func (s *Session) UpdatePassword(ctx context.Context, current, updated string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, "/v1/user/password", map[string]string{
		"password":     current,
		"new_password": updated,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ResendVerificationEmail asks the service to mail a fresh verification code.
func (s *Session) ResendVerificationEmail(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/email-verification/resend", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// VerifyEmail confirms the emailed verification code.
func (s *Session) VerifyEmail(ctx context.Context, code string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/email-verification/verify", map[string]string{
		"code": code,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
