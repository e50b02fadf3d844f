package authsdk

import (
	"context"
	"fmt"
	"net/http"
)

// ResetSession represents an in-progress password reset, carried by its own
// short-lived cookie. The flow is VerifyEmail, then VerifyTOTP for accounts
// with a second factor, then SetPassword.
type ResetSession struct {
	client *SDKClient
	cookie *http.Cookie
}

func (r *ResetSession) doRequest(ctx context.Context, path string, body any) (*http.Response, error) {
	if r.cookie == nil || r.cookie.Value == "" {
		return nil, fmt.Errorf("reset session has no token")
	}
	return r.client.doRequest(ctx, http.MethodPost, path, body, r.cookie)
}

// VerifyEmail confirms the 8 digit code the service emailed.
func (r *ResetSession) VerifyEmail(ctx context.Context, code string) error {
	resp, err := r.doRequest(ctx, "/v1/password-reset/verify-email", map[string]string{
		"code": code,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// VerifyTOTP proves the account's second factor within the reset. Required
// before SetPassword when the account has one registered.
func (r *ResetSession) VerifyTOTP(ctx context.Context, code string) error {
	resp, err := r.doRequest(ctx, "/v1/password-reset/2fa/totp", map[string]string{
		"code": code,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// SetPassword completes the reset. Every existing login session is revoked
// and the returned Session is the replacement.
func (r *ResetSession) SetPassword(ctx context.Context, password string) (*Session, error) {
	resp, err := r.doRequest(ctx, "/v1/password-reset/password", map[string]string{
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	session := responseCookie(resp, sessionCookieName)
	if err := checkStatusNoContent(resp); err != nil {
		return nil, err
	}
	return newSession(r.client, session), nil
}
