package authsdk

import (
	"context"
	"net/http"
)

// SetupTOTP enrols an authenticator app. The caller supplies the base32
// secret it displayed and a code the user generated from it. When this is
// the account's first second factor the returned slice holds the freshly
// minted recovery codes; show them to the user once.
func (s *Session) SetupTOTP(ctx context.Context, secret, code string) ([]string, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/user/totp", map[string]string{
		"key":  secret,
		"code": code,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		resp.Body.Close()
		return nil, nil
	}

	var body struct {
		RecoveryCodes []string `json:"recovery_codes"`
	}
	if err := decodeJSON(resp, &body, http.StatusOK); err != nil {
		return nil, err
	}
	return body.RecoveryCodes, nil
}

// VerifyTOTP completes two-factor authentication with an authenticator code.
func (s *Session) VerifyTOTP(ctx context.Context, code string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/2fa/totp", map[string]string{
		"code": code,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Reset2FA burns a recovery code to strip every second factor from the
// account. The used code stops working; the rest of the set stays valid.
func (s *Session) Reset2FA(ctx context.Context, recoveryCode string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/user/reset-2fa", map[string]string{
		"code": recoveryCode,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
