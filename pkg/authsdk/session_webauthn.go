package authsdk

import (
	"context"
	"net/http"
)

// RegisterPasskey registers a passkey credential from a completed browser
// registration ceremony. When this is the account's first second factor the
// returned slice holds the freshly minted recovery codes; show them to the
// user once.
func (s *Session) RegisterPasskey(ctx context.Context, attestation WebAuthnAttestation) ([]string, error) {
	return s.registerCredential(ctx, "/v1/user/passkey/credential", attestation)
}

// RegisterSecurityKey registers a security key credential from a completed
// browser registration ceremony. Recovery code semantics match
// RegisterPasskey.
func (s *Session) RegisterSecurityKey(ctx context.Context, attestation WebAuthnAttestation) ([]string, error) {
	return s.registerCredential(ctx, "/v1/user/security-key/credential", attestation)
}

func (s *Session) registerCredential(ctx context.Context, path string, attestation WebAuthnAttestation) ([]string, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, attestation)
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

// ListPasskeys returns the account's registered passkey credentials.
func (s *Session) ListPasskeys(ctx context.Context) ([]Credential, error) {
	return s.listCredentials(ctx, "/v1/user/passkey/credentials")
}

// ListSecurityKeys returns the account's registered security key credentials.
func (s *Session) ListSecurityKeys(ctx context.Context) ([]Credential, error) {
	return s.listCredentials(ctx, "/v1/user/security-key/credentials")
}

func (s *Session) listCredentials(ctx context.Context, path string) ([]Credential, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Credentials []Credential `json:"credentials"`
	}
	if err := decodeJSON(resp, &body, http.StatusOK); err != nil {
		return nil, err
	}
	return body.Credentials, nil
}

// DeletePasskey removes a passkey credential by its base64url id.
func (s *Session) DeletePasskey(ctx context.Context, credentialID string) error {
	return s.deleteCredential(ctx, "/v1/user/passkey/credentials/"+credentialID)
}

// DeleteSecurityKey removes a security key credential by its base64url id.
func (s *Session) DeleteSecurityKey(ctx context.Context, credentialID string) error {
	return s.deleteCredential(ctx, "/v1/user/security-key/credentials/"+credentialID)
}

func (s *Session) deleteCredential(ctx context.Context, path string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// VerifyPasskey completes two-factor authentication with a passkey assertion.
func (s *Session) VerifyPasskey(ctx context.Context, assertion WebAuthnAssertion) error {
	return s.verifyAssertion(ctx, "/v1/2fa/passkey", assertion)
}

// VerifySecurityKey completes two-factor authentication with a security key
// assertion.
func (s *Session) VerifySecurityKey(ctx context.Context, assertion WebAuthnAssertion) error {
	return s.verifyAssertion(ctx, "/v1/2fa/security-key", assertion)
}

func (s *Session) verifyAssertion(ctx context.Context, path string, assertion WebAuthnAssertion) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, assertion)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
