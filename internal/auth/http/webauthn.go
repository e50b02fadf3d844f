package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/httpx"
)

func (r *Router) handleWebAuthnChallenge(w http.ResponseWriter, req *http.Request) {
	if !r.limits.challengeIP.Consume(httpx.ClientIP(req), 1) {
		writeTooManyRequests(w)
		return
	}

	challenge, err := r.WebAuthn.CreateChallenge()
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"challenge": base64.RawURLEncoding.EncodeToString(challenge),
	})
}

type registerCredentialBody struct {
	Name              string `json:"name"`
	AttestationObject string `json:"attestation_object"` // base64url
	ClientDataJSON    string `json:"client_data_json"`   // base64url
}

func (r *Router) handleRegisterPasskey(w http.ResponseWriter, req *http.Request) {
	r.handleRegisterCredential(w, req, domain.CredentialKindPasskey)
}

func (r *Router) handleRegisterSecurityKey(w http.ResponseWriter, req *http.Request) {
	r.handleRegisterCredential(w, req, domain.CredentialKindSecurityKey)
}

func (r *Router) handleRegisterCredential(w http.ResponseWriter, req *http.Request, kind domain.CredentialKind) {
	session := sessionFromContext(req.Context())
	user := userFromContext(req.Context())

	if !user.EmailVerified {
		writeForbidden(w)
		return
	}
	// Adding a factor to an account that already has one requires the
	// current session to have presented it.
	if user.Registered2FA() && !session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	var body registerCredentialBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Name == "" {
		writeInvalidData(w)
		return
	}
	attestation, err := base64.RawURLEncoding.DecodeString(body.AttestationObject)
	if err != nil {
		writeInvalidData(w)
		return
	}
	clientData, err := base64.RawURLEncoding.DecodeString(body.ClientDataJSON)
	if err != nil {
		writeInvalidData(w)
		return
	}

	if _, err := r.WebAuthn.RegisterCredential(req.Context(), user.ID, kind, body.Name, attestation, clientData); err != nil {
		writeServiceError(w, req, err)
		return
	}

	// Registering a factor vouches for the session, and the first factor
	// ever registered mints the account's recovery codes.
	if err := r.Sessions.SetSessionAs2FAVerified(req.Context(), session.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	recoveryCodes, err := r.TwoFactor.EnsureRecoveryCodes(req.Context(), user.ID)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}

	if recoveryCodes != nil {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"recovery_codes": recoveryCodes})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleListPasskeys(w http.ResponseWriter, req *http.Request) {
	r.handleListCredentials(w, req, domain.CredentialKindPasskey)
}

func (r *Router) handleListSecurityKeys(w http.ResponseWriter, req *http.Request) {
	r.handleListCredentials(w, req, domain.CredentialKindSecurityKey)
}

func (r *Router) handleListCredentials(w http.ResponseWriter, req *http.Request, kind domain.CredentialKind) {
	user := userFromContext(req.Context())

	creds, err := r.WebAuthn.ListCredentials(req.Context(), user.ID, kind)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}

	out := make([]map[string]any, 0, len(creds))
	for _, c := range creds {
		out = append(out, map[string]any{
			"id":        base64.RawURLEncoding.EncodeToString(c.ID),
			"name":      c.Name,
			"algorithm": c.Algorithm,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"credentials": out})
}

func (r *Router) handleDeletePasskey(w http.ResponseWriter, req *http.Request) {
	r.handleDeleteCredential(w, req, domain.CredentialKindPasskey)
}

func (r *Router) handleDeleteSecurityKey(w http.ResponseWriter, req *http.Request) {
	r.handleDeleteCredential(w, req, domain.CredentialKindSecurityKey)
}

func (r *Router) handleDeleteCredential(w http.ResponseWriter, req *http.Request, kind domain.CredentialKind) {
	session := sessionFromContext(req.Context())
	user := userFromContext(req.Context())

	if !user.EmailVerified {
		writeForbidden(w)
		return
	}
	if user.Registered2FA() && !session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	credentialID, err := base64.RawURLEncoding.DecodeString(req.PathValue("id"))
	if err != nil || len(credentialID) == 0 {
		writeInvalidData(w)
		return
	}

	// Absent and foreign credentials answer identically (404).
	if err := r.WebAuthn.DeleteCredential(req.Context(), user.ID, kind, credentialID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assertionBody struct {
	CredentialID      string `json:"credential_id"`      // base64url
	AuthenticatorData string `json:"authenticator_data"` // base64url
	ClientDataJSON    string `json:"client_data_json"`   // base64url
	Signature         string `json:"signature"`          // base64url
}

func (r *Router) handlePasskey2FA(w http.ResponseWriter, req *http.Request) {
	r.handleWebAuthn2FA(w, req, domain.CredentialKindPasskey)
}

func (r *Router) handleSecurityKey2FA(w http.ResponseWriter, req *http.Request) {
	r.handleWebAuthn2FA(w, req, domain.CredentialKindSecurityKey)
}

func (r *Router) handleWebAuthn2FA(w http.ResponseWriter, req *http.Request, kind domain.CredentialKind) {
	session := sessionFromContext(req.Context())
	user := userFromContext(req.Context())

	registered := user.RegisteredPasskey
	if kind == domain.CredentialKindSecurityKey {
		registered = user.RegisteredSecurityKey
	}
	if !user.EmailVerified || !registered || session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	var body assertionBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeInvalidData(w)
		return
	}
	credentialID, err1 := base64.RawURLEncoding.DecodeString(body.CredentialID)
	authData, err2 := base64.RawURLEncoding.DecodeString(body.AuthenticatorData)
	clientData, err3 := base64.RawURLEncoding.DecodeString(body.ClientDataJSON)
	signature, err4 := base64.RawURLEncoding.DecodeString(body.Signature)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		writeInvalidData(w)
		return
	}

	if _, err := r.WebAuthn.VerifyAssertion(req.Context(), user.ID, kind,
		credentialID, authData, clientData, signature); err != nil {
		writeServiceError(w, req, err)
		return
	}

	if err := r.Sessions.SetSessionAs2FAVerified(req.Context(), session.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
