package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tanglebay/doorman/internal/auth/service"
	"github.com/tanglebay/doorman/pkg/httpx"
)

type totpSetupRequest struct {
	Key  string `json:"key"` // base32 shared secret
	Code string `json:"code"`
}

func (r *Router) handleTOTPSetup(w http.ResponseWriter, req *http.Request) {
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

	if !r.limits.totpVerify.Check(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}
	var body totpSetupRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Key == "" || body.Code == "" {
		writeInvalidData(w)
		return
	}
	if !r.limits.totpVerify.Consume(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	if err := r.TwoFactor.SetupTOTP(req.Context(), user.ID, body.Key, body.Code); err != nil {
		if errors.Is(err, service.ErrInvalidTOTPCode) {
			httpx.WriteError(w, http.StatusBadRequest, msgIncorrectCode)
			return
		}
		writeServiceError(w, req, err)
		return
	}
	r.limits.totpVerify.Reset(user.ID.String())

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

func (r *Router) handleTOTP2FA(w http.ResponseWriter, req *http.Request) {
	session := sessionFromContext(req.Context())
	user := userFromContext(req.Context())

	if !user.RegisteredTOTP || session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	if !r.limits.totpVerify.Check(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Code == "" {
		writeInvalidData(w)
		return
	}
	if !r.limits.totpVerify.Consume(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	if err := r.TwoFactor.VerifyTOTP(req.Context(), user.ID, body.Code); err != nil {
		if errors.Is(err, service.ErrInvalidTOTPCode) {
			httpx.WriteError(w, http.StatusBadRequest, msgIncorrectCode)
			return
		}
		writeServiceError(w, req, err)
		return
	}
	r.limits.totpVerify.Reset(user.ID.String())

	if err := r.Sessions.SetSessionAs2FAVerified(req.Context(), session.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleReset2FA(w http.ResponseWriter, req *http.Request) {
	session := sessionFromContext(req.Context())
	user := userFromContext(req.Context())

	// Recovery codes exist to get back in, not to bypass an already
	// verified session or an account without a second factor.
	if !user.EmailVerified || !user.Registered2FA() || session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	if !r.limits.recovery.Check(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Code == "" {
		writeInvalidData(w)
		return
	}
	if !r.limits.recovery.Consume(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	if err := r.TwoFactor.ResetWithRecoveryCode(req.Context(), user.ID, body.Code); err != nil {
		if errors.Is(err, service.ErrInvalidRecoveryCode) {
			httpx.WriteError(w, http.StatusBadRequest, msgIncorrectCode)
			return
		}
		writeServiceError(w, req, err)
		return
	}
	r.limits.recovery.Reset(user.ID.String())
	w.WriteHeader(http.StatusNoContent)
}
