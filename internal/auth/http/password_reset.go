package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/internal/auth/service"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/pkg/cryptox"
	"github.com/tanglebay/doorman/pkg/httpx"
)

type resetRequestBody struct {
	Email string `json:"email"`
}

func (r *Router) handleResetRequest(w http.ResponseWriter, req *http.Request) {
	ip := httpx.ClientIP(req)
	if !r.limits.resetRequestIP.Check(ip, 1) {
		writeTooManyRequests(w)
		return
	}

	var body resetRequestBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeInvalidData(w)
		return
	}
	if err := service.ValidateEmail(body.Email); err != nil {
		writeInvalidData(w)
		return
	}

	user, err := r.Users.GetUserByEmail(req.Context(), body.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusBadRequest, msgAccountDoesNotExist)
			return
		}
		writeServiceError(w, req, err)
		return
	}

	if !r.limits.resetRequestIP.Consume(ip, 1) {
		writeTooManyRequests(w)
		return
	}
	if !r.limits.resetRequestUser.Consume(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	session, token, err := r.Resets.CreateResetSession(req.Context(), user)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	r.setResetCookie(w, token, session.ExpiresAt)
	w.WriteHeader(http.StatusNoContent)
}

// resetSessionFromRequest resolves the reset cookie or writes 401.
func (r *Router) resetSessionFromRequest(w http.ResponseWriter, req *http.Request) (domain.PasswordResetSession, domain.User, bool) {
	token := httpx.ReadCookie(req, resetCookieName)
	if token == "" {
		writeNotAuthenticated(w)
		return domain.PasswordResetSession{}, domain.User{}, false
	}
	session, user, err := r.Resets.ValidateResetToken(req.Context(), token)
	if err != nil {
		httpx.ClearCookie(w, resetCookieName, r.SecureCookies)
		writeNotAuthenticated(w)
		return domain.PasswordResetSession{}, domain.User{}, false
	}
	return session, user, true
}

type resetCodeBody struct {
	Code string `json:"code"`
}

func (r *Router) handleResetVerifyEmail(w http.ResponseWriter, req *http.Request) {
	session, _, ok := r.resetSessionFromRequest(w, req)
	if !ok {
		return
	}
	if session.EmailVerified {
		writeForbidden(w)
		return
	}

	if !r.limits.resetEmailVerify.Check(session.ID, 1) {
		writeTooManyRequests(w)
		return
	}

	var body resetCodeBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Code == "" {
		writeInvalidData(w)
		return
	}

	if !r.limits.resetEmailVerify.Consume(session.ID, 1) {
		writeTooManyRequests(w)
		return
	}

	if err := r.Resets.VerifyEmailCode(req.Context(), session, body.Code); err != nil {
		if errors.Is(err, service.ErrIncorrectCode) {
			httpx.WriteError(w, http.StatusBadRequest, msgIncorrectCode)
			return
		}
		writeServiceError(w, req, err)
		return
	}
	r.limits.resetEmailVerify.Reset(session.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleResetVerifyTOTP(w http.ResponseWriter, req *http.Request) {
	session, user, ok := r.resetSessionFromRequest(w, req)
	if !ok {
		return
	}
	if !session.EmailVerified || !user.RegisteredTOTP || session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	if !r.limits.totpVerify.Check(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	var body resetCodeBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Code == "" {
		writeInvalidData(w)
		return
	}

	if !r.limits.totpVerify.Consume(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	if err := r.TwoFactor.VerifyTOTP(req.Context(), user.ID, body.Code); err != nil {
		writeServiceError(w, req, err)
		return
	}
	r.limits.totpVerify.Reset(user.ID.String())

	if err := r.Resets.SetTwoFactorVerified(req.Context(), session.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resetPasswordBody struct {
	Password string `json:"password"`
}

func (r *Router) handleResetPassword(w http.ResponseWriter, req *http.Request) {
	session, user, ok := r.resetSessionFromRequest(w, req)
	if !ok {
		return
	}
	if !session.EmailVerified {
		writeForbidden(w)
		return
	}
	// A user with a second factor has to have proven it within this reset.
	if user.Registered2FA() && !session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	var body resetPasswordBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeInvalidData(w)
		return
	}
	if !cryptox.VerifyPasswordStrength(body.Password) {
		httpx.WriteError(w, http.StatusBadRequest, msgWeakPassword)
		return
	}

	if err := r.Resets.InvalidateUserResetSessions(req.Context(), user.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	if err := r.Sessions.InvalidateUserSessions(req.Context(), user.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	if err := r.Users.UpdatePassword(req.Context(), user.ID, body.Password); err != nil {
		writeServiceError(w, req, err)
		return
	}

	// The reset proved email ownership and, when applicable, a second
	// factor; the fresh login session inherits that proof.
	fresh, token, err := r.Sessions.CreateSession(req.Context(), user.ID, session.TwoFactorVerified)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	r.setSessionCookie(w, token, fresh.ExpiresAt)
	httpx.ClearCookie(w, resetCookieName, r.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}
