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

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userResponse(u domain.User) map[string]any {
	return map[string]any{
		"id":             u.ID.String(),
		"email":          u.Email,
		"username":       u.Username,
		"email_verified": u.EmailVerified,
		"registered_2fa": u.Registered2FA(),
	}
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	ip := httpx.ClientIP(req)
	if !r.limits.signupIP.Check(ip, 1) {
		writeTooManyRequests(w)
		return
	}

	var body signupRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeInvalidData(w)
		return
	}
	if err := service.ValidateEmail(body.Email); err != nil {
		writeInvalidData(w)
		return
	}
	if len(body.Username) < 3 || len(body.Username) > 32 {
		writeInvalidData(w)
		return
	}
	if !cryptox.VerifyPasswordStrength(body.Password) {
		httpx.WriteError(w, http.StatusBadRequest, msgWeakPassword)
		return
	}

	if !r.limits.signupIP.Consume(ip, 1) {
		writeTooManyRequests(w)
		return
	}

	user, err := r.Users.CreateUser(req.Context(), body.Email, body.Username, body.Password)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}

	if _, err := r.Verifications.CreateRequest(req.Context(), user.ID, user.Email); err != nil {
		writeServiceError(w, req, err)
		return
	}

	session, token, err := r.Sessions.CreateSession(req.Context(), user.ID, false)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	r.setSessionCookie(w, token, session.ExpiresAt)
	httpx.WriteJSON(w, http.StatusCreated, userResponse(user))
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	ip := httpx.ClientIP(req)
	if !r.limits.loginIP.Check(ip, 1) {
		writeTooManyRequests(w)
		return
	}

	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeInvalidData(w)
		return
	}
	// Blank credentials are malformed input and must not burn any quota.
	if body.Email == "" || body.Password == "" {
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

	if !r.limits.loginIP.Consume(ip, 1) {
		writeTooManyRequests(w)
		return
	}
	if !r.limits.loginUser.Consume(user.ID.String()) {
		writeTooManyRequests(w)
		return
	}

	if err := cryptox.VerifyPassword(body.Password, user.PasswordHash); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, msgIncorrectPassword)
		return
	}
	r.limits.loginUser.Reset(user.ID.String())

	session, token, err := r.Sessions.CreateSession(req.Context(), user.ID, false)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	r.setSessionCookie(w, token, session.ExpiresAt)
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleGetUser(w http.ResponseWriter, req *http.Request) {
	user := userFromContext(req.Context())
	httpx.WriteJSON(w, http.StatusOK, userResponse(user))
}

func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	session := sessionFromContext(req.Context())
	user := userFromContext(req.Context())

	// Deleting the account with a second factor enrolled requires the
	// session to have presented it.
	if user.Registered2FA() && !session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	// Sessions, credentials and codes go with the user row (schema cascade).
	if err := r.Users.DeleteUser(req.Context(), user.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	httpx.ClearCookie(w, sessionCookieName, r.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

// handleUpdateEmail starts an address change: the account drops to
// unverified and a code goes to the new address. The address itself only
// switches once that code is verified.
func (r *Router) handleUpdateEmail(w http.ResponseWriter, req *http.Request) {
	session := sessionFromContext(req.Context())
	user := userFromContext(req.Context())

	if user.Registered2FA() && !session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	if !r.limits.resendEmail.Check(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	var body updateEmailRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeInvalidData(w)
		return
	}
	if err := service.ValidateEmail(body.Email); err != nil {
		writeInvalidData(w)
		return
	}

	if !r.limits.resendEmail.Consume(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	if err := r.Users.StartEmailChange(req.Context(), user.ID, body.Email); err != nil {
		writeServiceError(w, req, err)
		return
	}
	if _, err := r.Verifications.CreateRequest(req.Context(), user.ID, body.Email); err != nil {
		writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	session := sessionFromContext(req.Context())

	if err := r.Sessions.InvalidateSession(req.Context(), session.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	httpx.ClearCookie(w, sessionCookieName, r.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}

type updatePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

func (r *Router) handleUpdatePassword(w http.ResponseWriter, req *http.Request) {
	session := sessionFromContext(req.Context())
	user := userFromContext(req.Context())

	// A user with a second factor must have presented it this session.
	if user.Registered2FA() && !session.TwoFactorVerified {
		writeForbidden(w)
		return
	}

	if !r.limits.passwordChange.Check(session.ID, 1) {
		writeTooManyRequests(w)
		return
	}

	var body updatePasswordRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeInvalidData(w)
		return
	}
	if !cryptox.VerifyPasswordStrength(body.NewPassword) {
		httpx.WriteError(w, http.StatusBadRequest, msgWeakPassword)
		return
	}

	if !r.limits.passwordChange.Consume(session.ID, 1) {
		writeTooManyRequests(w)
		return
	}
	if err := cryptox.VerifyPassword(body.Password, user.PasswordHash); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, msgIncorrectPassword)
		return
	}
	r.limits.passwordChange.Reset(session.ID)

	if err := r.Users.UpdatePassword(req.Context(), user.ID, body.NewPassword); err != nil {
		writeServiceError(w, req, err)
		return
	}

	// Rotate every session: the change invalidates stolen cookies, and the
	// caller gets a fresh one carrying the same second-factor state.
	if err := r.Sessions.InvalidateUserSessions(req.Context(), user.ID); err != nil {
		writeServiceError(w, req, err)
		return
	}
	fresh, token, err := r.Sessions.CreateSession(req.Context(), user.ID, session.TwoFactorVerified)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	r.setSessionCookie(w, token, fresh.ExpiresAt)
	w.WriteHeader(http.StatusNoContent)
}
