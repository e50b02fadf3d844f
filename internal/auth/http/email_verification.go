package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tanglebay/doorman/internal/auth/service"
	"github.com/tanglebay/doorman/pkg/httpx"
)

const msgCodeExpired = "Code expired, a new code was sent"

func (r *Router) handleResendVerification(w http.ResponseWriter, req *http.Request) {
	user := userFromContext(req.Context())

	if user.EmailVerified {
		writeForbidden(w)
		return
	}
	if !r.limits.resendEmail.Consume(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	if _, err := r.Verifications.CreateRequest(req.Context(), user.ID, user.Email); err != nil {
		writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

func (r *Router) handleVerifyEmail(w http.ResponseWriter, req *http.Request) {
	user := userFromContext(req.Context())

	if !r.limits.emailVerify.Check(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	var body verifyEmailRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Code == "" {
		writeInvalidData(w)
		return
	}

	if !r.limits.emailVerify.Consume(user.ID.String(), 1) {
		writeTooManyRequests(w)
		return
	}

	err := r.Verifications.Verify(req.Context(), user.ID, body.Code)
	switch {
	case err == nil:
		r.limits.emailVerify.Reset(user.ID.String())
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrCodeExpired):
		httpx.WriteError(w, http.StatusBadRequest, msgCodeExpired)
	case errors.Is(err, service.ErrIncorrectCode):
		httpx.WriteError(w, http.StatusBadRequest, msgIncorrectCode)
	default:
		writeServiceError(w, req, err)
	}
}
