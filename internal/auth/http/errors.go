package http

import (
	"errors"
	"net/http"

	"github.com/tanglebay/doorman/internal/auth/service"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/pkg/httpx"
	"github.com/tanglebay/doorman/pkg/slogx"
	"github.com/tanglebay/doorman/pkg/webauthn"
)

// Response bodies deliberately stay terse. Structural failures collapse into
// the same "invalid data" answer; only a handful of conditions the client can
// act on (wrong password, bad signature, unknown credential) get their own
// message.
const (
	msgInvalidData          = "Invalid data"
	msgTooManyRequests      = "Too many requests"
	msgNotAuthenticated     = "Not authenticated"
	msgForbidden            = "Forbidden"
	msgNotFound             = "Not found"
	msgAccountDoesNotExist  = "Account does not exist"
	msgIncorrectPassword    = "Incorrect password"
	msgIncorrectCode        = "Incorrect code"
	msgWeakPassword         = "Weak password"
	msgEmailTaken           = "Email is already used"
	msgUnsupportedAlgorithm = "Unsupported algorithm"
	msgTooManyCredentials   = "Too many credentials"
	msgInvalidSignature     = "Invalid signature"
	msgInvalidCredential    = "Invalid credential"
	msgInternal             = "Internal error"
)

func writeInvalidData(w http.ResponseWriter)      { httpx.WriteError(w, http.StatusBadRequest, msgInvalidData) }
func writeTooManyRequests(w http.ResponseWriter)  { httpx.WriteError(w, http.StatusTooManyRequests, msgTooManyRequests) }
func writeNotAuthenticated(w http.ResponseWriter) { httpx.WriteError(w, http.StatusUnauthorized, msgNotAuthenticated) }
func writeForbidden(w http.ResponseWriter)        { httpx.WriteError(w, http.StatusForbidden, msgForbidden) }
func writeNotFound(w http.ResponseWriter)         { httpx.WriteError(w, http.StatusNotFound, msgNotFound) }

// writeServiceError maps known service failures onto the status taxonomy and
// logs everything else as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, webauthn.ErrUnsupportedAlgorithm):
		httpx.WriteError(w, http.StatusBadRequest, msgUnsupportedAlgorithm)
	case errors.Is(err, webauthn.ErrInvalidData):
		writeInvalidData(w)
	case errors.Is(err, service.ErrTooManyCredentials):
		httpx.WriteError(w, http.StatusBadRequest, msgTooManyCredentials)
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusBadRequest, msgEmailTaken)
	case errors.Is(err, service.ErrIncorrectCode),
		errors.Is(err, service.ErrInvalidTOTPCode),
		errors.Is(err, service.ErrInvalidRecoveryCode):
		httpx.WriteError(w, http.StatusBadRequest, msgIncorrectCode)
	case errors.Is(err, service.ErrInvalidSignature):
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidSignature)
	case errors.Is(err, service.ErrInvalidCredential):
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidCredential)
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrTOTPNotEnrolled),
		errors.Is(err, service.ErrNoVerificationRequest),
		errors.Is(err, service.ErrCodeExpired):
		writeInvalidData(w)
	case errors.Is(err, store.ErrNotFound):
		writeNotFound(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
	}
}
