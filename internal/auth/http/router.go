package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tanglebay/doorman/internal/auth/service"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/pkg/httpx"
	"github.com/tanglebay/doorman/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// SecureCookies should be false only for local development over HTTP.
	SecureCookies bool

	store    store.Store
	limits   *rateLimits
	Sessions *service.SessionService
	Users    *service.UserService
	Resets   *service.PasswordResetService

	Verifications *service.EmailVerificationService
	TwoFactor     *service.TwoFactorService
	WebAuthn      *service.WebAuthnService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	secureCookies bool,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		logger:        logger,
		SecureCookies: secureCookies,
		store:         st,
		limits:        newRateLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.globalRateLimit,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerEmailVerification()
	r.registerPasswordReset()
	r.registerWebAuthn()
	r.registerTwoFactor()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// SweepLimiters drops idle rate limiter keys and expired WebAuthn
// challenges. Wired into the housekeeping service.
func (r *Router) SweepLimiters() {
	r.limits.sweep()
	r.WebAuthn.Challenges.Sweep(10 * time.Minute)
}

func (r *Router) registerAuth() {
	r.Mux.HandleFunc("POST /v1/signup", r.handleSignup)
	r.Mux.HandleFunc("POST /v1/login", r.handleLogin)
	r.Mux.Handle("DELETE /v1/session", r.withSession(r.handleLogout))
	r.Mux.Handle("GET /v1/user", r.withSession(r.handleGetUser))
	r.Mux.Handle("DELETE /v1/user", r.withSession(r.handleDeleteUser))
	r.Mux.Handle("PATCH /v1/user/password", r.withSession(r.handleUpdatePassword))
	r.Mux.Handle("PATCH /v1/user/email", r.withSession(r.handleUpdateEmail))
}

func (r *Router) registerEmailVerification() {
	r.Mux.Handle("POST /v1/email-verification/resend", r.withSession(r.handleResendVerification))
	r.Mux.Handle("POST /v1/email-verification/verify", r.withSession(r.handleVerifyEmail))
}

func (r *Router) registerPasswordReset() {
	r.Mux.HandleFunc("POST /v1/password-reset/session", r.handleResetRequest)
	r.Mux.HandleFunc("POST /v1/password-reset/verify-email", r.handleResetVerifyEmail)
	r.Mux.HandleFunc("POST /v1/password-reset/2fa/totp", r.handleResetVerifyTOTP)
	r.Mux.HandleFunc("POST /v1/password-reset/password", r.handleResetPassword)
}

func (r *Router) registerWebAuthn() {
	r.Mux.HandleFunc("POST /v1/webauthn/challenge", r.handleWebAuthnChallenge)

	r.Mux.Handle("POST /v1/user/passkey/credential", r.withSession(r.handleRegisterPasskey))
	r.Mux.Handle("GET /v1/user/passkey/credentials", r.withSession(r.handleListPasskeys))
	r.Mux.Handle("DELETE /v1/user/passkey/credentials/{id}", r.withSession(r.handleDeletePasskey))
	r.Mux.Handle("POST /v1/user/security-key/credential", r.withSession(r.handleRegisterSecurityKey))
	r.Mux.Handle("GET /v1/user/security-key/credentials", r.withSession(r.handleListSecurityKeys))
	r.Mux.Handle("DELETE /v1/user/security-key/credentials/{id}", r.withSession(r.handleDeleteSecurityKey))

	r.Mux.Handle("POST /v1/2fa/passkey", r.withSession(r.handlePasskey2FA))
	r.Mux.Handle("POST /v1/2fa/security-key", r.withSession(r.handleSecurityKey2FA))
}

func (r *Router) registerTwoFactor() {
	r.Mux.Handle("POST /v1/user/totp", r.withSession(r.handleTOTPSetup))
	r.Mux.Handle("POST /v1/2fa/totp", r.withSession(r.handleTOTP2FA))
	r.Mux.Handle("POST /v1/user/reset-2fa", r.withSession(r.handleReset2FA))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /v1/livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /v1/readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
