package http

import (
	"context"
	"net/http"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/httpx"
)

const (
	sessionCookieName = "session"
	resetCookieName   = "password_reset_session"
)

// globalRateLimit applies the site-wide token bucket per client address.
// Reads cost 1 token, mutations cost 3.
func (r *Router) globalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		cost := 3
		if req.Method == http.MethodGet || req.Method == http.MethodHead {
			cost = 1
		}
		if !r.limits.global.Consume(httpx.ClientIP(req), cost) {
			writeTooManyRequests(w)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// withSession resolves the session cookie and requires it to be valid. The
// session and its user land in the request context.
func (r *Router) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		token := httpx.ReadCookie(req, sessionCookieName)
		if token == "" {
			writeNotAuthenticated(w)
			return
		}

		session, user, err := r.Sessions.ValidateSessionToken(req.Context(), token)
		if err != nil {
			httpx.ClearCookie(w, sessionCookieName, r.SecureCookies)
			writeNotAuthenticated(w)
			return
		}

		ctx := context.WithValue(req.Context(), httpx.CtxKeySession, session)
		ctx = context.WithValue(ctx, httpx.CtxKeyUser, user)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) domain.Session {
	s, _ := ctx.Value(httpx.CtxKeySession).(domain.Session)
	return s
}

func userFromContext(ctx context.Context) domain.User {
	u, _ := ctx.Value(httpx.CtxKeyUser).(domain.User)
	return u
}

func (r *Router) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	httpx.SetCookie(w, sessionCookieName, token, time.Until(expiresAt), r.SecureCookies)
}

func (r *Router) setResetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	httpx.SetCookie(w, resetCookieName, token, time.Until(expiresAt), r.SecureCookies)
}
