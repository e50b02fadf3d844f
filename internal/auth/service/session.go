package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/pkg/cryptox"
	"github.com/tanglebay/doorman/pkg/idx"
)

const (
	// sessionTTL is how long a session lives from its last renewal.
	sessionTTL = 30 * 24 * time.Hour
	// sessionRenewalWindow is the remaining lifetime under which validation
	// slides the expiry forward by a full TTL.
	sessionRenewalWindow = 15 * 24 * time.Hour
)

var ErrInvalidSession = errors.New("invalid session")

// SessionService issues and validates the opaque bearer sessions. Clients
// hold the raw token; the store only ever sees its fingerprint.
type SessionService struct {
	Store store.Store

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateSession mints a fresh session for the user and returns it together
// with the raw token to hand to the client.
func (s *SessionService) CreateSession(ctx context.Context, userID idx.ID, twoFactorVerified bool) (domain.Session, string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize200)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := domain.Session{
		ID:                cryptox.FingerprintToken(token),
		UserID:            userID,
		TwoFactorVerified: twoFactorVerified,
		CreatedAt:         now,
		ExpiresAt:         now.Add(sessionTTL),
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return domain.Session{}, "", fmt.Errorf("failed to store session: %w", err)
	}
	return session, token, nil
}

// ValidateSessionToken resolves a raw token to its session and owner. An
// expired session is deleted and reported as invalid. Sessions close to
// expiry are renewed in the same call.
func (s *SessionService) ValidateSessionToken(ctx context.Context, token string) (domain.Session, domain.User, error) {
	id := cryptox.FingerprintToken(token)

	session, err := s.Store.Sessions().GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, domain.User{}, ErrInvalidSession
		}
		return domain.Session{}, domain.User{}, fmt.Errorf("failed to load session: %w", err)
	}

	now := s.now()
	if !now.Before(session.ExpiresAt) {
		_ = s.Store.Sessions().DeleteSession(ctx, id)
		return domain.Session{}, domain.User{}, ErrInvalidSession
	}

	if session.ExpiresAt.Sub(now) < sessionRenewalWindow {
		session.ExpiresAt = now.Add(sessionTTL)
		if err := s.Store.Sessions().UpdateSessionExpiry(ctx, id, session.ExpiresAt); err != nil {
			return domain.Session{}, domain.User{}, fmt.Errorf("failed to renew session: %w", err)
		}
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Store.Sessions().DeleteSession(ctx, id)
			return domain.Session{}, domain.User{}, ErrInvalidSession
		}
		return domain.Session{}, domain.User{}, fmt.Errorf("failed to load session user: %w", err)
	}

	return session, user, nil
}

// SetSessionAs2FAVerified flips the session's second-factor flag on. The flag
// never goes back by itself; only a full 2FA reset demotes sessions.
func (s *SessionService) SetSessionAs2FAVerified(ctx context.Context, sessionID string) error {
	return s.Store.Sessions().SetSessionTwoFactorVerified(ctx, sessionID)
}

// InvalidateSession removes a single session.
func (s *SessionService) InvalidateSession(ctx context.Context, sessionID string) error {
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}

// InvalidateUserSessions removes every session the user holds.
func (s *SessionService) InvalidateUserSessions(ctx context.Context, userID idx.ID) error {
	return s.Store.Sessions().DeleteUserSessions(ctx, userID)
}
