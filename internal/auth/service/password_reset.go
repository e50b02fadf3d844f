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
	// resetSessionTTL keeps reset sessions short lived; there is no renewal.
	resetSessionTTL = 10 * time.Minute

	verificationCodeDigits = 8
)

var (
	ErrInvalidResetSession = errors.New("invalid password reset session")
	ErrIncorrectCode       = errors.New("incorrect code")
)

// PasswordResetService drives the forgot-password flow. A reset session has
// its own token, its own emailed code, and its own verification flags, so
// none of the login session state leaks into it.
type PasswordResetService struct {
	Store  store.Store
	Mailer Mailer

	Now func() time.Time
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateResetSession starts a reset for the user, invalidating any prior
// attempt, and emails the verification code. The raw token is returned for
// cookie transport.
func (s *PasswordResetService) CreateResetSession(ctx context.Context, user domain.User) (domain.PasswordResetSession, string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize200)
	if err != nil {
		return domain.PasswordResetSession{}, "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	code, err := cryptox.GenerateNumericCode(verificationCodeDigits)
	if err != nil {
		return domain.PasswordResetSession{}, "", fmt.Errorf("failed to generate reset code: %w", err)
	}

	now := s.now()
	session := domain.PasswordResetSession{
		ID:        cryptox.FingerprintToken(token),
		UserID:    user.ID,
		Email:     user.Email,
		CodeHash:  cryptox.FingerprintToken(code),
		CreatedAt: now,
		ExpiresAt: now.Add(resetSessionTTL),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PasswordResetSessions().DeleteUserPasswordResetSessions(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to invalidate prior reset sessions: %w", err)
		}
		if err := tx.PasswordResetSessions().CreatePasswordResetSession(ctx, session); err != nil {
			return fmt.Errorf("failed to store reset session: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.PasswordResetSession{}, "", err
	}

	s.Mailer.SendPasswordResetCode(ctx, user.Email, code)
	return session, token, nil
}

// ValidateResetToken resolves a raw reset token. Expired sessions are
// deleted and reported as invalid.
func (s *PasswordResetService) ValidateResetToken(ctx context.Context, token string) (domain.PasswordResetSession, domain.User, error) {
	id := cryptox.FingerprintToken(token)

	session, err := s.Store.PasswordResetSessions().GetPasswordResetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PasswordResetSession{}, domain.User{}, ErrInvalidResetSession
		}
		return domain.PasswordResetSession{}, domain.User{}, fmt.Errorf("failed to load reset session: %w", err)
	}

	if !s.now().Before(session.ExpiresAt) {
		_ = s.Store.PasswordResetSessions().DeletePasswordResetSession(ctx, id)
		return domain.PasswordResetSession{}, domain.User{}, ErrInvalidResetSession
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Store.PasswordResetSessions().DeletePasswordResetSession(ctx, id)
			return domain.PasswordResetSession{}, domain.User{}, ErrInvalidResetSession
		}
		return domain.PasswordResetSession{}, domain.User{}, fmt.Errorf("failed to load reset user: %w", err)
	}

	return session, user, nil
}

// VerifyEmailCode checks the emailed code against the session. Success marks
// both the reset session and the user's address as verified.
func (s *PasswordResetService) VerifyEmailCode(ctx context.Context, session domain.PasswordResetSession, code string) error {
	if !cryptox.ConstantTimeEquals(cryptox.FingerprintToken(code), session.CodeHash) {
		return ErrIncorrectCode
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PasswordResetSessions().SetPasswordResetSessionEmailVerified(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to mark reset session verified: %w", err)
		}
		if err := tx.Users().MarkEmailVerified(ctx, session.UserID, session.Email); err != nil {
			return fmt.Errorf("failed to mark user email verified: %w", err)
		}
		return nil
	})
}

// SetTwoFactorVerified records a successful second-factor proof on the reset
// session.
func (s *PasswordResetService) SetTwoFactorVerified(ctx context.Context, sessionID string) error {
	return s.Store.PasswordResetSessions().SetPasswordResetSessionTwoFactorVerified(ctx, sessionID)
}

// InvalidateUserResetSessions removes every reset session the user holds.
func (s *PasswordResetService) InvalidateUserResetSessions(ctx context.Context, userID idx.ID) error {
	return s.Store.PasswordResetSessions().DeleteUserPasswordResetSessions(ctx, userID)
}
