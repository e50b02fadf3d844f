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

const emailVerificationTTL = 10 * time.Minute

var (
	ErrNoVerificationRequest = errors.New("no email verification request")
	ErrCodeExpired           = errors.New("verification code expired")
)

// EmailVerificationService manages the email ownership proofs sent at signup
// and after address changes.
type EmailVerificationService struct {
	Store  store.Store
	Mailer Mailer

	Now func() time.Time
}

func (s *EmailVerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateRequest replaces any pending request for the user with a fresh code
// and emails it.
func (s *EmailVerificationService) CreateRequest(ctx context.Context, userID idx.ID, email string) (domain.EmailVerificationRequest, error) {
	code, err := cryptox.GenerateNumericCode(verificationCodeDigits)
	if err != nil {
		return domain.EmailVerificationRequest{}, fmt.Errorf("failed to generate verification code: %w", err)
	}

	now := s.now()
	req := domain.EmailVerificationRequest{
		ID:        idx.New(),
		UserID:    userID,
		Email:     email,
		CodeHash:  cryptox.FingerprintToken(code),
		CreatedAt: now,
		ExpiresAt: now.Add(emailVerificationTTL),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.EmailVerifications().DeleteUserEmailVerificationRequests(ctx, userID); err != nil {
			return fmt.Errorf("failed to drop prior verification requests: %w", err)
		}
		if err := tx.EmailVerifications().CreateEmailVerificationRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to store verification request: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.EmailVerificationRequest{}, err
	}

	s.Mailer.SendVerificationCode(ctx, email, code)
	return req, nil
}

// Verify checks the submitted code against the user's pending request.
// On success the request is consumed and the user's address marked verified.
// An expired request is replaced with a fresh code (and ErrCodeExpired is
// returned so the caller can tell the user a new code is on the way).
func (s *EmailVerificationService) Verify(ctx context.Context, userID idx.ID, code string) error {
	req, err := s.Store.EmailVerifications().GetUserEmailVerificationRequest(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoVerificationRequest
		}
		return fmt.Errorf("failed to load verification request: %w", err)
	}

	if !s.now().Before(req.ExpiresAt) {
		if _, err := s.CreateRequest(ctx, userID, req.Email); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	if !cryptox.ConstantTimeEquals(cryptox.FingerprintToken(code), req.CodeHash) {
		return ErrIncorrectCode
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.EmailVerifications().DeleteUserEmailVerificationRequests(ctx, userID); err != nil {
			return fmt.Errorf("failed to consume verification request: %w", err)
		}
		if err := tx.Users().MarkEmailVerified(ctx, userID, req.Email); err != nil {
			return fmt.Errorf("failed to mark email verified: %w", err)
		}
		return nil
	})
}
