package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/pkg/cryptox"
	"github.com/tanglebay/doorman/pkg/idx"
)

const (
	recoveryCodeCount = 8
	recoveryCodeBytes = cryptox.TokenSize128
)

var (
	ErrInvalidTOTPCode     = errors.New("invalid TOTP code")
	ErrTOTPNotEnrolled     = errors.New("TOTP not enrolled for this user")
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
)

// TwoFactorService covers the authenticator-app factor and the recovery
// codes that back all second factors.
type TwoFactorService struct {
	Store store.Store
}

// SetupTOTP enrols (or replaces) the user's authenticator-app secret. The
// caller supplies the base32 secret it showed the user and the code the user
// produced from it, proving the enrolment worked end to end.
func (s *TwoFactorService) SetupTOTP(ctx context.Context, userID idx.ID, secret, code string) error {
	if !totp.Validate(code, secret) {
		return ErrInvalidTOTPCode
	}

	cred := domain.TOTPCredential{
		UserID:    userID,
		Secret:    secret,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.TOTPCredentials().UpsertTOTPCredential(ctx, cred); err != nil {
		return fmt.Errorf("failed to store TOTP credential: %w", err)
	}
	return nil
}

// VerifyTOTP checks a code against the user's enrolled secret.
func (s *TwoFactorService) VerifyTOTP(ctx context.Context, userID idx.ID, code string) error {
	cred, err := s.Store.TOTPCredentials().GetTOTPCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTOTPNotEnrolled
		}
		return fmt.Errorf("failed to load TOTP credential: %w", err)
	}
	if !totp.Validate(code, cred.Secret) {
		return ErrInvalidTOTPCode
	}
	return nil
}

// GenerateRecoveryCodes mints a fresh set of single-use codes for the user,
// replacing any existing set, and returns the raw codes for one-time display.
func (s *TwoFactorService) GenerateRecoveryCodes(ctx context.Context, userID idx.ID) ([]string, error) {
	raw := make([]string, recoveryCodeCount)
	codes := make([]domain.RecoveryCode, recoveryCodeCount)
	now := time.Now().UTC()
	for i := range raw {
		code, err := cryptox.GenerateToken(recoveryCodeBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate recovery code: %w", err)
		}
		raw[i] = code
		codes[i] = domain.RecoveryCode{
			ID:        idx.New(),
			UserID:    userID,
			CodeHash:  cryptox.FingerprintToken(code),
			CreatedAt: now,
		}
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.RecoveryCodes().ReplaceRecoveryCodes(ctx, userID, codes)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store recovery codes: %w", err)
	}
	return raw, nil
}

// EnsureRecoveryCodes generates a set only if the user has none yet. Returns
// the new raw codes, or nil when codes already exist.
func (s *TwoFactorService) EnsureRecoveryCodes(ctx context.Context, userID idx.ID) ([]string, error) {
	existing, err := s.Store.RecoveryCodes().ListRecoveryCodes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recovery codes: %w", err)
	}
	if len(existing) > 0 {
		return nil, nil
	}
	return s.GenerateRecoveryCodes(ctx, userID)
}

// ResetWithRecoveryCode burns a recovery code and tears the user's second
// factors down: TOTP and WebAuthn credentials are deleted and every login
// session is demoted to first-factor only. The remaining codes stay valid.
func (s *TwoFactorService) ResetWithRecoveryCode(ctx context.Context, userID idx.ID, code string) error {
	fingerprint := cryptox.FingerprintToken(code)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		codes, err := tx.RecoveryCodes().ListRecoveryCodes(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list recovery codes: %w", err)
		}

		var matched *domain.RecoveryCode
		for i := range codes {
			if cryptox.ConstantTimeEquals(codes[i].CodeHash, fingerprint) {
				matched = &codes[i]
				break
			}
		}
		if matched == nil {
			return ErrInvalidRecoveryCode
		}

		if err := tx.RecoveryCodes().DeleteRecoveryCode(ctx, matched.ID); err != nil {
			return fmt.Errorf("failed to burn recovery code: %w", err)
		}
		if err := tx.TOTPCredentials().DeleteTOTPCredential(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete TOTP credential: %w", err)
		}
		if err := tx.Credentials().DeleteUserCredentials(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete WebAuthn credentials: %w", err)
		}
		if err := tx.Sessions().MarkUserSessionsTwoFactorUnverified(ctx, userID); err != nil {
			return fmt.Errorf("failed to demote sessions: %w", err)
		}
		return nil
	})
}
