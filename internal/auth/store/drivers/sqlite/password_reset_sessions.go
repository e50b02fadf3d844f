package sqlite

import (
	"context"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/idx"
)

type resetSessionsRepo struct {
	db dbtx
}

func (r *resetSessionsRepo) CreatePasswordResetSession(ctx context.Context, s domain.PasswordResetSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_sessions
		 (id, user_id, email, code_hash, email_verified, two_factor_verified, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID.String(), s.Email, s.CodeHash,
		s.EmailVerified, s.TwoFactorVerified, s.CreatedAt, s.ExpiresAt)
	return mapConstraint(err)
}

func (r *resetSessionsRepo) GetPasswordResetSession(ctx context.Context, id string) (domain.PasswordResetSession, error) {
	var s domain.PasswordResetSession
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, code_hash, email_verified, two_factor_verified, created_at, expires_at
		 FROM password_reset_sessions WHERE id = ?`, id).
		Scan(&s.ID, &userID, &s.Email, &s.CodeHash,
			&s.EmailVerified, &s.TwoFactorVerified, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return domain.PasswordResetSession{}, mapNotFound(err)
	}
	s.UserID = idx.ID(userID)
	return s, nil
}

func (r *resetSessionsRepo) SetPasswordResetSessionEmailVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_sessions SET email_verified = 1 WHERE id = ?`, id)
	return err
}

func (r *resetSessionsRepo) SetPasswordResetSessionTwoFactorVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_sessions SET two_factor_verified = 1 WHERE id = ?`, id)
	return err
}

func (r *resetSessionsRepo) DeletePasswordResetSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_sessions WHERE id = ?`, id)
	return err
}

func (r *resetSessionsRepo) DeleteUserPasswordResetSessions(ctx context.Context, userID idx.ID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_sessions WHERE user_id = ?`, userID.String())
	return err
}

func (r *resetSessionsRepo) DeleteExpiredPasswordResetSessions(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_sessions WHERE expires_at <= ?`, now)
	return err
}
