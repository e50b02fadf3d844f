package sqlite

import (
	"context"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/idx"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, two_factor_verified, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UserID.String(), s.TwoFactorVerified, s.CreatedAt, s.ExpiresAt)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, two_factor_verified, created_at, expires_at
		 FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &userID, &s.TwoFactorVerified, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.UserID = idx.ID(userID)
	return s, nil
}

func (r *sessionsRepo) UpdateSessionExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE id = ?`, expiresAt, id)
	return err
}

func (r *sessionsRepo) SetSessionTwoFactorVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET two_factor_verified = 1 WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID idx.ID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID.String())
	return err
}

func (r *sessionsRepo) MarkUserSessionsTwoFactorUnverified(ctx context.Context, userID idx.ID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET two_factor_verified = 0 WHERE user_id = ?`, userID.String())
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	return err
}
