package sqlite

import (
	"context"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/idx"
)

type totpRepo struct {
	db dbtx
}

func (r *totpRepo) UpsertTOTPCredential(ctx context.Context, c domain.TOTPCredential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO totp_credentials (user_id, secret, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET secret = excluded.secret, created_at = excluded.created_at`,
		c.UserID.String(), c.Secret, c.CreatedAt)
	return err
}

func (r *totpRepo) GetTOTPCredential(ctx context.Context, userID idx.ID) (domain.TOTPCredential, error) {
	var c domain.TOTPCredential
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, secret, created_at FROM totp_credentials WHERE user_id = ?`,
		userID.String()).
		Scan(&id, &c.Secret, &c.CreatedAt)
	if err != nil {
		return domain.TOTPCredential{}, mapNotFound(err)
	}
	c.UserID = idx.ID(id)
	return c, nil
}

func (r *totpRepo) DeleteTOTPCredential(ctx context.Context, userID idx.ID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM totp_credentials WHERE user_id = ?`, userID.String())
	return err
}
