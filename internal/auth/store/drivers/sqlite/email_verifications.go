package sqlite

import (
	"context"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/idx"
)

type emailVerificationsRepo struct {
	db dbtx
}

func (r *emailVerificationsRepo) CreateEmailVerificationRequest(ctx context.Context, req domain.EmailVerificationRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_verification_requests (id, user_id, email, code_hash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID.String(), req.UserID.String(), req.Email, req.CodeHash, req.CreatedAt, req.ExpiresAt)
	return mapConstraint(err)
}

func (r *emailVerificationsRepo) GetUserEmailVerificationRequest(ctx context.Context, userID idx.ID) (domain.EmailVerificationRequest, error) {
	var req domain.EmailVerificationRequest
	var id, uid string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, code_hash, created_at, expires_at
		 FROM email_verification_requests WHERE user_id = ?`, userID.String()).
		Scan(&id, &uid, &req.Email, &req.CodeHash, &req.CreatedAt, &req.ExpiresAt)
	if err != nil {
		return domain.EmailVerificationRequest{}, mapNotFound(err)
	}
	req.ID = idx.ID(id)
	req.UserID = idx.ID(uid)
	return req, nil
}

func (r *emailVerificationsRepo) DeleteUserEmailVerificationRequests(ctx context.Context, userID idx.ID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verification_requests WHERE user_id = ?`, userID.String())
	return err
}

func (r *emailVerificationsRepo) DeleteExpiredEmailVerificationRequests(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verification_requests WHERE expires_at <= ?`, now)
	return err
}
