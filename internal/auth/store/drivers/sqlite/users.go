package sqlite

import (
	"context"
	"time"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/idx"
)

type usersRepo struct {
	db dbtx
}

// userColumns selects the user row plus its derived second-factor flags so a
// single read answers "what has this user enrolled".
const userColumns = `
	u.id, u.email, u.username, u.password_hash, u.email_verified,
	u.created_at, u.updated_at,
	EXISTS (SELECT 1 FROM totp_credentials t WHERE t.user_id = u.id),
	EXISTS (SELECT 1 FROM webauthn_credentials w WHERE w.user_id = u.id AND w.kind = 'passkey'),
	EXISTS (SELECT 1 FROM webauthn_credentials w WHERE w.user_id = u.id AND w.kind = 'security_key')`

func scanUser(row interface{ Scan(dest ...any) error }) (domain.User, error) {
	var u domain.User
	var id string
	err := row.Scan(
		&id, &u.Email, &u.Username, &u.PasswordHash, &u.EmailVerified,
		&u.CreatedAt, &u.UpdatedAt,
		&u.RegisteredTOTP, &u.RegisteredPasskey, &u.RegisteredSecurityKey,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.ID = idx.ID(id)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id idx.ID) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id.String())
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.email = ? COLLATE NOCASE`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, email_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.Username, u.PasswordHash, u.EmailVerified,
		u.CreatedAt, u.UpdatedAt)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID idx.ID, newHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID.String())
	return err
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID idx.ID, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, email_verified = 1, updated_at = ? WHERE id = ?`,
		email, time.Now().UTC(), userID.String())
	return err
}

func (r *usersRepo) SetEmailUnverified(ctx context.Context, userID idx.ID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID.String())
	return err
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID idx.ID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID.String())
	return err
}
