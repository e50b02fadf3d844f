package sqlite

import (
	"context"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/internal/auth/store"
	"github.com/tanglebay/doorman/pkg/idx"
)

type credentialsRepo struct {
	db dbtx
}

func (r *credentialsRepo) CreateCredential(ctx context.Context, c domain.WebAuthnCredential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webauthn_credentials (id, user_id, kind, name, algorithm, public_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID.String(), string(c.Kind), c.Name, c.Algorithm, c.PublicKey, c.CreatedAt)
	return mapConstraint(err)
}

func (r *credentialsRepo) GetUserCredential(ctx context.Context, userID idx.ID, id []byte) (domain.WebAuthnCredential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, kind, name, algorithm, public_key, created_at
		 FROM webauthn_credentials WHERE user_id = ? AND id = ?`,
		userID.String(), id)
	return scanCredential(row)
}

func (r *credentialsRepo) ListUserCredentials(ctx context.Context, userID idx.ID, kind domain.CredentialKind) ([]domain.WebAuthnCredential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, name, algorithm, public_key, created_at
		 FROM webauthn_credentials WHERE user_id = ? AND kind = ?
		 ORDER BY created_at`,
		userID.String(), string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WebAuthnCredential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *credentialsRepo) CountUserCredentials(ctx context.Context, userID idx.ID, kind domain.CredentialKind) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM webauthn_credentials WHERE user_id = ? AND kind = ?`,
		userID.String(), string(kind)).Scan(&count)
	return count, err
}

func (r *credentialsRepo) DeleteUserCredential(ctx context.Context, userID idx.ID, id []byte) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM webauthn_credentials WHERE user_id = ? AND id = ?`,
		userID.String(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *credentialsRepo) DeleteUserCredentials(ctx context.Context, userID idx.ID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM webauthn_credentials WHERE user_id = ?`, userID.String())
	return err
}

func scanCredential(row interface{ Scan(dest ...any) error }) (domain.WebAuthnCredential, error) {
	var c domain.WebAuthnCredential
	var userID, kind string
	err := row.Scan(&c.ID, &userID, &kind, &c.Name, &c.Algorithm, &c.PublicKey, &c.CreatedAt)
	if err != nil {
		return domain.WebAuthnCredential{}, mapNotFound(err)
	}
	c.UserID = idx.ID(userID)
	c.Kind = domain.CredentialKind(kind)
	return c, nil
}
