package sqlite

import (
	"context"

	"github.com/tanglebay/doorman/internal/auth/domain"
	"github.com/tanglebay/doorman/pkg/idx"
)

type recoveryCodesRepo struct {
	db dbtx
}

// ReplaceRecoveryCodes swaps the user's code set in place. Callers that need
// atomicity run it inside store.WithTx.
func (r *recoveryCodesRepo) ReplaceRecoveryCodes(ctx context.Context, userID idx.ID, codes []domain.RecoveryCode) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM recovery_codes WHERE user_id = ?`, userID.String()); err != nil {
		return err
	}
	for _, c := range codes {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO recovery_codes (id, user_id, code_hash, created_at) VALUES (?, ?, ?, ?)`,
			c.ID.String(), c.UserID.String(), c.CodeHash, c.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *recoveryCodesRepo) ListRecoveryCodes(ctx context.Context, userID idx.ID) ([]domain.RecoveryCode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, code_hash, created_at FROM recovery_codes WHERE user_id = ?`,
		userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RecoveryCode
	for rows.Next() {
		var c domain.RecoveryCode
		var id, uid string
		if err := rows.Scan(&id, &uid, &c.CodeHash, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.ID = idx.ID(id)
		c.UserID = idx.ID(uid)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *recoveryCodesRepo) DeleteRecoveryCode(ctx context.Context, id idx.ID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recovery_codes WHERE id = ?`, id.String())
	return err
}
