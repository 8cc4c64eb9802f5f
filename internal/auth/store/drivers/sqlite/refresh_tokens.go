package sqlite

import (
	"context"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, account_id, token_hash, revoked, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.TokenHash, boolToInt(t.Revoked),
		fmtTime(t.ExpiresAt), fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, token_hash, revoked, expires_at, created_at, updated_at
		FROM refresh_tokens WHERE token_hash = ?`, hash)

	var (
		t                               domain.RefreshToken
		revoked                         int
		expiresAt, createdAt, updatedAt string
	)
	err := row.Scan(&t.ID, &t.AccountID, &t.TokenHash, &revoked, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.Revoked = revoked == 1
	if t.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return domain.RefreshToken{}, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.RefreshToken{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.RefreshToken{}, err
	}
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1, updated_at = ? WHERE id = ?`,
		fmtTime(nowUTC()), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *refreshTokensRepo) RevokeRefreshTokensForAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1, updated_at = ?
		WHERE account_id = ? AND revoked = 0`,
		fmtTime(nowUTC()), accountID)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ? OR revoked = 1`, fmtTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
