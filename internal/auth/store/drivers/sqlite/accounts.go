package sqlite

import (
	"context"
	"database/sql"

	"github.com/filefortress/fortress/internal/auth/domain"
)

type accountsRepo struct {
	db dbtx
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, first_name, last_name, role, active, password_hash, mfa_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.FirstName, a.LastName, a.Role, boolToInt(a.Active),
		a.PasswordHash, a.MFASecret, fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, role, active, password_hash, mfa_secret, created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, role, active, password_hash, mfa_secret, created_at, updated_at
		FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = ?)`, email,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (r *accountsRepo) SetActive(ctx context.Context, accountID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), fmtTime(nowUTC()), accountID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a                    domain.Account
		active               int
		createdAt, updatedAt string
	)
	err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Role, &active,
		&a.PasswordHash, &a.MFASecret, &createdAt, &updatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.Active = active == 1
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Account{}, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}
