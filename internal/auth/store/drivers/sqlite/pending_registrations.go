package sqlite

import (
	"context"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
)

type pendingRegistrationsRepo struct {
	db dbtx
}

func (r *pendingRegistrationsRepo) UpsertPendingRegistration(ctx context.Context, p domain.PendingRegistration) error {
	// ON CONFLICT gives last-writer-wins under the same session key, so an
	// applicant who restarts enrollment simply replaces their earlier record.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_registrations (session_key, email, first_name, last_name, role, password_hash, mfa_secret, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_key) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			role = excluded.role,
			password_hash = excluded.password_hash,
			mfa_secret = excluded.mfa_secret,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		p.SessionKey, p.Email, p.FirstName, p.LastName, p.Role,
		p.PasswordHash, p.MFASecret, fmtTime(p.CreatedAt), fmtTime(p.ExpiresAt),
	)
	return err
}

func (r *pendingRegistrationsRepo) GetPendingRegistration(ctx context.Context, sessionKey string, now time.Time) (domain.PendingRegistration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_key, email, first_name, last_name, role, password_hash, mfa_secret, created_at, expires_at
		FROM pending_registrations
		WHERE session_key = ? AND expires_at > ?`,
		sessionKey, fmtTime(now))

	var (
		p                    domain.PendingRegistration
		createdAt, expiresAt string
	)
	err := row.Scan(&p.SessionKey, &p.Email, &p.FirstName, &p.LastName, &p.Role,
		&p.PasswordHash, &p.MFASecret, &createdAt, &expiresAt)
	if err != nil {
		return domain.PendingRegistration{}, mapNotFound(err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.PendingRegistration{}, err
	}
	if p.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return domain.PendingRegistration{}, err
	}
	return p, nil
}

func (r *pendingRegistrationsRepo) DeletePendingRegistration(ctx context.Context, sessionKey string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_registrations WHERE session_key = ?`, sessionKey)
	return err
}

func (r *pendingRegistrationsRepo) DeleteExpiredPendingRegistrations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_registrations WHERE expires_at <= ?`, fmtTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
