package store

import (
	"context"
	"errors"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable, and a
// transactional escape hatch for the multi-step operations that must be
// atomic (promoting a pending registration, rotating a refresh token).
type Store interface {
	Accounts() Accounts
	PendingRegistrations() PendingRegistrations
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a new account (id is provided by app via ULID).
	// A duplicate email maps to ErrAlreadyExists.
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail is used during the password step of login. Email
	// matching is case-insensitive.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// EmailExists reports whether an account already holds the email.
	EmailExists(ctx context.Context, email string) (bool, error)

	// SetActive toggles whether the account may authenticate.
	SetActive(ctx context.Context, accountID string, active bool) error
}

type PendingRegistrations interface {
	// UpsertPendingRegistration writes the provisional record for a session
	// key, replacing any earlier record under the same key (last writer wins).
	UpsertPendingRegistration(ctx context.Context, p domain.PendingRegistration) error

	// GetPendingRegistration returns the record for the session key if it has
	// not lapsed as of now. Lapsed or absent records map to ErrNotFound.
	GetPendingRegistration(ctx context.Context, sessionKey string, now time.Time) (domain.PendingRegistration, error)

	// DeletePendingRegistration removes the record for the session key.
	DeletePendingRegistration(ctx context.Context, sessionKey string) error

	// DeleteExpiredPendingRegistrations sweeps lapsed records and returns
	// how many were removed.
	DeleteExpiredPendingRegistrations(ctx context.Context, now time.Time) (int64, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its SHA-256 fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken marks a single token revoked.
	RevokeRefreshToken(ctx context.Context, id string) error

	// RevokeRefreshTokensForAccount revokes every live token for an account.
	RevokeRefreshTokensForAccount(ctx context.Context, accountID string) error

	// DeleteExpiredRefreshTokens sweeps expired and revoked tokens and
	// returns how many were removed.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
