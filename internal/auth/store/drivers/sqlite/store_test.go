package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
	"github.com/filefortress/fortress/internal/auth/store"
	"github.com/filefortress/fortress/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testAccount() domain.Account {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Account{
		ID:           idx.New().String(),
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Archer",
		Role:         domain.RoleUser,
		Active:       true,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		MFASecret:    "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAccountsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testAccount()
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))

	got, err := s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Email, got.Email)
	require.Equal(t, a.MFASecret, got.MFASecret)
	require.True(t, got.Active)

	byEmail, err := s.Accounts().GetAccountByEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err, "email lookup should be case-insensitive")
	require.Equal(t, a.ID, byEmail.ID)

	exists, err := s.Accounts().EmailExists(ctx, a.Email)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = s.Accounts().EmailExists(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestAccountsDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testAccount()
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))

	dup := testAccount()
	dup.ID = idx.New().String()
	dup.Email = "Alice@Example.com" // only differs in case
	err := s.Accounts().CreateAccount(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAccountsNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Accounts().GetAccountByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountsSetActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testAccount()
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))
	require.NoError(t, s.Accounts().SetActive(ctx, a.ID, false))

	got, err := s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	require.ErrorIs(t, s.Accounts().SetActive(ctx, "missing", false), store.ErrNotFound)
}

func testPending(key string, ttl time.Duration) domain.PendingRegistration {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.PendingRegistration{
		SessionKey:   key,
		Email:        "bob@example.com",
		FirstName:    "Bob",
		LastName:     "Builder",
		Role:         domain.RoleUser,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		MFASecret:    "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP",
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

func TestPendingRegistrationsUpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := testPending("sess-1", 10*time.Minute)
	require.NoError(t, s.PendingRegistrations().UpsertPendingRegistration(ctx, first))

	second := testPending("sess-1", 10*time.Minute)
	second.Email = "bob.two@example.com"
	second.MFASecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	require.NoError(t, s.PendingRegistrations().UpsertPendingRegistration(ctx, second))

	got, err := s.PendingRegistrations().GetPendingRegistration(ctx, "sess-1", now)
	require.NoError(t, err)
	require.Equal(t, "bob.two@example.com", got.Email)
	require.Equal(t, second.MFASecret, got.MFASecret)
}

func TestPendingRegistrationsConcurrentUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Each writer upserts a fully distinct record under the same session
	// key. Whichever write lands last must be the only row, with every
	// column from that one write.
	const writers = 16
	records := make([]domain.PendingRegistration, writers)
	for i := range records {
		p := testPending("sess-race", 10*time.Minute)
		p.Email = fmt.Sprintf("writer%02d@example.com", i)
		p.FirstName = fmt.Sprintf("Writer%02d", i)
		p.MFASecret = fmt.Sprintf("SECRETSECRETSECRETSECRETSECRET%02d", i)
		p.PasswordHash = fmt.Sprintf("$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA%02d", i)
		records[i] = p
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range records {
		wg.Add(1)
		go func(p domain.PendingRegistration) {
			defer wg.Done()
			errs <- s.PendingRegistrations().UpsertPendingRegistration(ctx, p)
		}(records[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.PendingRegistrations().GetPendingRegistration(ctx, "sess-race", now)
	require.NoError(t, err)

	var winner int
	n, err := fmt.Sscanf(got.Email, "writer%02d@example.com", &winner)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// No torn row: every field belongs to the winning write.
	require.Equal(t, records[winner].FirstName, got.FirstName)
	require.Equal(t, records[winner].MFASecret, got.MFASecret)
	require.Equal(t, records[winner].PasswordHash, got.PasswordHash)
}

func TestPendingRegistrationsExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	lapsed := testPending("sess-old", -time.Minute)
	require.NoError(t, s.PendingRegistrations().UpsertPendingRegistration(ctx, lapsed))

	_, err := s.PendingRegistrations().GetPendingRegistration(ctx, "sess-old", now)
	require.ErrorIs(t, err, store.ErrNotFound)

	live := testPending("sess-live", 10*time.Minute)
	require.NoError(t, s.PendingRegistrations().UpsertPendingRegistration(ctx, live))

	n, err := s.PendingRegistrations().DeleteExpiredPendingRegistrations(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.PendingRegistrations().GetPendingRegistration(ctx, "sess-live", now)
	require.NoError(t, err)
}

func TestPendingRegistrationsDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testPending("sess-del", 10*time.Minute)
	require.NoError(t, s.PendingRegistrations().UpsertPendingRegistration(ctx, p))
	require.NoError(t, s.PendingRegistrations().DeletePendingRegistration(ctx, "sess-del"))

	_, err := s.PendingRegistrations().GetPendingRegistration(ctx, "sess-del", time.Now().UTC())
	require.ErrorIs(t, err, store.ErrNotFound)

	// deleting an absent record is not an error
	require.NoError(t, s.PendingRegistrations().DeletePendingRegistration(ctx, "sess-del"))
}

func TestRefreshTokensLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	a := testAccount()
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		AccountID: a.ID,
		TokenHash: "hash-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.AccountID)
	require.True(t, got.Usable(now))

	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, rt.ID))
	got, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.True(t, got.Revoked)

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n, "revoked tokens are swept")
}

func TestRefreshTokensRevokeForAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	a := testAccount()
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))

	for _, h := range []string{"h1", "h2"} {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.New().String(),
			AccountID: a.ID,
			TokenHash: h,
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}

	require.NoError(t, s.RefreshTokens().RevokeRefreshTokensForAccount(ctx, a.ID))

	for _, h := range []string{"h1", "h2"} {
		got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, h)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testAccount()
	errBoom := store.ErrAlreadyExists

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, a); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testAccount()
	p := testPending("sess-promote", 10*time.Minute)
	require.NoError(t, s.PendingRegistrations().UpsertPendingRegistration(ctx, p))

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, a); err != nil {
			return err
		}
		return tx.PendingRegistrations().DeletePendingRegistration(ctx, p.SessionKey)
	})
	require.NoError(t, err)

	_, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	_, err = s.PendingRegistrations().GetPendingRegistration(ctx, p.SessionKey, time.Now().UTC())
	require.ErrorIs(t, err, store.ErrNotFound)
}
