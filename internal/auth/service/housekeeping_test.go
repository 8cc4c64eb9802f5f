package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
	"github.com/filefortress/fortress/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func TestCleanupSweepsLapsedRecords(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	lapsed := domain.PendingRegistration{
		SessionKey:   "sess-old",
		Email:        "old@example.com",
		FirstName:    "Old",
		LastName:     "Timer",
		Role:         domain.RoleUser,
		PasswordHash: "x",
		MFASecret:    "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP",
		CreatedAt:    now.Add(-time.Hour),
		ExpiresAt:    now.Add(-time.Minute),
	}
	require.NoError(t, st.PendingRegistrations().UpsertPendingRegistration(ctx, lapsed))

	live := lapsed
	live.SessionKey = "sess-live"
	live.ExpiresAt = now.Add(10 * time.Minute)
	require.NoError(t, st.PendingRegistrations().UpsertPendingRegistration(ctx, live))

	hk := NewHousekeepingService(st, slog.Default(), time.Hour)
	hk.Cleanup(ctx)

	_, err := st.PendingRegistrations().GetPendingRegistration(ctx, "sess-old", now.Add(-2*time.Minute))
	require.ErrorIs(t, err, store.ErrNotFound, "lapsed record is gone even for a backdated read")

	_, err = st.PendingRegistrations().GetPendingRegistration(ctx, "sess-live", now)
	require.NoError(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	st := newTestStore(t)

	hk := NewHousekeepingService(st, slog.Default(), 50*time.Millisecond)
	hk.Start()
	time.Sleep(120 * time.Millisecond)
	hk.Stop()
}
