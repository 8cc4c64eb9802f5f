package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/filefortress/fortress/internal/auth/store"
)

// HousekeepingService periodically sweeps lapsed database records to
// prevent unbounded growth of pending_registrations and refresh_tokens.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Non-blocking; call Stop() to gracefully shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker. Blocks until the worker
// has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs the actual deletion of lapsed records. Each sweep is
// independent, a failure in one does not stop the others. Exported so the
// readiness path and tests can trigger a sweep directly.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := s.Store.PendingRegistrations().DeleteExpiredPendingRegistrations(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired pending registrations", "error", err)
	} else if n > 0 {
		s.Logger.Info("deleted expired pending registrations", "count", n)
	}

	if n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
	} else if n > 0 {
		s.Logger.Info("deleted expired refresh tokens", "count", n)
	}
}
