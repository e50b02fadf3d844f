package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tanglebay/doorman/internal/auth/store"
)

// HousekeepingService periodically cleans up expired database records and
// in-memory state (pending WebAuthn challenges, idle rate limiter keys) to
// prevent unbounded growth.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Sweepers are extra in-memory cleanups run on each pass, e.g. the
	// challenge store and the rate limiter maps.
	Sweepers []func()

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration, sweepers ...func()) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Sweepers: sweepers,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

// run is the main background worker loop.
func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs the actual deletion of expired records.
// Each deletion is independent - failures in one won't stop the others.
func (s *HousekeepingService) Cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()
	s.Logger.Info("starting housekeeping cleanup")

	var successful int

	if err := s.Store.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else {
		s.Logger.Debug("deleted expired sessions")
		successful++
	}

	if err := s.Store.PasswordResetSessions().DeleteExpiredPasswordResetSessions(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired password reset sessions", "error", err)
	} else {
		s.Logger.Debug("deleted expired password reset sessions")
		successful++
	}

	if err := s.Store.EmailVerifications().DeleteExpiredEmailVerificationRequests(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired email verification requests", "error", err)
	} else {
		s.Logger.Debug("deleted expired email verification requests")
		successful++
	}

	for _, sweep := range s.Sweepers {
		sweep()
	}

	s.Logger.Info("housekeeping cleanup completed", "successful_cleanups", successful)
}
