package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/vaultbox/vaultbox/internal/server/store"
)

// Retention cutoffs for the periodic purge.
const (
	// UnverifiedAccountTTL is how long an account may stay unverified before
	// it is purged, freeing the email address for re-registration.
	UnverifiedAccountTTL = 24 * time.Hour

	// IdleTokenTTL is how long a session may go unused before it is purged.
	IdleTokenTTL = 30 * 24 * time.Hour
)

// HousekeepingService periodically purges abandoned registrations and idle
// session tokens so the tables do not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// PurgeUnverified enables the unverified-account sweep. It stays off when
	// email verification is not required, because then unverified accounts are
	// just accounts.
	PurgeUnverified bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the worker. An interval of 0 or less
// defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration, purgeUnverified bool) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:           st,
		Logger:          logger,
		Interval:        interval,
		PurgeUnverified: purgeUnverified,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut it
// down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup runs one sweep. The two purges are independent; a failure in one
// does not stop the other.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()

	if s.PurgeUnverified {
		n, err := s.Store.Users().DeleteUnverifiedBefore(ctx, now.Add(-UnverifiedAccountTTL))
		if err != nil {
			s.Logger.Error("failed to purge unverified accounts", "error", err)
		} else if n > 0 {
			s.Logger.Info("purged unverified accounts", "count", n)
		}
	}

	n, err := s.Store.Tokens().DeleteUnusedBefore(ctx, now.Add(-IdleTokenTTL))
	if err != nil {
		s.Logger.Error("failed to purge idle tokens", "error", err)
	} else if n > 0 {
		s.Logger.Info("purged idle tokens", "count", n)
	}
}
