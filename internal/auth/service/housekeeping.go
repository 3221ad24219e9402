package service

import (
	"context"
	"log/slog"
	"time"
)

// HousekeepingService periodically deletes expired sessions. Resolve already
// reaps expired sessions it runs into; this catches the ones nobody presents
// again.
type HousekeepingService struct {
	Sessions *SessionService
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval is rejected by Start, so callers decide whether to run it at all.
func NewHousekeepingService(sessions *SessionService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HousekeepingService{
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. It is non-blocking; call Stop to shut
// the worker down. Returns false when the interval disables housekeeping.
func (s *HousekeepingService) Start() bool {
	if s.Interval <= 0 {
		close(s.doneCh)
		return false
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
	return true
}

// Stop shuts the worker down and waits for an in-progress sweep.
func (s *HousekeepingService) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

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

// Cleanup runs one sweep.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	n, err := s.Sessions.Sweep(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
		return
	}
	s.Logger.Info("housekeeping cleanup completed", "expired_sessions", n)
}
