package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Purger deletes expired refresh tokens for every user.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically purges expired refresh tokens in the background.
// Register, login and refresh already purge the caller's own tokens; the sweeper catches users
// who never come back.
type Sweeper struct {
	purger   Purger
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex // guards started, stopped and cancel
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewSweeper(purger Purger, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{purger: purger, interval: interval, logger: logger}
}

// Start launches the sweep loop. A non-positive interval disables it.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("refresh token sweeper disabled")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-ctx.Done():
				s.logger.Debug("refresh token sweeper shutting down")
				return
			}
		}
	}()

	s.logger.Info("refresh token sweeper started", "interval", s.interval)
}

// Stop cancels the loop and waits for an in-flight sweep to finish. A sweeper
// stopped before it started never starts.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "refresh token sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired refresh tokens purged", "count", n)
	}
}
