package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/course-service/internal/repositories"
)

// UnverifiedUserSweeper periodically deletes accounts whose verification
// window closed without the e-mail being confirmed
type UnverifiedUserSweeper struct {
	repo     repositories.Repository
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewUnverifiedUserSweeper(repo repositories.Repository, logger *slog.Logger, interval time.Duration) *UnverifiedUserSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &UnverifiedUserSweeper{
		repo:     repo,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the sweep loop until Stop is called or ctx is done
func (s *UnverifiedUserSweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep runs a single pass and returns how many accounts were removed
func (s *UnverifiedUserSweeper) Sweep(ctx context.Context) int64 {
	removed, err := s.repo.User().DeleteUnverifiedBefore(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Unverified user sweep failed", "error", err)
		return 0
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "Removed unverified users", "count", removed)
	}
	return removed
}

func (s *UnverifiedUserSweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
