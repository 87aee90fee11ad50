package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/medicore-health/hospital-service/internal/cache"
)

// Scheduler runs recurring maintenance jobs: nightly cache warmup and
// hourly invalidation of dashboard aggregates so stats never go stale
// past their window.
type Scheduler struct {
	cron         *cron.Cron
	cacheManager *cache.CacheManager
	logger       *slog.Logger
}

func NewScheduler(cacheManager *cache.CacheManager, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		cacheManager: cacheManager,
		logger:       logger,
	}
}

// Start registers the jobs and begins the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 3 * * *", s.warmupCache); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.refreshDashboardStats); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("job scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) warmupCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.cacheManager.WarmupCache(ctx); err != nil {
		s.logger.Warn("cache warmup failed", "error", err)
		return
	}
	s.logger.Debug("cache warmup completed")
}

func (s *Scheduler) refreshDashboardStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.cacheManager.Stats.InvalidatePattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard stats refresh failed", "error", err)
		return
	}
	s.logger.Debug("dashboard stats cache invalidated")
}
