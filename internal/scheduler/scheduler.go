package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// RankingRefresher is the part of the ranking service the scheduler drives
type RankingRefresher interface {
	RefreshRankings(ctx context.Context) error
}

// Scheduler manages periodic background jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	rankings  RankingRefresher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a scheduler that refreshes rankings every interval.
// A zero interval disables the job.
func New(rankings RankingRefresher, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		rankings:  rankings,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the jobs and runs them in the background. The first run
// happens immediately so the ranking cache is warm after startup.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("Ranking refresh disabled")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.refreshRankings); err != nil {
		return err
	}
	s.scheduler.StartAsync()

	s.logger.Info("Scheduler started", "ranking_refresh_interval", s.interval.String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refreshRankings() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.rankings.RefreshRankings(ctx); err != nil {
		s.logger.Error("Ranking refresh failed", "error", err)
		return
	}
	s.logger.Debug("Rankings refreshed", "duration_ms", time.Since(start).Milliseconds())
}
