package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

const (
	defaultGrowthMonths = 3
	maxGrowthMonths     = 12
)

type statisticsService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	logger       *slog.Logger
	now          func() time.Time
}

func NewStatisticsService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger) StatisticsService {
	return &statisticsService{
		repo:         repo,
		cacheManager: cacheManager,
		logger:       logger,
		now:          time.Now,
	}
}

// UserGrowth reports, for each of the last months calendar months (current
// month included), the cumulative number of users registered from the start
// of the window to the end of that month.
func (s *statisticsService) UserGrowth(ctx context.Context, months int) (*models.UserGrowthStats, error) {
	if months == 0 {
		months = defaultGrowthMonths
	}
	if months < 1 || months > maxGrowthMonths {
		return nil, NewInvalidArgumentError("months must be between 1 and %d", maxGrowthMonths)
	}

	now := s.now().UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	gen, err := s.cacheManager.Stats.Generation(ctx, cache.StatsGeneration)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotAvailable) {
			s.logger.Warn("Stats cache unavailable, computing directly", "error", err)
		}
		return s.computeGrowth(ctx, current, months)
	}
	key := fmt.Sprintf("user-growth:%d:%s:%d", gen, current.Format("2006-01"), months)

	var stats models.UserGrowthStats
	err = s.cacheManager.Stats.CacheOrExecute(ctx, key, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.computeGrowth(ctx, current, months)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute user growth: %w", err)
	}
	return &stats, nil
}

func (s *statisticsService) computeGrowth(ctx context.Context, current time.Time, months int) (*models.UserGrowthStats, error) {
	first := current.AddDate(0, -(months - 1), 0)
	end := current.AddDate(0, 1, 0)

	stats := &models.UserGrowthStats{
		Months: months,
		Series: make([]models.MonthlyCount, 0, months),
	}

	for m := first; m.Before(end); m = m.AddDate(0, 1, 0) {
		count, err := s.repo.Statistics().CountUsersCreatedBetween(ctx, first, m.AddDate(0, 1, 0))
		if err != nil {
			return nil, err
		}
		stats.Series = append(stats.Series, models.MonthlyCount{
			Month: m.Format("2006-01"),
			Count: count,
		})
	}

	total, err := s.repo.Statistics().CountUsersCreatedBetween(ctx, first, end)
	if err != nil {
		return nil, err
	}
	stats.TotalNewUsers = total

	s.logger.Debug("User growth computed", "months", months, "total_new_users", total)
	return stats, nil
}
