package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

const rankingSheet = "Ranking"

type rankingService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	logger       *slog.Logger
	cacheTTL     time.Duration
	storeTimeout time.Duration
}

func NewRankingService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger, cacheTTL, storeTimeout time.Duration) RankingService {
	if cacheTTL <= 0 {
		cacheTTL = cache.RankingCacheConfig.TTL
	}
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &rankingService{
		repo:         repo,
		cacheManager: cacheManager,
		logger:       logger,
		cacheTTL:     cacheTTL,
		storeTimeout: storeTimeout,
	}
}

// BuildRankings orders totals by score descending then user id ascending and
// assigns competition ranks: equal totals share a position, and each position
// is one more than the number of strictly greater totals.
func BuildRankings(totals []models.ScoreTotal) []models.RankingEntry {
	sorted := slices.Clone(totals)
	slices.SortStableFunc(sorted, func(a, b models.ScoreTotal) int {
		if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	entries := make([]models.RankingEntry, len(sorted))
	for i, t := range sorted {
		rank := i + 1
		if i > 0 && t.TotalScore == sorted[i-1].TotalScore {
			rank = entries[i-1].RankPosition
		}
		entries[i] = models.RankingEntry{
			UserID:       t.UserID,
			Username:     t.Username,
			TotalScore:   t.TotalScore,
			RankPosition: rank,
		}
	}
	return entries
}

// GetAllRankings serves the leaderboard of the current cache generation. The
// generation is read before the store snapshot, so a score write that commits
// during the fetch bumps it and the stale result is never served.
func (s *rankingService) GetAllRankings(ctx context.Context) ([]models.RankingEntry, error) {
	gen, err := s.cacheManager.Ranking.Generation(ctx, cache.RankingGeneration)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotAvailable) {
			s.logger.Warn("Ranking cache unavailable, computing directly", "error", err)
		}
		return s.compute(ctx)
	}

	var entries []models.RankingEntry
	err = s.cacheManager.Ranking.CacheOrExecute(ctx, cache.RankingAllKey(gen), &entries, s.cacheTTL, func() (interface{}, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get rankings: %w", err)
	}
	return entries, nil
}

func (s *rankingService) GetRanking(ctx context.Context, userID uint) (*models.RankingEntry, error) {
	entries, err := s.GetAllRankings(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.UserID == userID {
			return &e, nil
		}
	}
	return nil, NewNotFoundError("no ranking for user %d", userID)
}

func (s *rankingService) RefreshRankings(ctx context.Context) error {
	gen, genErr := s.cacheManager.Ranking.Generation(ctx, cache.RankingGeneration)

	entries, err := s.compute(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute rankings: %w", err)
	}

	switch {
	case errors.Is(genErr, cache.ErrCacheNotAvailable):
		s.logger.Debug("Rankings refreshed without cache", "entries", len(entries))
		return nil
	case genErr != nil:
		return fmt.Errorf("failed to read ranking generation: %w", genErr)
	}

	if err := s.cacheManager.Ranking.Set(ctx, cache.RankingAllKey(gen), entries, s.cacheTTL); err != nil {
		return fmt.Errorf("failed to cache rankings: %w", err)
	}

	s.logger.Info("Rankings refreshed", "entries", len(entries), "generation", gen)
	return nil
}

// ExportRankings writes the full leaderboard as an xlsx workbook
func (s *rankingService) ExportRankings(ctx context.Context, w io.Writer) error {
	entries, err := s.GetAllRankings(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", rankingSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Rank", "User ID", "Username", "Total Score"}
	if err := f.SetSheetRow(rankingSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := []interface{}{e.RankPosition, e.UserID, e.Username, e.TotalScore}
		if err := f.SetSheetRow(rankingSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Rankings exported", "entries", len(entries))
	return nil
}

func (s *rankingService) compute(ctx context.Context) ([]models.RankingEntry, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	totals, err := s.repo.Progress().SumScoresByUser(storeCtx)
	if err != nil {
		return nil, err
	}
	return BuildRankings(totals), nil
}
