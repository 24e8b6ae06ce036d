package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// RankingGeneration versions every cached leaderboard view
const RankingGeneration = "rankings"

// RankingAllKey is the full leaderboard key for generation gen
func RankingAllKey(gen int64) string {
	return fmt.Sprintf("all:%d", gen)
}

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateLessonCache drops the cached lesson row
func InvalidateLessonCache(ctx context.Context, cm *CacheManager, lessonID uint) {
	SafeDelete(ctx, cm.Catalog, fmt.Sprintf("lesson:%d", lessonID))
}

// InvalidateExerciseCache drops the cached exercise row
func InvalidateExerciseCache(ctx context.Context, cm *CacheManager, exerciseID uint) {
	SafeDelete(ctx, cm.Catalog, fmt.Sprintf("exercise:%d", exerciseID))
}

// InvalidateRankingCache retires every cached leaderboard view; any score write can move every rank.
// Views stored under the previous generation are never read again and expire with their TTL.
func InvalidateRankingCache(ctx context.Context, cm *CacheManager) {
	if err := cm.Ranking.BumpGeneration(ctx, RankingGeneration); err != nil {
		slog.ErrorContext(ctx, "Failed to bump ranking generation", "error", err)
	}
}

// StatsGeneration versions every cached statistics report
const StatsGeneration = "stats"

// InvalidateStatsCache retires cached statistics after user sign-ups
func InvalidateStatsCache(ctx context.Context, cm *CacheManager) {
	if err := cm.Stats.BumpGeneration(ctx, StatsGeneration); err != nil {
		slog.ErrorContext(ctx, "Failed to bump stats generation", "error", err)
	}
}
