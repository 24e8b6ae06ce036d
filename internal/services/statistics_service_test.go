package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/models"
)

func TestStatisticsService_UserGrowth(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()

	created := []time.Time{
		time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
	}
	for i, at := range created {
		u := repo.addUser(uint(i+1), "user"+string(rune('a'+i)))
		u.CreatedDate = at
	}

	svc := NewStatisticsService(repo, cache.NewCacheManager(nil), testLogger()).(*statisticsService)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	stats, err := svc.UserGrowth(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Months)
	assert.Equal(t, []models.MonthlyCount{
		{Month: "2026-01", Count: 1},
		{Month: "2026-02", Count: 2},
		{Month: "2026-03", Count: 3},
	}, stats.Series)
	assert.Equal(t, int64(3), stats.TotalNewUsers)
	assert.Equal(t, stats.TotalNewUsers, stats.Series[len(stats.Series)-1].Count)

	stats, err = svc.UserGrowth(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stats.Series, 1)
	assert.Equal(t, models.MonthlyCount{Month: "2026-03", Count: 1}, stats.Series[0])
	assert.Equal(t, int64(1), stats.TotalNewUsers)

	for _, months := range []int{-1, 13} {
		_, err = svc.UserGrowth(ctx, months)
		assert.ErrorIs(t, err, ErrInvalidArgument, "months=%d", months)
	}
}

func TestStatisticsService_CacheFollowsSignUps(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeRepository()
	cm := cache.NewCacheManager(client)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	repo.addUser(1, "alice").CreatedDate = now.AddDate(0, 0, -1)

	svc := NewStatisticsService(repo, cm, testLogger()).(*statisticsService)
	svc.now = func() time.Time { return now }

	stats, err := svc.UserGrowth(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalNewUsers)

	// Served from cache until a sign-up retires it
	repo.addUser(2, "bob").CreatedDate = now
	stats, err = svc.UserGrowth(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalNewUsers)

	cache.InvalidateStatsCache(ctx, cm)
	stats, err = svc.UserGrowth(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalNewUsers)
}
