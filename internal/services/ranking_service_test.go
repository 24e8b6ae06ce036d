package services

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/validator"
)

func TestBuildRankings(t *testing.T) {
	tests := []struct {
		name   string
		totals []models.ScoreTotal
		want   []models.RankingEntry
	}{
		{name: "empty", totals: nil, want: []models.RankingEntry{}},
		{
			name: "orders by total then user id with shared ranks",
			totals: []models.ScoreTotal{
				{UserID: 4, TotalScore: 10},
				{UserID: 2, TotalScore: 30},
				{UserID: 3, TotalScore: 20},
				{UserID: 1, TotalScore: 20},
				{UserID: 5, TotalScore: 0},
			},
			want: []models.RankingEntry{
				{UserID: 2, TotalScore: 30, RankPosition: 1},
				{UserID: 1, TotalScore: 20, RankPosition: 2},
				{UserID: 3, TotalScore: 20, RankPosition: 2},
				{UserID: 4, TotalScore: 10, RankPosition: 4},
				{UserID: 5, TotalScore: 0, RankPosition: 5},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildRankings(tt.totals)
			assert.Equal(t, tt.want, got)

			for i, e := range got {
				greater := 0
				for _, other := range got {
					if other.TotalScore > e.TotalScore {
						greater++
					}
				}
				assert.Equal(t, 1+greater, e.RankPosition, "entry %d", i)
				if i > 0 {
					assert.GreaterOrEqual(t, got[i-1].TotalScore, e.TotalScore)
				}
			}
		})
	}
}

func newRankingFixture(t *testing.T) (*rankingService, *fakeRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeRepository()
	repo.addUser(1, "alice")
	repo.addUser(2, "bob")
	repo.addUser(3, "carol")

	svc := NewRankingService(repo, cache.NewCacheManager(client), testLogger(), time.Minute, time.Second).(*rankingService)
	return svc, repo, mr
}

func TestRankingService_GetAllRankings(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		svc, _, _ := newRankingFixture(t)

		entries, err := svc.GetAllRankings(ctx)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("sums per user and caches", func(t *testing.T) {
		svc, repo, mr := newRankingFixture(t)
		repo.addExerciseScore(1, 20, 10)
		repo.addExerciseScore(1, 21, 10)
		repo.addExerciseScore(2, 20, 10)
		repo.addExerciseScore(3, 20, 0)

		entries, err := svc.GetAllRankings(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, models.RankingEntry{UserID: 1, Username: "alice", TotalScore: 20, RankPosition: 1}, entries[0])
		assert.Equal(t, uint(2), entries[1].UserID)
		assert.Equal(t, 3, entries[2].RankPosition)

		assert.True(t, mr.Exists("ranking:all:0"))
	})
}

func TestRankingService_GetRanking(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newRankingFixture(t)
	repo.addExerciseScore(1, 20, 10)
	repo.addExerciseScore(2, 20, 10)
	repo.addExerciseScore(2, 21, 10)

	entry, err := svc.GetRanking(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.RankPosition)
	assert.Equal(t, 10.0, entry.TotalScore)

	_, err = svc.GetRanking(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRankingService_RefreshRankings(t *testing.T) {
	ctx := context.Background()
	svc, repo, mr := newRankingFixture(t)
	repo.addExerciseScore(1, 20, 10)

	cache.InvalidateRankingCache(ctx, svc.cacheManager)
	require.NoError(t, svc.RefreshRankings(ctx))
	assert.True(t, mr.Exists("ranking:all:1"))

	var cached []models.RankingEntry
	require.NoError(t, svc.cacheManager.Ranking.Get(ctx, cache.RankingAllKey(1), &cached))
	require.Len(t, cached, 1)
	assert.Equal(t, 1, cached[0].RankPosition)
}

// newScoringFixture wires a progress service onto the ranking fixture's store and cache
func newScoringFixture(t *testing.T) (*rankingService, *progressService, *fakeRepository) {
	t.Helper()
	svc, repo, _ := newRankingFixture(t)
	repo.addLesson(10, models.CatalogActive)
	repo.addExercise(20, 10, "A", models.CatalogActive)
	repo.addLessonProgress(1, 10, models.ProgressStarted)

	progress := NewProgressService(repo, svc.cacheManager, nil, testLogger(), validator.New(), ProgressConfig{
		LessonPolicy:   models.TransitionStrict,
		ExercisePolicy: models.TransitionStrict,
		StoreTimeout:   time.Second,
	}).(*progressService)
	return svc, progress, repo
}

func TestRankingService_ScoreWrittenDuringRead(t *testing.T) {
	ctx := context.Background()

	scoreOnce := func(t *testing.T, progress *progressService) func() {
		var once sync.Once
		return func() {
			once.Do(func() {
				_, err := progress.DoExercise(ctx, 1, &models.DoExerciseRequest{ExerciseID: 20, UserAnswer: strPtr("A"), StatusID: models.ProgressStarted})
				require.NoError(t, err)
			})
		}
	}

	t.Run("read", func(t *testing.T) {
		svc, progress, repo := newScoringFixture(t)
		repo.afterScoreSnapshot = scoreOnce(t, progress)

		// Snapshot predates the write
		entries, err := svc.GetAllRankings(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)

		entries, err = svc.GetAllRankings(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.RankingEntry{UserID: 1, Username: "alice", TotalScore: 10, RankPosition: 1}, entries[0])

		entry, err := svc.GetRanking(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, entry.RankPosition)
	})

	t.Run("refresh", func(t *testing.T) {
		svc, progress, repo := newScoringFixture(t)
		repo.afterScoreSnapshot = scoreOnce(t, progress)

		require.NoError(t, svc.RefreshRankings(ctx))

		entry, err := svc.GetRanking(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 10.0, entry.TotalScore)
	})
}

func TestRankingService_ExportRankings(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newRankingFixture(t)
	repo.addExerciseScore(1, 20, 10)
	repo.addExerciseScore(2, 20, 0)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportRankings(ctx, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Ranking")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Rank", "User ID", "Username", "Total Score"}, rows[0])
	assert.Equal(t, []string{"1", "1", "alice", "10"}, rows[1])
	assert.Equal(t, "bob", rows[2][2])
}
