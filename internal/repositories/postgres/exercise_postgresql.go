package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

type ExercisePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExercisePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExerciseRepository {
	return &ExercisePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func exerciseCacheKey(id uint) string {
	return fmt.Sprintf("exercise:%d", id)
}

func (r *ExercisePostgreSQL) Create(ctx context.Context, exercise *models.Exercise) error {
	if err := r.db.WithContext(ctx).Create(exercise).Error; err != nil {
		return handleDBError(err, "create exercise")
	}
	return nil
}

func (r *ExercisePostgreSQL) CreateBatch(ctx context.Context, exercises []*models.Exercise) error {
	if len(exercises) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(exercises, 100).Error; err != nil {
		return handleDBError(err, "create exercises")
	}
	return nil
}

// GetByID returns the exercise regardless of status, served from the catalog cache when possible
func (r *ExercisePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	var exercise models.Exercise

	err := r.cacheManager.Catalog.CacheOrExecute(ctx, exerciseCacheKey(id), &exercise, cache.CatalogCacheConfig.TTL, func() (interface{}, error) {
		var dbExercise models.Exercise
		if err := r.db.WithContext(ctx).First(&dbExercise, id).Error; err != nil {
			return nil, handleDBError(err, "get exercise by id")
		}
		return &dbExercise, nil
	})
	if err != nil {
		return nil, err
	}

	return &exercise, nil
}

func (r *ExercisePostgreSQL) Update(ctx context.Context, exercise *models.Exercise) error {
	if err := r.db.WithContext(ctx).Save(exercise).Error; err != nil {
		return handleDBError(err, "update exercise")
	}
	cache.InvalidateExerciseCache(ctx, r.cacheManager, exercise.ID)
	return nil
}

func (r *ExercisePostgreSQL) SetStatus(ctx context.Context, id uint, status models.CatalogStatus) error {
	updates := map[string]interface{}{"status_id": status}
	if status == models.CatalogInactive {
		updates["deleted_date"] = gorm.Expr("now()")
	} else {
		updates["deleted_date"] = nil
	}

	result := r.db.WithContext(ctx).Model(&models.Exercise{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return handleDBError(result.Error, "set exercise status")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "set exercise status")
	}

	cache.InvalidateExerciseCache(ctx, r.cacheManager, id)
	return nil
}

func (r *ExercisePostgreSQL) List(ctx context.Context, filters repositories.ExerciseFilters) ([]*models.Exercise, int64, error) {
	var exercises []*models.Exercise
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Exercise{})
	query = r.helpers.ApplyCatalogScope(query, "exercises", filters.Scope)

	if filters.Title != "" {
		query = query.Where("title = ?", filters.Title)
	}
	if filters.LessonID != nil {
		query = query.Where("lesson_id = ?", *filters.LessonID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.ID != nil {
		query = query.Where("id = ?", *filters.ID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count exercises")
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&exercises).Error; err != nil {
		return nil, 0, handleDBError(err, "list exercises")
	}

	return exercises, total, nil
}
