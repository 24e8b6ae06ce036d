package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

type LessonPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewLessonPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func lessonCacheKey(id uint) string {
	return fmt.Sprintf("lesson:%d", id)
}

func (r *LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	if err := r.db.WithContext(ctx).Create(lesson).Error; err != nil {
		return handleDBError(err, "create lesson")
	}
	return nil
}

// GetByID returns the lesson regardless of status, served from the catalog cache when possible
func (r *LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson

	err := r.cacheManager.Catalog.CacheOrExecute(ctx, lessonCacheKey(id), &lesson, cache.CatalogCacheConfig.TTL, func() (interface{}, error) {
		var dbLesson models.Lesson
		if err := r.db.WithContext(ctx).First(&dbLesson, id).Error; err != nil {
			return nil, handleDBError(err, "get lesson by id")
		}
		return &dbLesson, nil
	})
	if err != nil {
		return nil, err
	}

	return &lesson, nil
}

func (r *LessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	if err := r.db.WithContext(ctx).Save(lesson).Error; err != nil {
		return handleDBError(err, "update lesson")
	}
	cache.InvalidateLessonCache(ctx, r.cacheManager, lesson.ID)
	return nil
}

// SetStatus toggles soft deletion: inactive rows get a deleted_date, active rows clear it
func (r *LessonPostgreSQL) SetStatus(ctx context.Context, id uint, status models.CatalogStatus) error {
	updates := map[string]interface{}{"status_id": status}
	if status == models.CatalogInactive {
		updates["deleted_date"] = gorm.Expr("now()")
	} else {
		updates["deleted_date"] = nil
	}

	result := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return handleDBError(result.Error, "set lesson status")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "set lesson status")
	}

	cache.InvalidateLessonCache(ctx, r.cacheManager, id)
	return nil
}

func (r *LessonPostgreSQL) ExistsActiveByTitle(ctx context.Context, title string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.Lesson{}).
		Where("title = ? AND status_id = ?", title, models.CatalogActive)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, handleDBError(err, "check lesson title")
	}
	return count > 0, nil
}

func (r *LessonPostgreSQL) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	var lessons []*models.Lesson
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Lesson{})
	query = r.helpers.ApplyCatalogScope(query, "lessons", filters.Scope)

	if filters.Title != "" {
		query = query.Where("title ILIKE ?", "%"+filters.Title+"%")
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Level != "" {
		query = query.Where("level = ?", filters.Level)
	}
	if filters.ID != nil {
		query = query.Where("id = ?", *filters.ID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count lessons")
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&lessons).Error; err != nil {
		return nil, 0, handleDBError(err, "list lessons")
	}

	return lessons, total, nil
}
