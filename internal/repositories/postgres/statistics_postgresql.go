package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

type StatisticsPostgreSQL struct {
	db *gorm.DB
}

func NewStatisticsPostgreSQL(db *gorm.DB) repositories.StatisticsRepository {
	return &StatisticsPostgreSQL{db: db}
}

func (r *StatisticsPostgreSQL) CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("deleted_date IS NULL AND created_date >= ? AND created_date < ?", from, to).
		Count(&count).Error
	if err != nil {
		return 0, handleDBError(err, "count users between")
	}
	return count, nil
}
