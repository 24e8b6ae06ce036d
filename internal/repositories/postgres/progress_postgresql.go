package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (r *ProgressPostgreSQL) query(ctx context.Context, forUpdate bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// ===== LESSON PROGRESS =====

func (r *ProgressPostgreSQL) FindLessonProgress(ctx context.Context, userID, lessonID uint, forUpdate bool) (*models.UserLesson, error) {
	var record models.UserLesson
	err := r.query(ctx, forUpdate).
		Where("user_id = ? AND lesson_id = ? AND deleted_date IS NULL", userID, lessonID).
		First(&record).Error
	if err != nil {
		return nil, handleDBError(err, "find lesson progress")
	}
	return &record, nil
}

func (r *ProgressPostgreSQL) SaveLessonProgress(ctx context.Context, record *models.UserLesson) error {
	db := r.db.WithContext(ctx)
	var err error
	if record.ID == 0 {
		err = db.Create(record).Error
	} else {
		err = db.Save(record).Error
	}
	return handleDBError(err, "save lesson progress")
}

func (r *ProgressPostgreSQL) ListLessonProgress(ctx context.Context, userID uint) ([]*models.UserLesson, error) {
	var records []*models.UserLesson
	err := r.db.WithContext(ctx).
		Preload("Lesson").
		Where("user_id = ? AND deleted_date IS NULL", userID).
		Order("modified_date DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, handleDBError(err, "list lesson progress")
	}
	return records, nil
}

// ===== EXERCISE PROGRESS =====

func (r *ProgressPostgreSQL) FindExerciseProgress(ctx context.Context, userID, exerciseID uint, forUpdate bool) (*models.UserExercise, error) {
	var record models.UserExercise
	err := r.query(ctx, forUpdate).
		Where("user_id = ? AND exercise_id = ? AND deleted_date IS NULL", userID, exerciseID).
		First(&record).Error
	if err != nil {
		return nil, handleDBError(err, "find exercise progress")
	}
	return &record, nil
}

func (r *ProgressPostgreSQL) SaveExerciseProgress(ctx context.Context, record *models.UserExercise) error {
	db := r.db.WithContext(ctx)
	var err error
	if record.ID == 0 {
		err = db.Create(record).Error
	} else {
		err = db.Save(record).Error
	}
	return handleDBError(err, "save exercise progress")
}

// ===== RANKING =====

func (r *ProgressPostgreSQL) SumScoresByUser(ctx context.Context) ([]models.ScoreTotal, error) {
	var totals []models.ScoreTotal
	err := r.db.WithContext(ctx).
		Table("user_exercises ue").
		Select("ue.user_id AS user_id, u.username AS username, COALESCE(SUM(ue.score), 0) AS total_score").
		Joins("JOIN users u ON u.id = ue.user_id").
		Where("ue.deleted_date IS NULL").
		Group("ue.user_id, u.username").
		Order("total_score DESC, ue.user_id ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, handleDBError(err, "sum scores by user")
	}
	return totals, nil
}
