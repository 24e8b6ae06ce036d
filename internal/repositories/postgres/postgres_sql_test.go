package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

// newDryRunDB renders SQL without a server
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestProgressQueries(t *testing.T) {
	db := newDryRunDB(t)
	ctx := context.Background()

	t.Run("locked read", func(t *testing.T) {
		sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var record models.UserExercise
			repo := &ProgressPostgreSQL{db: tx}
			return repo.query(ctx, true).Where("user_id = ? AND exercise_id = ?", 1, 2).First(&record)
		})
		assert.Contains(t, sql, "FOR UPDATE")
		assert.Contains(t, sql, `"user_exercises"`)
	})

	t.Run("plain read", func(t *testing.T) {
		sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var record models.UserLesson
			repo := &ProgressPostgreSQL{db: tx}
			return repo.query(ctx, false).Where("user_id = ? AND lesson_id = ?", 1, 2).First(&record)
		})
		assert.NotContains(t, sql, "FOR UPDATE")
	})
}

func TestApplyPaginationAndSort(t *testing.T) {
	db := newDryRunDB(t)
	helpers := NewSharedHelpers(db)

	render := func(sortBy, sortOrder string) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var lessons []models.Lesson
			return helpers.ApplyPaginationAndSort(tx.Model(&models.Lesson{}), sortBy, sortOrder, 10, 20).Find(&lessons)
		})
	}

	sql := render("title", "asc")
	assert.Contains(t, sql, "ORDER BY title ASC,id ASC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "OFFSET 20")

	sql = render("title; DROP TABLE users", "")
	assert.Contains(t, sql, "ORDER BY created_date DESC")
	assert.False(t, strings.Contains(sql, "DROP"))
}

func TestApplyCatalogScope(t *testing.T) {
	db := newDryRunDB(t)
	helpers := NewSharedHelpers(db)

	render := func(scope repositories.CatalogScope) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var lessons []models.Lesson
			return helpers.ApplyCatalogScope(tx.Model(&models.Lesson{}), "lessons", scope).Find(&lessons)
		})
	}

	assert.Contains(t, render(repositories.CatalogScope{}), "lessons.status_id = ")
	assert.NotContains(t, render(repositories.CatalogScope{IncludeInactive: true}), "status_id")
}
