package repositories

import (
	"context"
	"time"

	"github.com/ezenglish/learning-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// CatalogScope is the caller's visibility over catalog items. The HTTP layer
// derives it from the authenticated role; repositories only apply it.
type CatalogScope struct {
	IncludeInactive bool
	IncludeAnswers  bool
}

type LessonFilters struct {
	Title     string `json:"title"` // substring match
	Category  string `json:"category"`
	Level     string `json:"level"`
	ID        *uint  `json:"id"`
	Scope     CatalogScope
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "created_date", "title", "id"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

type ExerciseFilters struct {
	Title     string               `json:"title"` // exact match
	LessonID  *uint                `json:"lesson_id"`
	Type      *models.ExerciseType `json:"type"`
	ID        *uint                `json:"id"`
	Scope     CatalogScope
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

type UserFilters struct {
	Query           string `json:"query"` // substring of username, email or full name
	GroupID         *int16 `json:"group_id"`
	IncludeDisabled bool
	Limit           int    `json:"limit"`
	Offset          int    `json:"offset"`
	SortBy          string `json:"sort_by"`
	SortOrder       string `json:"sort_order"`
}

type RoleFilters struct {
	Query           string `json:"query"` // exact name or permission
	IncludeInactive bool
	Limit           int `json:"limit"`
	Offset          int `json:"offset"`
}

// ===== CATALOG =====

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	SetStatus(ctx context.Context, id uint, status models.CatalogStatus) error
	ExistsActiveByTitle(ctx context.Context, title string, excludeID uint) (bool, error)
	List(ctx context.Context, filters LessonFilters) ([]*models.Lesson, int64, error)
}

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *models.Exercise) error
	CreateBatch(ctx context.Context, exercises []*models.Exercise) error
	GetByID(ctx context.Context, id uint) (*models.Exercise, error)
	Update(ctx context.Context, exercise *models.Exercise) error
	SetStatus(ctx context.Context, id uint, status models.CatalogStatus) error
	List(ctx context.Context, filters ExerciseFilters) ([]*models.Exercise, int64, error)
}

// ===== PROGRESS =====

// ProgressRepository is the persistence gateway for progress records.
// Find* with forUpdate=true locks the row until the surrounding transaction ends.
type ProgressRepository interface {
	FindLessonProgress(ctx context.Context, userID, lessonID uint, forUpdate bool) (*models.UserLesson, error)
	SaveLessonProgress(ctx context.Context, record *models.UserLesson) error
	ListLessonProgress(ctx context.Context, userID uint) ([]*models.UserLesson, error)

	FindExerciseProgress(ctx context.Context, userID, exerciseID uint, forUpdate bool) (*models.UserExercise, error)
	SaveExerciseProgress(ctx context.Context, record *models.UserExercise) error

	// SumScoresByUser aggregates non-deleted exercise scores per user,
	// ordered by total descending then user id ascending.
	SumScoresByUser(ctx context.Context) ([]models.ScoreTotal, error)
}

// ===== USERS =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	Update(ctx context.Context, user *models.User) error
	// SetStatus disables (with a deleted_date) or re-enables an account
	SetStatus(ctx context.Context, id uint, status models.UserStatus) error
	CountActiveByGroup(ctx context.Context, groupID int16) (int64, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
}

type RoleRepository interface {
	Create(ctx context.Context, role *models.UserGroup) error
	GetByID(ctx context.Context, id int16) (*models.UserGroup, error)
	ExistsByName(ctx context.Context, name string, excludeID int16) (bool, error)
	Update(ctx context.Context, role *models.UserGroup) error
	SetStatus(ctx context.Context, id int16, status models.RoleStatus) error
	List(ctx context.Context, filters RoleFilters) ([]*models.UserGroup, int64, error)
}

// ===== STATISTICS =====

type StatisticsRepository interface {
	CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}
