package services

import (
	"context"
	"io"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

// ===== PROGRESS =====

// ProgressService records per-user progress on lessons and exercises
type ProgressService interface {
	StudyLesson(ctx context.Context, userID uint, req *models.StudyLessonRequest) (*models.UserLesson, error)
	ListUserLessons(ctx context.Context, userID uint) ([]*models.UserLesson, error)

	DoExercise(ctx context.Context, userID uint, req *models.DoExerciseRequest) (*models.UserExercise, error)
	// DoExercises processes each item independently; failed items are logged and omitted
	DoExercises(ctx context.Context, userID uint, reqs []models.DoExerciseRequest) []*models.UserExercise
}

// ===== RANKING =====

type RankingService interface {
	GetAllRankings(ctx context.Context) ([]models.RankingEntry, error)
	GetRanking(ctx context.Context, userID uint) (*models.RankingEntry, error)
	// RefreshRankings recomputes the leaderboard and replaces the cached copy
	RefreshRankings(ctx context.Context) error
	ExportRankings(ctx context.Context, w io.Writer) error
}

// ===== CATALOG =====

type LessonService interface {
	Create(ctx context.Context, req *models.LessonCreateRequest) (*models.Lesson, error)
	GetByID(ctx context.Context, id uint, scope repositories.CatalogScope) (*models.Lesson, error)
	Update(ctx context.Context, id uint, req *models.LessonUpdateRequest) (*models.Lesson, error)
	Delete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.LessonFilters, page, size int) (*models.PaginatedResponse, error)
}

type ExerciseService interface {
	Create(ctx context.Context, req *models.ExerciseCreateRequest) (*models.Exercise, error)
	GetByID(ctx context.Context, id uint, scope repositories.CatalogScope) (*models.Exercise, error)
	Update(ctx context.Context, id uint, req *models.ExerciseUpdateRequest) (*models.Exercise, error)
	Delete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.ExerciseFilters, page, size int) (*models.PaginatedResponse, error)
	Import(ctx context.Context, r io.Reader) (*models.ImportResult, error)
}

// ===== USERS =====

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest, group int16) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	// Authenticate verifies a bearer token and reloads the user it names
	Authenticate(ctx context.Context, token string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// UserService is the admin view over accounts
type UserService interface {
	List(ctx context.Context, filters repositories.UserFilters, page, size int) (*models.PaginatedResponse, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error)
	Update(ctx context.Context, id uint, req *models.UserUpdateRequest) (*models.User, error)
	Delete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	ChangePassword(ctx context.Context, actor *models.User, id uint, req *models.ChangePasswordRequest) error
}

type RoleService interface {
	List(ctx context.Context, filters repositories.RoleFilters, page, size int) (*models.PaginatedResponse, error)
	Create(ctx context.Context, req *models.RoleCreateRequest) (*models.UserGroup, error)
	Update(ctx context.Context, id int16, req *models.RoleUpdateRequest) (*models.UserGroup, error)
	Delete(ctx context.Context, id int16) error
}

type StatisticsService interface {
	UserGrowth(ctx context.Context, months int) (*models.UserGrowthStats, error)
}

// ===== SERVICE MANAGER =====

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	Progress() ProgressService
	Ranking() RankingService
	Lesson() LessonService
	Exercise() ExerciseService
	Auth() AuthService
	User() UserService
	Role() RoleService
	Statistics() StatisticsService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
