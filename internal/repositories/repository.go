package repositories

import "context"

// Repository aggregates all repository interfaces
type Repository interface {
	// Catalog
	Lesson() LessonRepository
	Exercise() ExerciseRepository

	// Progress tracking
	Progress() ProgressRepository

	// Users
	User() UserRepository
	Role() RoleRepository

	// Reporting
	Statistics() StatisticsRepository

	// WithTransaction runs fn against a Repository bound to one database transaction
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
