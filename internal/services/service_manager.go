package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/config"
	"github.com/ezenglish/learning-service/internal/events"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/validator"
)

// ServiceManagerConfig holds the settings services need from the process config
type ServiceManagerConfig struct {
	Progress ProgressConfig

	RankingCacheTTL time.Duration
	StoreTimeout    time.Duration
}

// NewServiceManagerConfig extracts service settings from the loaded config
func NewServiceManagerConfig(cfg *config.Config) ServiceManagerConfig {
	return ServiceManagerConfig{
		Progress: ProgressConfig{
			LessonPolicy:   cfg.LessonTransitionPolicy,
			ExercisePolicy: cfg.ExerciseTransitionPolicy,
			StoreTimeout:   cfg.StoreTimeout,
		},
		RankingCacheTTL: cfg.RankingCacheTTL,
		StoreTimeout:    cfg.StoreTimeout,
	}
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo           repositories.Repository
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	issuer         TokenIssuer
	verifier       TokenVerifier
	config         ServiceManagerConfig

	// Service instances
	progressService   ProgressService
	rankingService    RankingService
	lessonService     LessonService
	exerciseService   ExerciseService
	authService       AuthService
	userService       UserService
	roleService       RoleService
	statisticsService StatisticsService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// ServiceDeps are the collaborators shared by every service
type ServiceDeps struct {
	Repo           repositories.Repository
	CacheManager   *cache.CacheManager
	EventPublisher events.EventPublisher
	Logger         *slog.Logger
	Validator      *validator.Validator
	Issuer         TokenIssuer
	Verifier       TokenVerifier
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps ServiceDeps, config ServiceManagerConfig) ServiceManager {
	cacheManager := deps.CacheManager
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &serviceManager{
		repo:           deps.Repo,
		cacheManager:   cacheManager,
		eventPublisher: deps.EventPublisher,
		logger:         deps.Logger,
		validator:      deps.Validator,
		issuer:         deps.Issuer,
		verifier:       deps.Verifier,
		config:         config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager",
		"lesson_policy", sm.config.Progress.LessonPolicy,
		"exercise_policy", sm.config.Progress.ExercisePolicy)

	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.verifier == nil {
		return fmt.Errorf("token verifier is required")
	}

	sm.progressService = NewProgressService(sm.repo, sm.cacheManager, sm.eventPublisher, sm.logger, sm.validator, sm.config.Progress)
	sm.rankingService = NewRankingService(sm.repo, sm.cacheManager, sm.logger, sm.config.RankingCacheTTL, sm.config.StoreTimeout)
	sm.lessonService = NewLessonService(sm.repo, sm.cacheManager, sm.logger, sm.validator)
	sm.exerciseService = NewExerciseService(sm.repo, sm.eventPublisher, sm.logger, sm.validator)
	sm.authService = NewAuthService(sm.repo, sm.cacheManager, sm.eventPublisher, sm.logger, sm.validator, sm.issuer, sm.verifier)
	sm.userService = NewUserService(sm.repo, sm.cacheManager, sm.eventPublisher, sm.logger, sm.validator)
	sm.roleService = NewRoleService(sm.repo, sm.logger, sm.validator)
	sm.statisticsService = NewStatisticsService(sm.repo, sm.cacheManager, sm.logger)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters

func (sm *serviceManager) Progress() ProgressService {
	sm.mustBeInitialized()
	return sm.progressService
}

func (sm *serviceManager) Ranking() RankingService {
	sm.mustBeInitialized()
	return sm.rankingService
}

func (sm *serviceManager) Lesson() LessonService {
	sm.mustBeInitialized()
	return sm.lessonService
}

func (sm *serviceManager) Exercise() ExerciseService {
	sm.mustBeInitialized()
	return sm.exerciseService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mustBeInitialized()
	return sm.authService
}

func (sm *serviceManager) User() UserService {
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *serviceManager) Role() RoleService {
	sm.mustBeInitialized()
	return sm.roleService
}

func (sm *serviceManager) Statistics() StatisticsService {
	sm.mustBeInitialized()
	return sm.statisticsService
}

func (sm *serviceManager) mustBeInitialized() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")
	sm.shutdown = true

	if sm.eventPublisher != nil {
		if err := sm.eventPublisher.Close(); err != nil {
			return fmt.Errorf("failed to close event publisher: %w", err)
		}
	}

	sm.logger.Info("Service manager shut down")
	return nil
}
