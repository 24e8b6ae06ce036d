package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/config"
	"github.com/ezenglish/learning-service/internal/events"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/repositories/postgres"
	"github.com/ezenglish/learning-service/internal/services"
	"github.com/ezenglish/learning-service/internal/validator"
	"github.com/ezenglish/learning-service/pkg"
)

// app holds the wired dependency graph shared by the commands
type app struct {
	cfg            *config.Config
	logger         *slog.Logger
	db             *gorm.DB
	redisClient    *redis.Client
	repoManager    repositories.RepositoryManager
	serviceManager services.ServiceManager
}

func loadConfigAndLogger() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newApp connects to the stores and initializes every service
func newApp(ctx context.Context, runMigrations bool) (*app, error) {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return nil, err
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: db}

	if runMigrations {
		if err := pkg.RunMigrations(db, false); err != nil {
			a.close(ctx)
			return nil, err
		}
		logger.Info("Migrations applied")
	}

	// Redis is optional; without it every cache lookup falls through to the store
	if cfg.RedisURL != "" {
		a.redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, continuing without cache", "error", err)
			a.redisClient = nil
		}
	}

	a.repoManager = postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: a.redisClient,
	})
	if err := a.repoManager.Initialize(); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.EventsTopic, logger)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}

	var (
		jwtManager *services.JWTManager
		issuer     services.TokenIssuer
	)
	if cfg.Auth.Provider == config.AuthProviderLocal {
		jwtManager = services.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		issuer = jwtManager
	}
	verifier, err := services.NewTokenVerifier(cfg, jwtManager)
	if err != nil {
		_ = publisher.Close()
		a.close(ctx)
		return nil, err
	}

	a.serviceManager = services.NewServiceManager(services.ServiceDeps{
		Repo:           a.repoManager.GetRepository(),
		CacheManager:   cache.NewCacheManager(a.redisClient),
		EventPublisher: publisher,
		Logger:         logger,
		Validator:      validator.New(),
		Issuer:         issuer,
		Verifier:       verifier,
	}, services.NewServiceManagerConfig(cfg))
	if err := a.serviceManager.Initialize(ctx); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return a, nil
}

// close releases everything newApp opened, in reverse order
func (a *app) close(ctx context.Context) {
	if a.serviceManager != nil {
		if err := a.serviceManager.Shutdown(ctx); err != nil {
			a.logger.Error("Failed to shutdown services", "error", err)
		}
	}

	if a.repoManager != nil && a.repoManager.GetRepository() != nil {
		if err := a.repoManager.Shutdown(ctx); err != nil {
			a.logger.Error("Failed to close repositories", "error", err)
		}
	} else if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
}
