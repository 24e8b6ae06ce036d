package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/events"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/validator"
)

type authService struct {
	repo           repositories.Repository
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	issuer         TokenIssuer
	verifier       TokenVerifier
}

// NewAuthService wires password login (issuer) and bearer verification (verifier).
// issuer may be nil when an external provider mints tokens.
func NewAuthService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, issuer TokenIssuer, verifier TokenVerifier) AuthService {
	return &authService{
		repo:           repo,
		cacheManager:   cacheManager,
		eventPublisher: publisher,
		logger:         logger,
		validator:      validator,
		issuer:         issuer,
		verifier:       verifier,
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest, group int16) (*models.User, error) {
	s.logger.Info("Registering user", "username", req.Username, "group", group)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	exists, err := s.repo.User().ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return nil, NewConflictError("username or email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		UserGroupID:  group,
		StatusID:     models.UserActive,
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}
	if s.issuer == nil {
		return nil, NewForbiddenError("password login is disabled")
	}

	user, err := s.repo.User().GetByUsername(ctx, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewUnauthorizedError("invalid username or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive() {
		return nil, NewUnauthorizedError("account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewUnauthorizedError("invalid username or password")
	}

	token, expiresAt, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID)

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// Authenticate reloads the token's user on every call and rejects disabled accounts
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	identity, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByUsername(ctx, identity.Username)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if !identity.External {
			return nil, NewUnauthorizedError("user no longer exists")
		}
		if user, err = s.provision(ctx, identity); err != nil {
			return nil, err
		}
	}

	if !user.IsActive() {
		return nil, NewUnauthorizedError("account is disabled")
	}
	if identity.External {
		if err := s.syncAdmin(ctx, user, identity.IsAdmin); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// syncAdmin follows the provider's admin flag. Non-admin users keep any
// custom group assigned locally.
func (s *authService) syncAdmin(ctx context.Context, user *models.User, isAdmin bool) error {
	if user.IsAdmin() == isAdmin {
		return nil
	}
	group := models.GroupUser
	if isAdmin {
		group = models.GroupAdmin
	}
	previous := user.UserGroupID
	user.UserGroupID = group
	user.UserGroup = nil
	if err := s.repo.User().Update(ctx, user); err != nil {
		return fmt.Errorf("failed to sync user group: %w", err)
	}
	s.logger.Info("User group synced from identity provider", "user_id", user.ID, "from", previous, "to", group)
	return nil
}

func (s *authService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("user %d not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// provision creates the local row for a first-time external identity
func (s *authService) provision(ctx context.Context, identity *Identity) (*models.User, error) {
	group := models.GroupUser
	if identity.IsAdmin {
		group = models.GroupAdmin
	}
	user := &models.User{
		Username:    identity.Username,
		Email:       identity.Email,
		FullName:    identity.DisplayName,
		UserGroupID: group,
		StatusID:    models.UserActive,
	}
	if user.Email == "" {
		user.Email = identity.Username + "@external"
	}

	if err := s.createUser(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			// Another request provisioned the same identity first
			existing, getErr := s.repo.User().GetByUsername(ctx, identity.Username)
			if getErr != nil {
				return nil, fmt.Errorf("failed to get user: %w", getErr)
			}
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) createUser(ctx context.Context, user *models.User) error {
	return createUser(ctx, s.repo, s.cacheManager, s.eventPublisher, s.logger, user)
}

// createUser stores a new account and announces it
func createUser(ctx context.Context, repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, user *models.User) error {
	if err := repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return NewConflictError("username or email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("User created", "user_id", user.ID, "username", user.Username)
	cache.InvalidateStatsCache(ctx, cacheManager)

	if publisher != nil {
		event := events.NewEvent(events.EventUserRegistered, events.UserRegisteredData{
			UserID:   user.ID,
			Username: user.Username,
		})
		if err := publisher.Publish(ctx, event); err != nil {
			logger.Error("Failed to publish user event", "error", err, "user_id", user.ID)
		}
	}
	return nil
}
