package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/ezenglish/learning-service/internal/cache"
	"github.com/ezenglish/learning-service/internal/events"
	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/validator"
)

type userService struct {
	repo           repositories.Repository
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewUserService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:           repo,
		cacheManager:   cacheManager,
		eventPublisher: publisher,
		logger:         logger,
		validator:      validator,
	}
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, page, size int) (*models.PaginatedResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return models.NewPaginatedResponse(users, total, page, size), nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getUser(ctx, id)
}

func (s *userService) Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	s.logger.Info("Creating user", "username", req.Username, "group", req.GroupID)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	group := req.GroupID
	if group == 0 {
		group = models.GroupUser
	}
	if err := s.ensureRoleUsable(ctx, group); err != nil {
		return nil, err
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
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		UserGroupID:  group,
		StatusID:     models.UserActive,
	}
	if err := createUser(ctx, s.repo, s.cacheManager, s.eventPublisher, s.logger, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *models.UserUpdateRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.repo.User().ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, NewConflictError("email %q already registered", *req.Email)
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.GroupID != nil && *req.GroupID != user.UserGroupID {
		if err := s.ensureRoleUsable(ctx, *req.GroupID); err != nil {
			return nil, err
		}
		user.UserGroupID = *req.GroupID
		user.UserGroup = nil
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("email %q already registered", user.Email)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", id)
	return user, nil
}

// Delete disables the account; existing tokens stop authenticating
func (s *userService) Delete(ctx context.Context, id uint) error {
	if err := s.setStatus(ctx, id, models.UserDisabled); err != nil {
		return err
	}
	s.logger.Info("User deleted", "user_id", id)
	return nil
}

func (s *userService) Restore(ctx context.Context, id uint) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if user.IsActive() {
		return nil
	}
	if err := s.setStatus(ctx, id, models.UserActive); err != nil {
		return err
	}
	s.logger.Info("User restored", "user_id", id)
	return nil
}

// ChangePassword lets users change their own password after proving the old
// one. Admins may reset anyone else's password without it.
func (s *userService) ChangePassword(ctx context.Context, actor *models.User, id uint, req *models.ChangePasswordRequest) error {
	if actor == nil {
		return NewUnauthorizedError("user not authenticated")
	}
	self := actor.ID == id
	if !self && !actor.IsAdmin() {
		return NewForbiddenError("cannot change another user's password")
	}
	if err := s.validator.Validate(req); err != nil {
		return NewValidationError(err)
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if self {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			return NewUnauthorizedError("old password is incorrect")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.repo.User().Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed", "user_id", id, "actor_id", actor.ID)
	return nil
}

func (s *userService) setStatus(ctx context.Context, id uint, status models.UserStatus) error {
	if err := s.repo.User().SetStatus(ctx, id, status); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("user %d not found", id)
		}
		return fmt.Errorf("failed to set user status: %w", err)
	}
	cache.InvalidateStatsCache(ctx, s.cacheManager)
	return nil
}

func (s *userService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("user %d not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ensureRoleUsable rejects assignment to a missing or deleted role
func (s *userService) ensureRoleUsable(ctx context.Context, groupID int16) error {
	role, err := s.repo.Role().GetByID(ctx, groupID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewInvalidArgumentError("role %d does not exist", groupID)
		}
		return fmt.Errorf("failed to get role: %w", err)
	}
	if !role.IsActive() {
		return NewInvalidArgumentError("role %d does not exist", groupID)
	}
	return nil
}
