package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/validator"
)

type roleService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewRoleService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) RoleService {
	return &roleService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *roleService) List(ctx context.Context, filters repositories.RoleFilters, page, size int) (*models.PaginatedResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	roles, total, err := s.repo.Role().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	if roles == nil {
		roles = []*models.UserGroup{}
	}
	return models.NewPaginatedResponse(roles, total, page, size), nil
}

func (s *roleService) Create(ctx context.Context, req *models.RoleCreateRequest) (*models.UserGroup, error) {
	s.logger.Info("Creating role", "name", req.Name)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}
	if err := s.ensureNameAvailable(ctx, req.Name, 0); err != nil {
		return nil, err
	}

	role := &models.UserGroup{
		Name:        req.Name,
		Description: req.Description,
		Permission:  req.Permission,
		StatusID:    models.RoleActive,
	}
	if err := s.repo.Role().Create(ctx, role); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("role %q already exists", req.Name)
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.logger.Info("Role created", "role_id", role.ID)
	return role, nil
}

func (s *roleService) Update(ctx context.Context, id int16, req *models.RoleUpdateRequest) (*models.UserGroup, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	role, err := s.getActiveRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != role.Name {
		if err := s.ensureNameAvailable(ctx, *req.Name, id); err != nil {
			return nil, err
		}
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Permission != nil {
		role.Permission = *req.Permission
	}

	if err := s.repo.Role().Update(ctx, role); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("role %q already exists", role.Name)
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("Role updated", "role_id", id)
	return role, nil
}

// Delete retires a custom role that no active user holds
func (s *roleService) Delete(ctx context.Context, id int16) error {
	role, err := s.getActiveRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsBuiltIn() {
		return NewInvalidArgumentError("built-in role %q cannot be deleted", role.Name)
	}

	holders, err := s.repo.User().CountActiveByGroup(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count role members: %w", err)
	}
	if holders > 0 {
		return NewPreconditionFailedError("role %q is assigned to %d users", role.Name, holders)
	}

	if err := s.repo.Role().SetStatus(ctx, id, models.RoleInactive); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("role %d not found", id)
		}
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.logger.Info("Role deleted", "role_id", id)
	return nil
}

func (s *roleService) getActiveRole(ctx context.Context, id int16) (*models.UserGroup, error) {
	role, err := s.repo.Role().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("role %d not found", id)
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if !role.IsActive() {
		return nil, NewNotFoundError("role %d not found", id)
	}
	return role, nil
}

func (s *roleService) ensureNameAvailable(ctx context.Context, name string, excludeID int16) error {
	exists, err := s.repo.Role().ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check role name: %w", err)
	}
	if exists {
		return NewConflictError("role %q already exists", name)
	}
	return nil
}
