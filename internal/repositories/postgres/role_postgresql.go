package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

type RolePostgreSQL struct {
	db *gorm.DB
}

func NewRolePostgreSQL(db *gorm.DB) repositories.RoleRepository {
	return &RolePostgreSQL{db: db}
}

func (r *RolePostgreSQL) Create(ctx context.Context, role *models.UserGroup) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		return handleDBError(err, "create role")
	}
	return nil
}

func (r *RolePostgreSQL) GetByID(ctx context.Context, id int16) (*models.UserGroup, error) {
	var role models.UserGroup
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, handleDBError(err, "get role by id")
	}
	return &role, nil
}

// ExistsByName checks every role, deleted ones included, since names stay unique
func (r *RolePostgreSQL) ExistsByName(ctx context.Context, name string, excludeID int16) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.UserGroup{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, handleDBError(err, "check role name")
	}
	return count > 0, nil
}

func (r *RolePostgreSQL) Update(ctx context.Context, role *models.UserGroup) error {
	if err := r.db.WithContext(ctx).Save(role).Error; err != nil {
		return handleDBError(err, "update role")
	}
	return nil
}

func (r *RolePostgreSQL) SetStatus(ctx context.Context, id int16, status models.RoleStatus) error {
	updates := map[string]interface{}{"status_id": status}
	if status == models.RoleInactive {
		updates["deleted_date"] = gorm.Expr("now()")
	} else {
		updates["deleted_date"] = nil
	}

	result := r.db.WithContext(ctx).Model(&models.UserGroup{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return handleDBError(result.Error, "set role status")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "set role status")
	}
	return nil
}

func (r *RolePostgreSQL) List(ctx context.Context, filters repositories.RoleFilters) ([]*models.UserGroup, int64, error) {
	var roles []*models.UserGroup
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UserGroup{})
	if !filters.IncludeInactive {
		query = query.Where("status_id = ?", models.RoleActive)
	}
	if filters.Query != "" {
		query = query.Where("name = ? OR permission = ?", filters.Query, filters.Query)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count roles")
	}

	query = query.Order("id ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	if err := query.Find(&roles).Error; err != nil {
		return nil, 0, handleDBError(err, "list roles")
	}

	return roles, total, nil
}
