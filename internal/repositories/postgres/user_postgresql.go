package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

type UserPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}
	return nil
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("UserGroup").First(&user, id).Error; err != nil {
		return nil, handleDBError(err, "get user by id")
	}
	return &user, nil
}

func (r *UserPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("UserGroup").
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, handleDBError(err, "get user by username")
	}
	return &user, nil
}

func (r *UserPostgreSQL) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, handleDBError(err, "check user exists")
	}
	return count > 0, nil
}

func (r *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, handleDBError(err, "check user email")
	}
	return count > 0, nil
}

func (r *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"email":         user.Email,
			"full_name":     user.FullName,
			"phone_number":  user.PhoneNumber,
			"password_hash": user.PasswordHash,
			"user_group_id": user.UserGroupID,
		})
	if result.Error != nil {
		return handleDBError(result.Error, "update user")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "update user")
	}
	return nil
}

func (r *UserPostgreSQL) SetStatus(ctx context.Context, id uint, status models.UserStatus) error {
	updates := map[string]interface{}{"status_id": status}
	if status == models.UserDisabled {
		updates["deleted_date"] = gorm.Expr("now()")
	} else {
		updates["deleted_date"] = nil
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return handleDBError(result.Error, "set user status")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "set user status")
	}
	return nil
}

func (r *UserPostgreSQL) CountActiveByGroup(ctx context.Context, groupID int16) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_group_id = ? AND status_id = ?", groupID, models.UserActive).
		Count(&count).Error
	if err != nil {
		return 0, handleDBError(err, "count users by group")
	}
	return count, nil
}

func (r *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if !filters.IncludeDisabled {
		query = query.Where("status_id = ?", models.UserActive)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ? OR full_name ILIKE ?", like, like, like)
	}
	if filters.GroupID != nil {
		query = query.Where("user_group_id = ?", *filters.GroupID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count users")
	}

	query = r.helpers.ApplyPaginationAndSort(query.Preload("UserGroup"), filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list users")
	}

	return users, total, nil
}
