package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User groups as seeded in user_groups
const (
	GroupAdmin int16 = 1
	GroupUser  int16 = 2
)

type UserStatus int16

const (
	UserActive   UserStatus = 1
	UserDisabled UserStatus = 2
)

// RoleStatus marks a user group as usable or deleted
type RoleStatus int16

const (
	RoleActive   RoleStatus = 1
	RoleInactive RoleStatus = 2
)

// UserGroup is a role; ids 1 and 2 are the built-in admin and user groups
type UserGroup struct {
	ID          int16      `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"size:50;not null;uniqueIndex"`
	Description string     `json:"description" gorm:"size:255"`
	Permission  string     `json:"permission" gorm:"size:255"`
	StatusID    RoleStatus `json:"status_id" gorm:"not null;default:1"`

	CreatedDate  time.Time  `json:"created_date" gorm:"autoCreateTime"`
	ModifiedDate time.Time  `json:"modified_date" gorm:"autoUpdateTime"`
	DeletedDate  *time.Time `json:"deleted_date,omitempty"`
}

func (UserGroup) TableName() string {
	return "user_groups"
}

func (g *UserGroup) IsActive() bool {
	return g.StatusID == RoleActive
}

// IsBuiltIn reports whether the group is one the authorization layer depends on
func (g *UserGroup) IsBuiltIn() bool {
	return g.ID == GroupAdmin || g.ID == GroupUser
}

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Email        string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	FullName     string     `json:"full_name" gorm:"size:255"`
	PhoneNumber  string     `json:"phone_number" gorm:"size:20"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	UserGroupID  int16      `json:"user_group_id" gorm:"not null;default:2"`
	UserGroup    *UserGroup `json:"user_group,omitempty" gorm:"foreignKey:UserGroupID"`
	StatusID     UserStatus `json:"status_id" gorm:"not null;default:1"`

	CreatedDate  time.Time  `json:"created_date" gorm:"autoCreateTime"`
	ModifiedDate time.Time  `json:"modified_date" gorm:"autoUpdateTime"`
	DeletedDate  *time.Time `json:"deleted_date,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Role maps the user group onto the role used for authorization
func (u *User) Role() UserRole {
	if u.UserGroupID == GroupAdmin {
		return RoleAdmin
	}
	return RoleUser
}

func (u *User) IsAdmin() bool {
	return u.Role() == RoleAdmin
}

func (u *User) IsActive() bool {
	return u.StatusID != UserDisabled && u.DeletedDate == nil
}
