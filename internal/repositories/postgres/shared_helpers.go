package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
)

// SharedHelpers contains query-building helpers shared by the catalog repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyCatalogScope hides inactive items unless the caller may see them
func (h *SharedHelpers) ApplyCatalogScope(query *gorm.DB, table string, scope repositories.CatalogScope) *gorm.DB {
	if scope.IncludeInactive {
		return query
	}
	return query.Where(table+".status_id = ?", models.CatalogActive)
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_date":  true,
		"modified_date": true,
		"id":            true,
		"title":         true,
		"status_id":     true,
		"type":          true,
		"level":         true,
		"category":      true,
		"username":      true,
		"email":         true,
		"full_name":     true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_date"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	// id as secondary key keeps pages stable when the primary key ties
	query = query.Order(sortBy + " " + sortOrder)
	if sortBy != "id" {
		query = query.Order("id " + sortOrder)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// handleDBError wraps a database error with the failed operation
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}
