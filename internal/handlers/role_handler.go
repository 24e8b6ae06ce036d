package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/services"
	"github.com/ezenglish/learning-service/internal/utils"
)

type RoleHandler struct {
	BaseHandler
	roleService services.RoleService
}

func NewRoleHandler(roleService services.RoleService, logger utils.Logger) *RoleHandler {
	return &RoleHandler{
		BaseHandler: NewBaseHandler(logger),
		roleService: roleService,
	}
}

// ListRoles lists active roles
// @Summary List roles
// @Tags roles
// @Produce json
// @Param filters query string false "Exact name or permission"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} SuccessResponse{data=[]models.UserGroup}
// @Router /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	filters := repositories.RoleFilters{Query: c.Query("filters")}

	page, err := h.roleService.List(c.Request.Context(), filters, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", services.DefaultPageSize))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondPage(c, "Success", page)
}

// CreateRole adds a role
// @Summary Create role
// @Tags roles
// @Accept json
// @Produce json
// @Param role body models.RoleCreateRequest true "Role data"
// @Success 201 {object} SuccessResponse{data=models.UserGroup}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Name already used"
// @Router /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req models.RoleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Creating role", "name", req.Name)

	role, err := h.roleService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "Role created", role)
}

// UpdateRole edits a role
// @Summary Update role
// @Tags roles
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param role body models.RoleUpdateRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=models.UserGroup}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := h.parseRoleID(c)
	if !ok {
		return
	}

	var req models.RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Updating role", "role_id", id)

	role, err := h.roleService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Role updated", role)
}

// DeleteRole retires a custom role
// @Summary Delete role
// @Tags roles
// @Param id path int true "Role ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "Built-in role"
// @Failure 404 {object} ErrorResponse
// @Failure 412 {object} ErrorResponse "Role still assigned"
// @Router /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := h.parseRoleID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting role", "role_id", id)

	if err := h.roleService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Role deleted", nil)
}

func (h *RoleHandler) parseRoleID(c *gin.Context) (int16, bool) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return 0, false
	}
	if id > math.MaxInt16 {
		h.badRequest(c, "Invalid id", nil)
		return 0, false
	}
	return int16(id), true
}
