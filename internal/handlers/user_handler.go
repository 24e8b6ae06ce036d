package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/services"
	"github.com/ezenglish/learning-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// ListUsers lists accounts
// @Summary List users
// @Description Active accounts by default; include_disabled=true adds deleted ones
// @Tags users
// @Produce json
// @Param filters query string false "Substring of username, email or full name"
// @Param group_id query int false "Role ID"
// @Param include_disabled query bool false "Include deleted accounts"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} SuccessResponse{data=[]models.User}
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	filters := repositories.UserFilters{
		Query:           c.Query("filters"),
		IncludeDisabled: c.Query("include_disabled") == "true",
		SortBy:          c.Query("sort_by"),
		SortOrder:       c.Query("sort_order"),
	}
	if raw := c.Query("group_id"); raw != "" {
		group, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			h.badRequest(c, "Invalid group_id", nil)
			return
		}
		g := int16(group)
		filters.GroupID = &g
	}

	h.LogRequest(c, "Listing users", "filters", filters.Query)

	page, err := h.userService.List(c.Request.Context(), filters, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", services.DefaultPageSize))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondPage(c, "Success", page)
}

// GetUser retrieves a user by ID
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} SuccessResponse{data=models.User}
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Success", user)
}

// CreateUser creates an account on behalf of an admin
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.UserCreateRequest true "User data"
// @Success 201 {object} SuccessResponse{data=models.User}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Username or email already registered"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Creating user", "username", req.Username)

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "User created", user)
}

// UpdateUser updates profile fields and the role
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body models.UserUpdateRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=models.User}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Updating user", "user_id", id)

	user, err := h.userService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "User updated", user)
}

// DeleteUser disables an account
// @Summary Delete user
// @Tags users
// @Param id path int true "User ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if user := currentUser(c); user != nil && user.ID == id {
		h.badRequest(c, "Cannot delete your own account", nil)
		return
	}

	h.LogRequest(c, "Deleting user", "user_id", id)

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "User deleted", nil)
}

// RestoreUser re-enables a deleted account
// @Summary Restore user
// @Tags users
// @Param id path int true "User ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/restore [patch]
func (h *UserHandler) RestoreUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Restoring user", "user_id", id)

	if err := h.userService.Restore(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "User restored", nil)
}

// ChangePassword changes a password
// @Summary Change password
// @Description Users change their own password with old_password; admins may reset anyone's
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param password body models.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse "Old password is incorrect"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Changing password", "user_id", id)

	if err := h.userService.ChangePassword(c.Request.Context(), currentUser(c), id, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Password changed", nil)
}
