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

// Context keys set by the auth middleware
const (
	ContextUserKey     = "user"
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
)

// Response is the envelope every JSON endpoint returns
type Response struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Total      *int64      `json:"total,omitempty"`
	TotalPages *int        `json:"totalPages,omitempty"`
}

// ErrorResponse documents failed responses; data carries field errors when validation fails
type ErrorResponse = Response

// SuccessResponse documents successful responses
type SuccessResponse = Response

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// LogError logs a failure with the request-scoped logger
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err, "path", c.FullPath())
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

// RespondWithError aborts with an envelope carrying code and message
func (h *BaseHandler) RespondWithError(c *gin.Context, status, code int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
		Data:    details,
	})
}

func (h *BaseHandler) respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:    services.CodeSuccess,
		Message: message,
		Data:    data,
	})
}

func (h *BaseHandler) respondList(c *gin.Context, message string, data interface{}, total int64, totalPages int) {
	c.JSON(http.StatusOK, Response{
		Code:       services.CodeSuccess,
		Message:    message,
		Data:       data,
		Total:      &total,
		TotalPages: &totalPages,
	})
}

func (h *BaseHandler) respondPage(c *gin.Context, message string, page *models.PaginatedResponse) {
	h.respondList(c, message, page.Items, page.Total, page.TotalPages)
}

func (h *BaseHandler) badRequest(c *gin.Context, message string, details interface{}) {
	h.RespondWithError(c, http.StatusBadRequest, services.CodeBadRequest, message, details)
}

// handleServiceError maps a service error onto the envelope. Unexpected errors
// are logged and reported with a fixed message.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	code, status := services.ErrorStatus(err)
	if code == services.CodeInternal {
		h.LogError(c, err, "Request failed")
		h.RespondWithError(c, status, code, services.InternalErrorMessage, nil)
		return
	}

	var details interface{}
	if verrs := services.ValidationDetails(err); len(verrs) > 0 {
		details = verrs
	}
	h.RespondWithError(c, status, code, services.PublicMessage(err), details)
}

// parseIDParam returns 0 after responding when the path parameter is not a positive integer
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.badRequest(c, "Invalid "+name, nil)
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// parseUintQueryPtr reports ok=false after responding when the value is present but malformed
func (h *BaseHandler) parseUintQueryPtr(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.badRequest(c, "Invalid "+name, nil)
		return nil, false
	}
	id := uint(v)
	return &id, true
}

// currentUser returns the user set by the auth middleware
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// resolveUserID picks the target of a progress or ranking call. Without a
// user_id query parameter the caller is the target; only admins may name
// another user.
func (h *BaseHandler) resolveUserID(c *gin.Context) (uint, bool) {
	user := currentUser(c)
	if user == nil {
		h.RespondWithError(c, http.StatusUnauthorized, services.CodeUnauthorized, "User not authenticated", nil)
		return 0, false
	}

	raw := c.Query("user_id")
	if raw == "" {
		return user.ID, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		h.badRequest(c, "Invalid user_id", nil)
		return 0, false
	}
	if uint(id) != user.ID && !user.IsAdmin() {
		h.RespondWithError(c, http.StatusForbidden, services.CodeUnauthorized, "Cannot act on behalf of another user", nil)
		return 0, false
	}
	return uint(id), true
}

// catalogScope widens catalog visibility for admins
func catalogScope(c *gin.Context) repositories.CatalogScope {
	user := currentUser(c)
	if user != nil && user.IsAdmin() {
		return repositories.CatalogScope{IncludeInactive: true, IncludeAnswers: true}
	}
	return repositories.CatalogScope{}
}
