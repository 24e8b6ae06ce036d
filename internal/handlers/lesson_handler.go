package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/services"
	"github.com/ezenglish/learning-service/internal/utils"
)

type LessonHandler struct {
	BaseHandler
	lessonService   services.LessonService
	progressService services.ProgressService
}

func NewLessonHandler(lessonService services.LessonService, progressService services.ProgressService, logger utils.Logger) *LessonHandler {
	return &LessonHandler{
		BaseHandler:     NewBaseHandler(logger),
		lessonService:   lessonService,
		progressService: progressService,
	}
}

// CreateLesson creates a new lesson
// @Summary Create lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param lesson body models.LessonCreateRequest true "Lesson data"
// @Success 201 {object} SuccessResponse{data=models.Lesson}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Title already used by an active lesson"
// @Router /lessons [post]
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var req models.LessonCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Creating lesson", "title", req.Title)

	lesson, err := h.lessonService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "Lesson created", lesson)
}

// GetLesson retrieves a lesson by ID
// @Summary Get lesson
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} SuccessResponse{data=models.Lesson}
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id} [get]
func (h *LessonHandler) GetLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	lesson, err := h.lessonService.GetByID(c.Request.Context(), id, catalogScope(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Success", lesson)
}

// ListLessons lists lessons with filtering
// @Summary List lessons
// @Tags lessons
// @Produce json
// @Param filters query string false "Title substring"
// @Param category query string false "Category"
// @Param level query string false "Level"
// @Param id query int false "Lesson ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} SuccessResponse{data=[]models.Lesson}
// @Router /lessons [get]
func (h *LessonHandler) ListLessons(c *gin.Context) {
	id, ok := h.parseUintQueryPtr(c, "id")
	if !ok {
		return
	}

	filters := repositories.LessonFilters{
		Title:     c.Query("filters"),
		Category:  c.Query("category"),
		Level:     c.Query("level"),
		ID:        id,
		Scope:     catalogScope(c),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	page, err := h.lessonService.List(c.Request.Context(), filters, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", services.DefaultPageSize))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondPage(c, "Success", page)
}

// UpdateLesson updates a lesson
// @Summary Update lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param lesson body models.LessonUpdateRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=models.Lesson}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /lessons/{id} [put]
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.LessonUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Updating lesson", "lesson_id", id)

	lesson, err := h.lessonService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Lesson updated", lesson)
}

// DeleteLesson marks a lesson inactive
// @Summary Delete lesson
// @Tags lessons
// @Param id path int true "Lesson ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id} [delete]
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting lesson", "lesson_id", id)

	if err := h.lessonService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Lesson deleted", nil)
}

// RestoreLesson reactivates a deleted lesson
// @Summary Restore lesson
// @Tags lessons
// @Param id path int true "Lesson ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /lessons/{id}/restore [patch]
func (h *LessonHandler) RestoreLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Restoring lesson", "lesson_id", id)

	if err := h.lessonService.Restore(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Lesson restored", nil)
}

// ===== PROGRESS =====

// StudyLesson records lesson progress
// @Summary Record lesson progress
// @Description Starts, continues or ends a lesson for the caller, or for user_id when the caller is an admin
// @Tags lessons
// @Accept json
// @Produce json
// @Param user_id query int false "Target user (admin only when not the caller)"
// @Param progress body models.StudyLessonRequest true "Lesson and requested status"
// @Success 200 {object} SuccessResponse{data=models.UserLesson}
// @Failure 400 {object} ErrorResponse "Invalid status or transition"
// @Failure 404 {object} ErrorResponse "User or lesson not found"
// @Failure 409 {object} ErrorResponse
// @Router /lessons/study [post]
func (h *LessonHandler) StudyLesson(c *gin.Context) {
	userID, ok := h.resolveUserID(c)
	if !ok {
		return
	}

	var req models.StudyLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Recording lesson progress", "user_id", userID, "lesson_id", req.LessonID, "status_id", req.StatusID)

	progress, err := h.progressService.StudyLesson(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Success", progress)
}

// ListUserLessons lists a user's lesson progress
// @Summary List lesson progress
// @Tags lessons
// @Produce json
// @Param user_id query int false "Target user (admin only when not the caller)"
// @Success 200 {object} SuccessResponse{data=[]models.UserLesson}
// @Failure 404 {object} ErrorResponse
// @Router /lessons/user-lessons [get]
func (h *LessonHandler) ListUserLessons(c *gin.Context) {
	userID, ok := h.resolveUserID(c)
	if !ok {
		return
	}

	lessons, err := h.progressService.ListUserLessons(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Success", lessons)
}
