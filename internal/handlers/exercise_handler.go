package handlers

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/services"
	"github.com/ezenglish/learning-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxImportSize caps uploaded workbooks
const maxImportSize = 10 << 20

type ExerciseHandler struct {
	BaseHandler
	exerciseService services.ExerciseService
	progressService services.ProgressService
	rankingService  services.RankingService
}

func NewExerciseHandler(
	exerciseService services.ExerciseService,
	progressService services.ProgressService,
	rankingService services.RankingService,
	logger utils.Logger,
) *ExerciseHandler {
	return &ExerciseHandler{
		BaseHandler:     NewBaseHandler(logger),
		exerciseService: exerciseService,
		progressService: progressService,
		rankingService:  rankingService,
	}
}

// CreateExercise creates an exercise under an active lesson
// @Summary Create exercise
// @Tags exercises
// @Accept json
// @Produce json
// @Param exercise body models.ExerciseCreateRequest true "Exercise data"
// @Success 201 {object} SuccessResponse{data=models.Exercise}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Lesson not found"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req models.ExerciseCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Creating exercise", "lesson_id", req.LessonID, "title", req.Title)

	exercise, err := h.exerciseService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "Exercise created", exercise)
}

// GetExercise retrieves an exercise; the correct answer is only shown to admins
// @Summary Get exercise
// @Tags exercises
// @Produce json
// @Param id path int true "Exercise ID"
// @Success 200 {object} SuccessResponse{data=models.Exercise}
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	exercise, err := h.exerciseService.GetByID(c.Request.Context(), id, catalogScope(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Success", exercise)
}

// ListExercises lists exercises with filtering
// @Summary List exercises
// @Tags exercises
// @Produce json
// @Param filters query string false "Exact title"
// @Param lesson_id query int false "Lesson ID"
// @Param type query string false "Exercise type"
// @Param id query int false "Exercise ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} SuccessResponse{data=[]models.Exercise}
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	lessonID, ok := h.parseUintQueryPtr(c, "lesson_id")
	if !ok {
		return
	}
	id, ok := h.parseUintQueryPtr(c, "id")
	if !ok {
		return
	}

	filters := repositories.ExerciseFilters{
		Title:     c.Query("filters"),
		LessonID:  lessonID,
		ID:        id,
		Scope:     catalogScope(c),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if t := c.Query("type"); t != "" {
		exerciseType := models.ExerciseType(t)
		filters.Type = &exerciseType
	}

	page, err := h.exerciseService.List(c.Request.Context(), filters, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", services.DefaultPageSize))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondPage(c, "Success", page)
}

// UpdateExercise updates an exercise
// @Summary Update exercise
// @Tags exercises
// @Accept json
// @Produce json
// @Param id path int true "Exercise ID"
// @Param exercise body models.ExerciseUpdateRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=models.Exercise}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.ExerciseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Updating exercise", "exercise_id", id)

	exercise, err := h.exerciseService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Exercise updated", exercise)
}

// DeleteExercise marks an exercise inactive
// @Summary Delete exercise
// @Tags exercises
// @Param id path int true "Exercise ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting exercise", "exercise_id", id)

	if err := h.exerciseService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Exercise deleted", nil)
}

// RestoreExercise reactivates a deleted exercise
// @Summary Restore exercise
// @Tags exercises
// @Param id path int true "Exercise ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id}/restore [patch]
func (h *ExerciseHandler) RestoreExercise(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Restoring exercise", "exercise_id", id)

	if err := h.exerciseService.Restore(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Exercise restored", nil)
}

// ImportExercises bulk-creates exercises from an uploaded workbook
// @Summary Import exercises
// @Description Columns: lesson_id, title, description, type, content, options (id:text|id:text), correct_answer, duration
// @Tags exercises
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook (.xlsx)"
// @Success 200 {object} SuccessResponse{data=models.ImportResult}
// @Failure 400 {object} ErrorResponse
// @Router /exercises/import [post]
func (h *ExerciseHandler) ImportExercises(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "file is required", nil)
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		h.badRequest(c, "only .xlsx files are supported", nil)
		return
	}
	if header.Size > maxImportSize {
		h.badRequest(c, "file is too large", nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open upload")
		h.badRequest(c, "could not read file", nil)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing exercises", "filename", header.Filename, "size", header.Size)

	result, err := h.exerciseService.Import(c.Request.Context(), file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Import finished", result)
}

// ===== PROGRESS =====

// DoExercise records one answer, or a batch when the body is an array
// @Summary Submit exercise answers
// @Description A single object returns the saved record. An array is processed item by item; failed items are skipped and the rest are returned in input order.
// @Tags exercises
// @Accept json
// @Produce json
// @Param user_id query int false "Target user (admin only when not the caller)"
// @Param answers body models.DoExerciseRequest true "One answer or an array of answers"
// @Success 200 {object} SuccessResponse{data=models.UserExercise}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 412 {object} ErrorResponse "Lesson not started"
// @Router /exercises/do-exercise [post]
func (h *ExerciseHandler) DoExercise(c *gin.Context) {
	userID, ok := h.resolveUserID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var reqs []models.DoExerciseRequest
		if err := binding.JSON.BindBody(trimmed, &reqs); err != nil {
			h.badRequest(c, "Invalid request payload", err.Error())
			return
		}

		h.LogRequest(c, "Recording exercise batch", "user_id", userID, "count", len(reqs))

		saved := h.progressService.DoExercises(c.Request.Context(), userID, reqs)
		h.respondList(c, "Success", saved, int64(len(saved)), 1)
		return
	}

	var req models.DoExerciseRequest
	if err := binding.JSON.BindBody(trimmed, &req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Recording exercise progress", "user_id", userID, "exercise_id", req.ExerciseID, "status_id", req.StatusID)

	progress, err := h.progressService.DoExercise(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Success", progress)
}

// ===== RANKING =====

// ListRankings returns the full leaderboard
// @Summary Get all rankings
// @Tags ranking
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.RankingEntry}
// @Router /exercises/ranking-list [get]
func (h *ExerciseHandler) ListRankings(c *gin.Context) {
	entries, err := h.rankingService.GetAllRankings(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondList(c, "Success", entries, int64(len(entries)), 1)
}

// GetUserRanking returns one user's leaderboard entry
// @Summary Get user ranking
// @Tags ranking
// @Produce json
// @Param user_id query int false "Target user (admin only when not the caller)"
// @Success 200 {object} SuccessResponse{data=models.RankingEntry}
// @Failure 404 {object} ErrorResponse "User has no scored exercises"
// @Router /exercises/ranking-list-user [get]
func (h *ExerciseHandler) GetUserRanking(c *gin.Context) {
	userID, ok := h.resolveUserID(c)
	if !ok {
		return
	}

	entry, err := h.rankingService.GetRanking(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Success", entry)
}

// ExportRankings downloads the leaderboard as a workbook
// @Summary Export rankings
// @Tags ranking
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /exercises/ranking-list/export [get]
func (h *ExerciseHandler) ExportRankings(c *gin.Context) {
	h.LogRequest(c, "Exporting rankings")

	var buf bytes.Buffer
	if err := h.rankingService.ExportRankings(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := "ranking-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
