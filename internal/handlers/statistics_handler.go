package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ezenglish/learning-service/internal/services"
	"github.com/ezenglish/learning-service/internal/utils"
)

type StatisticsHandler struct {
	BaseHandler
	service services.StatisticsService
}

func NewStatisticsHandler(service services.StatisticsService, logger utils.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetUserGrowth reports cumulative sign-ups per month
// @Summary User growth
// @Tags statistics
// @Produce json
// @Param months query int false "Number of months including the current one (1-12, default 3)"
// @Success 200 {object} SuccessResponse{data=models.UserGrowthStats}
// @Failure 400 {object} ErrorResponse
// @Router /statistics/user-growth [get]
func (h *StatisticsHandler) GetUserGrowth(c *gin.Context) {
	months := 0
	if raw := c.Query("months"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, "Invalid months", nil)
			return
		}
		months = v
	}

	stats, err := h.service.UserGrowth(c.Request.Context(), months)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Success", stats)
}
