package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ezenglish/learning-service/internal/services"
	"github.com/ezenglish/learning-service/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

type HandlerManager struct {
	serviceManager    services.ServiceManager
	logger            utils.Logger
	authHandler       *AuthHandler
	lessonHandler     *LessonHandler
	exerciseHandler   *ExerciseHandler
	statisticsHandler *StatisticsHandler
	userHandler       *UserHandler
	roleHandler       *RoleHandler
	authMiddleware    *AuthMiddleware
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager:    serviceManager,
		logger:            logger,
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		lessonHandler:     NewLessonHandler(serviceManager.Lesson(), serviceManager.Progress(), logger),
		exerciseHandler:   NewExerciseHandler(serviceManager.Exercise(), serviceManager.Progress(), serviceManager.Ranking(), logger),
		statisticsHandler: NewStatisticsHandler(serviceManager.Statistics(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		roleHandler:       NewRoleHandler(serviceManager.Role(), logger),
		authMiddleware:    NewAuthMiddleware(serviceManager.Auth(), logger),
	}
}

// NewRouter builds a gin engine with middleware and every route registered
func NewRouter(serviceManager services.ServiceManager, logger utils.Logger) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, logger)
	NewHandlerManager(serviceManager, logger).SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	requireAuth := hm.authMiddleware.RequireAuth()
	requireAdmin := hm.authMiddleware.RequireAdmin()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", hm.authHandler.Register)
			auth.POST("/login", hm.authHandler.Login)
			auth.GET("/me", requireAuth, hm.authHandler.Me)
		}

		lessons := v1.Group("/lessons")
		lessons.Use(requireAuth)
		{
			lessons.GET("", hm.lessonHandler.ListLessons)
			lessons.GET("/user-lessons", hm.lessonHandler.ListUserLessons)
			lessons.POST("/study", hm.lessonHandler.StudyLesson)
			lessons.GET("/:id", hm.lessonHandler.GetLesson)

			// Catalog management - Admins only
			lessons.POST("", requireAdmin, hm.lessonHandler.CreateLesson)
			lessons.PUT("/:id", requireAdmin, hm.lessonHandler.UpdateLesson)
			lessons.DELETE("/:id", requireAdmin, hm.lessonHandler.DeleteLesson)
			lessons.PATCH("/:id/restore", requireAdmin, hm.lessonHandler.RestoreLesson)
		}

		exercises := v1.Group("/exercises")
		exercises.Use(requireAuth)
		{
			exercises.GET("", hm.exerciseHandler.ListExercises)
			exercises.POST("/do-exercise", hm.exerciseHandler.DoExercise)
			exercises.GET("/ranking-list", hm.exerciseHandler.ListRankings)
			exercises.GET("/ranking-list-user", hm.exerciseHandler.GetUserRanking)
			exercises.GET("/:id", hm.exerciseHandler.GetExercise)

			exercises.POST("", requireAdmin, hm.exerciseHandler.CreateExercise)
			exercises.POST("/import", requireAdmin, hm.exerciseHandler.ImportExercises)
			exercises.GET("/ranking-list/export", requireAdmin, hm.exerciseHandler.ExportRankings)
			exercises.PUT("/:id", requireAdmin, hm.exerciseHandler.UpdateExercise)
			exercises.DELETE("/:id", requireAdmin, hm.exerciseHandler.DeleteExercise)
			exercises.PATCH("/:id/restore", requireAdmin, hm.exerciseHandler.RestoreExercise)
		}

		users := v1.Group("/users")
		users.Use(requireAuth)
		{
			// Self or admin, checked by the service
			users.PUT("/:id/password", hm.userHandler.ChangePassword)

			users.GET("", requireAdmin, hm.userHandler.ListUsers)
			users.POST("", requireAdmin, hm.userHandler.CreateUser)
			users.GET("/:id", requireAdmin, hm.userHandler.GetUser)
			users.PUT("/:id", requireAdmin, hm.userHandler.UpdateUser)
			users.DELETE("/:id", requireAdmin, hm.userHandler.DeleteUser)
			users.PATCH("/:id/restore", requireAdmin, hm.userHandler.RestoreUser)
		}

		roles := v1.Group("/roles")
		roles.Use(requireAuth, requireAdmin)
		{
			roles.GET("", hm.roleHandler.ListRoles)
			roles.POST("", hm.roleHandler.CreateRole)
			roles.PUT("/:id", hm.roleHandler.UpdateRole)
			roles.DELETE("/:id", hm.roleHandler.DeleteRole)
		}

		statistics := v1.Group("/statistics")
		statistics.Use(requireAuth, requireAdmin)
		{
			statistics.GET("/user-growth", hm.statisticsHandler.GetUserGrowth)
		}
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "learning-service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "learning-service",
	})
}
