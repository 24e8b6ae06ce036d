package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/services"
	"github.com/ezenglish/learning-service/internal/utils"
)

// AuthMiddleware authenticates bearer tokens through the AuthService
type AuthMiddleware struct {
	BaseHandler
	auth services.AuthService
}

func NewAuthMiddleware(auth services.AuthService, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
	}
}

// RequireAuth rejects requests without a valid token for an active user
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.RespondWithError(c, http.StatusUnauthorized, services.CodeUnauthorized, "authorization header missing", nil)
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
			m.RespondWithError(c, http.StatusUnauthorized, services.CodeUnauthorized, "invalid authorization header format", nil)
			return
		}

		user, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			m.handleServiceError(c, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserRoleKey, user.Role())

		c.Next()
	}
}

// RequireRole admits users holding any of roles; admins always pass
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			m.RespondWithError(c, http.StatusUnauthorized, services.CodeUnauthorized, "User not authenticated", nil)
			return
		}

		role := user.Role()
		allowed := role == models.RoleAdmin
		for _, r := range roles {
			if role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			m.RespondWithError(c, http.StatusForbidden, services.CodeUnauthorized, "insufficient permissions", nil)
			return
		}

		c.Next()
	}
}

// RequireAdmin is RequireRole with no extra roles
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole()
}
