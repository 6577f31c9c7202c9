package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/services"
)

const (
	contextKeyClaims = "auth_claims"
	contextKeyUserID = "user_id"
	contextKeyRole   = "user_role"
)

// AuthMiddleware validates the Bearer token and stores the caller's identity
// in the request context.
type AuthMiddleware struct {
	auth services.AuthService
}

func NewAuthMiddleware(auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or malformed Authorization header",
			})
			return
		}

		claims, err := m.auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole gates a route to the given roles.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(contextKeyRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}
		role := value.(models.UserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
		})
	}
}
