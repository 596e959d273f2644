package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/models"
	"github.com/maintenix/maintenix-api/services"
)

// scopeKey is the gin context key holding the caller's resolved scope
const scopeKey = "scope"

// RequireAuth is a middleware that validates the Bearer token of a request
// and stores the caller's scope (identity, role, selected company) in the
// gin context for handlers downstream.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_TOKEN",
					"message": "Authorization header with Bearer token is required",
				},
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		cfg := config.GetConfig()
		claims, err := services.ParseToken(cfg.JWTSecret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate token",
				},
			})
			c.Abort()
			return
		}

		c.Set(scopeKey, services.Scope{
			Username:       claims.Subject,
			TechnicianName: claims.Name,
			Role:           claims.Role,
			CompanyID:      claims.CompanyID,
		})

		c.Next()
	}
}

// RequireAdmin is a middleware that rejects callers without the admin role.
// Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := GetScope(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract caller identity",
				},
			})
			c.Abort()
			return
		}

		if scope.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Administrator role required",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetScope extracts the caller's scope from the gin context
func GetScope(c *gin.Context) (services.Scope, error) {
	value, exists := c.Get(scopeKey)
	if !exists {
		return services.Scope{}, &AuthError{Code: "MISSING_SCOPE", Message: "Scope not found in context"}
	}

	scope, ok := value.(services.Scope)
	if !ok {
		return services.Scope{}, &AuthError{Code: "INVALID_SCOPE", Message: "Scope is not in the expected format"}
	}

	return scope, nil
}

// SetScope stores a scope in the gin context the same way RequireAuth does
// (primarily for testing)
func SetScope(c *gin.Context, scope services.Scope) {
	c.Set(scopeKey, scope)
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
