package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/internal/utils"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

const callerKey = "caller"

func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// 2. Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			c.Abort()
			return
		}

		// 3. Validate token
		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			logger.Log.Debug("Rejected token",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// 4. Add claims to context (handlers can access)
		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Set("claims", claims)
		c.Set(callerKey, service.Caller{UserID: claims.UserID, Role: claims.Role})

		c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated role is
// one of roles. Must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			c.Abort()
			return
		}

		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}

		logger.Log.Warn("Role not allowed",
			zap.String("user_id", caller.UserID.String()),
			zap.String("role", string(caller.Role)),
			zap.String("path", c.FullPath()),
		)
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied for role " + string(caller.Role),
		})
		c.Abort()
	}
}

// AdminMiddleware is RequireRoles(models.RoleAdmin).
func AdminMiddleware() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

// CallerFrom returns the identity AuthMiddleware stored on the context.
func CallerFrom(c *gin.Context) (service.Caller, bool) {
	v, exists := c.Get(callerKey)
	if !exists {
		return service.Caller{}, false
	}
	caller, ok := v.(service.Caller)
	return caller, ok
}
