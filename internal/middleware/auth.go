package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/models"
	"triage-backend/pkg/utils"
)

// AuthMiddleware validates the Bearer token on the REST read surface and
// stores username + role on the context. The realtime side does its own
// session-scoped checks; this only covers plain HTTP.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Token missing", nil)
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Malformed token", nil)
			c.Abort()
			return
		}

		username, role, err := utils.ParseToken(jwtSecret, parts[1])
		if err != nil {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Invalid token", nil)
			c.Abort()
			return
		}

		c.Set("username", username)
		c.Set("role", models.Role(role))

		c.Next()
	}
}

// RequireRole gates a REST route to specific roles. Unlike the realtime
// ops, HTTP gets an explicit 403: a REST caller can't observe a broadcast
// to learn its request was ignored.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get("role")
		if !exists {
			utils.APIResponse(c, http.StatusForbidden, false, "Access denied", nil)
			c.Abort()
			return
		}

		role := val.(models.Role)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		utils.APIResponse(c, http.StatusForbidden, false, "Access denied", nil)
		c.Abort()
	}
}
