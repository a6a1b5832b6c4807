package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/models"
	"triage-backend/internal/triage"
	"triage-backend/pkg/utils"
)

const restTokenTTL = 24 * time.Hour

// Login authenticates a staff account over REST and returns a short-lived
// bearer token for the read endpoints. The admin master secret does not
// work here on purpose.
func Login(core *triage.Core, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.LoginInput

		// 1. Validate input
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.APIResponse(c, http.StatusBadRequest, false, "Invalid input", nil)
			return
		}

		// 2. Check against the directory (runs inside the core loop)
		role, fullName, ok := core.VerifyCredentials(input.Username, input.Password)
		if !ok {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Wrong username or password", nil)
			return
		}

		// 3. Mint the bearer token
		token, err := utils.GenerateToken(jwtSecret, input.Username, string(role), restTokenTTL)
		if err != nil {
			utils.APIResponse(c, http.StatusInternalServerError, false, "Could not generate token", nil)
			return
		}

		utils.APIResponse(c, http.StatusOK, true, "Login OK", gin.H{
			"token": token,
			"user": gin.H{
				"username":  input.Username,
				"full_name": fullName,
				"role":      role,
			},
		})
	}
}
