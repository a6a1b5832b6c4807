package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/triage"
	"triage-backend/pkg/utils"
)

// GetBoard returns the current active queue. Public, same data the TV
// shows before authenticating.
func GetBoard(core *triage.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.APIResponse(c, http.StatusOK, true, "Current board", gin.H{
			"patients":  core.Board(),
			"emergency": core.EmergencyActive(),
		})
	}
}
