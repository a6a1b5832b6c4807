package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/models"
	"triage-backend/internal/triage"
	"triage-backend/pkg/utils"
)

// SearchHistory answers ?q= archive searches. The role from the token
// drives the same confidentiality filter as the realtime op.
func SearchHistory(core *triage.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			utils.APIResponse(c, http.StatusBadRequest, false, "Missing query", nil)
			return
		}

		role, _ := c.Get("role")
		results := core.Search(query, role.(models.Role))

		utils.APIResponse(c, http.StatusOK, true, "Search results", results)
	}
}

// GetStats returns today's aggregates. Route is gated to the statistics
// role by middleware.
func GetStats(core *triage.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.APIResponse(c, http.StatusOK, true, "Today's statistics", core.Statistics())
	}
}
