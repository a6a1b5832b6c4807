package routes

import (
	"github.com/gin-gonic/gin"

	"triage-backend/internal/handlers"
	"triage-backend/internal/middleware"
	"triage-backend/internal/models"
	"triage-backend/internal/triage"
	"triage-backend/internal/ws"
)

// SetupRoutes mounts the realtime endpoint and the REST read surface.
func SetupRoutes(r *gin.Engine, core *triage.Core, jwtSecret string) {

	r.Use(middleware.RateLimitMiddleware())

	// The realtime board: everything mutating goes through here.
	wsHandler := ws.NewHandler(core)
	r.GET("/ws", wsHandler.Handle)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", handlers.Login(core, jwtSecret))
		}

		// Public, same data as the TV screen
		api.GET("/board", handlers.GetBoard(core))

		// Protected reads
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/history/search", handlers.SearchHistory(core))
			protected.GET("/stats",
				middleware.RequireRole(models.RoleStats),
				handlers.GetStats(core))
		}
	}
}
