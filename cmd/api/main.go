package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"triage-backend/internal/config"
	"triage-backend/internal/notify"
	"triage-backend/internal/routes"
	"triage-backend/internal/store"
	"triage-backend/internal/triage"
	"triage-backend/pkg/utils"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	// 2. Open the store
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	// 3. Device alerts (disabled when no credentials configured)
	notifier := notify.NewFCM(cfg.FCMCredFile, cfg.FCMTopic)

	// 4. Start the triage core
	core, err := triage.New(st, notifier, triage.Options{
		JWTSecret:     cfg.JWTSecret,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		log.Fatalf("triage: %v", err)
	}
	core.Run()

	// 5. Router + routes
	r := gin.Default()
	routes.SetupRoutes(r, core, cfg.JWTSecret)

	r.GET("/ping", func(c *gin.Context) {
		utils.APIResponse(c, 200, true, "Server OK!", nil)
	})

	// 6. Run
	log.Println("Triage board listening on port " + cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
