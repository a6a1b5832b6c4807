package config

import "os"

// Config holds everything read from the environment. Defaults keep the
// server bootable on a bare laptop without a .env file.
type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	AdminPassword string // master secret for the admin console, not stored in the user directory
	FCMCredFile   string // path to the firebase service account json, empty = pushes disabled
	FCMTopic      string
}

// Load reads the environment. godotenv is loaded by main before this.
func Load() Config {
	return Config{
		Port:          getenv("PORT", "3000"),
		DBPath:        getenv("DB_PATH", "triage.db"),
		JWTSecret:     getenv("JWT_SECRET", "triage_dev_secret"),
		AdminPassword: getenv("ADMIN_PASSWORD", "RAC2025%"),
		FCMCredFile:   os.Getenv("FCM_CREDENTIALS"),
		FCMTopic:      getenv("FCM_TOPIC", "triage-alerts"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
