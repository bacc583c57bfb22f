package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr      string
	MetricsAddr   string
	UsersDBPath   string
	AdminUsername string
	AdminPassword string
	SigningSecret string
	Env           string
}

// Load reads configuration from the environment, seeding it from a .env
// file when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		UsersDBPath:   getEnv("USERS_DB", "wisevault.db"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		SigningSecret: getEnv("SIGNING_SECRET", ""),
		Env:           getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
