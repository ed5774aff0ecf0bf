package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	PORT   string
	ENV    string
	DB_URL string

	STORAGE_ROOT string
	CORS_ORIGIN  string

	AI_PROVIDER string
	AI_API_KEY  string
	AI_API_URL  string
	AI_MODEL    string

	EXCHANGE_API_KEY string
	EXCHANGE_API_URL string

	RETENTION_DAYS int
	WORKER_COUNT   int
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	ENV = getEnv("APP_ENV", "development")
	DB_URL = mustEnv("DB_URL")

	STORAGE_ROOT = getEnv("STORAGE_ROOT", "storage/public")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "*")

	AI_PROVIDER = getEnv("AI_PROVIDER", "openai")
	AI_API_KEY = mustEnv("AI_API_KEY")
	AI_API_URL = getEnv("AI_API_URL", "")
	AI_MODEL = getEnv("AI_MODEL", "gpt-4o")

	EXCHANGE_API_KEY = mustEnv("EXCHANGE_API_KEY")
	EXCHANGE_API_URL = getEnv("EXCHANGE_API_URL", "https://v6.exchangerate-api.com/v6")

	RETENTION_DAYS = getEnvInt("RETENTION_DAYS", 14)
	WORKER_COUNT = getEnvInt("WORKER_COUNT", 4)
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Environment variable %s must be an integer, got %q", key, value)
	}
	return n
}
