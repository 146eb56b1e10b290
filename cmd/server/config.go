package main

import (
	"os"
	"strconv"
	"time"

	"pong-platform/backend/internal/db"
	redisClient "pong-platform/backend/internal/redis"
	"pong-platform/backend/internal/server/config"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	DBConfig db.Config
	Auth     config.AuthConfig

	ServerPort  string
	Environment string
}

// redisConfigFromEnv loads the Redis connection parameters used for
// distributed locking.
func redisConfigFromEnv() redisClient.Config {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		db = 0
	}
	return redisClient.Config{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() Config {
	godotenv.Load()

	return Config{
		DBConfig: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "pong_platform"),
		},
		Auth: config.AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", "secret"),
			AccessTTL:    getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTTL:   getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			CookieSecure: getEnv("ENV", "development") == "production",
			CookieDomain: getEnv("COOKIE_DOMAIN", ""),
		},
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
