package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Upstream eschool account
	UpstreamBaseURL  string
	EschoolUsername  string
	EschoolPassword  string
	UpstreamTimeout  time.Duration

	// Rate limiting
	RateLimitEnabled       bool
	GlobalRequestsPerMin   int

	// Homework uploads
	UploadDir string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 20001),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "reschool"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Upstream defaults
		UpstreamBaseURL: getEnv("ESCHOOL_BASE_URL", "https://app.eschool.center/ec-server"),
		EschoolUsername: getEnv("ESCHOOL_USERNAME", ""),
		EschoolPassword: getEnv("ESCHOOL_PASSWORD", ""),
		UpstreamTimeout: getEnvDuration("ESCHOOL_TIMEOUT", 30*time.Second),

		// Rate limiting defaults
		RateLimitEnabled:     getEnvBool("RATE_LIMIT_ENABLED", true),
		GlobalRequestsPerMin: getEnvInt("GLOBAL_REQUESTS_PER_MINUTE", 300),

		// Upload defaults
		UploadDir: getEnv("UPLOAD_DIR", "uploads/custom_homework"),
	}

	// Validate required fields
	if cfg.EschoolUsername == "" || cfg.EschoolPassword == "" {
		return nil, fmt.Errorf("ESCHOOL_USERNAME and ESCHOOL_PASSWORD are required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
